package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"manara/internal/cache"
	"manara/internal/model"
	"manara/internal/quiz"
	"manara/internal/repository"
)

// ErrNoActiveSession is returned for session operations before Start
var ErrNoActiveSession = errors.New("no active challenge session")

// ChallengeService drives challenge sessions: one per user, held in
// memory, ticked by a per-session runner, snapshotted to Redis, with
// every durable effect flowing through the acknowledged write queue.
type ChallengeService struct {
	questionRepo repository.QuestionRepo
	progressRepo repository.ProgressRepo
	sessionCache cache.SessionCache
	stats        cache.StatsCache
	writer       *ProgressWriter
	leaderboard  *LeaderboardService
	broadcaster  Broadcaster

	tickEvery time.Duration

	mu       sync.Mutex
	sessions map[string]*runningSession
}

type runningSession struct {
	sess *quiz.Session
	stop chan struct{}
}

// NewChallengeService creates a new challenge service
func NewChallengeService(
	questionRepo repository.QuestionRepo,
	progressRepo repository.ProgressRepo,
	sessionCache cache.SessionCache,
	stats cache.StatsCache,
	writer *ProgressWriter,
	leaderboard *LeaderboardService,
) *ChallengeService {
	return &ChallengeService{
		questionRepo: questionRepo,
		progressRepo: progressRepo,
		sessionCache: sessionCache,
		stats:        stats,
		writer:       writer,
		leaderboard:  leaderboard,
		tickEvery:    time.Second,
		sessions:     make(map[string]*runningSession),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *ChallengeService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartSession begins a fresh session for the user, superseding any
// previous one (the session belongs to the most recent tab).
func (s *ChallengeService) StartSession(ctx context.Context, userID string) (*model.SessionView, error) {
	bank, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}
	if len(bank) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	progress, err := s.progressRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	sess := quiz.NewSession(userID, bank, progress)
	view, err := sess.Start()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if old, ok := s.sessions[userID]; ok {
		close(old.stop)
	}
	rs := &runningSession{sess: sess, stop: make(chan struct{})}
	s.sessions[userID] = rs
	s.mu.Unlock()

	if sess.Active() {
		go s.runTicker(userID, rs)
	}

	if err := s.stats.Increment(ctx, cache.StatSessionsStarted, 1); err != nil {
		log.Printf("stats increment failed: %v", err)
	}
	s.saveSnapshot(userID, sess)
	return view, nil
}

// Current returns the session view, restoring from the snapshot cache
// after a reconnect.
func (s *ChallengeService) Current(ctx context.Context, userID string) (*model.SessionView, error) {
	rs, err := s.getSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	return rs.sess.View(), nil
}

// SubmitAnswer evaluates the user's choice against the open question
func (s *ChallengeService) SubmitAnswer(ctx context.Context, userID string, req *model.SubmitAnswerRequest) (*model.SessionView, error) {
	rs, err := s.getSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	view, patch, err := rs.sess.Submit(req.QuestionID, req.Choice)
	if err != nil {
		return nil, err
	}

	s.enqueue(userID, rs.sess, patch)
	if err := s.stats.Increment(ctx, cache.StatAnswersRecorded, 1); err != nil {
		log.Printf("stats increment failed: %v", err)
	}
	if view.Outcome == string(quiz.OutcomeCorrect) {
		s.publishScore(ctx, userID, view.Score)
	}
	s.saveSnapshot(userID, rs.sess)
	s.pushSession(userID, view)
	return view, nil
}

// Interrupt funnels an anti-cheat trigger into the session. Duplicate
// sequences collapse inside the state machine; only an applied penalty
// reaches the write queue and the leaderboard.
func (s *ChallengeService) Interrupt(ctx context.Context, userID string, seq int64) (*model.SessionView, error) {
	rs, err := s.getSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	view, patch, applied := rs.sess.Interrupt(seq)
	if !applied {
		return view, nil
	}

	s.enqueue(userID, rs.sess, patch)
	if err := s.stats.Increment(ctx, cache.StatPenaltiesIssued, 1); err != nil {
		log.Printf("stats increment failed: %v", err)
	}
	s.publishScore(ctx, userID, view.Score)
	s.saveSnapshot(userID, rs.sess)
	s.pushSession(userID, view)
	return view, nil
}

// NextQuestion moves the pointer forward
func (s *ChallengeService) NextQuestion(ctx context.Context, userID string) (*model.SessionView, error) {
	rs, err := s.getSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := rs.sess.Next()
	s.saveSnapshot(userID, rs.sess)
	return view, nil
}

// PrevQuestion moves the pointer back
func (s *ChallengeService) PrevQuestion(ctx context.Context, userID string) (*model.SessionView, error) {
	rs, err := s.getSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := rs.sess.Prev()
	s.saveSnapshot(userID, rs.sess)
	return view, nil
}

// EndSession is the user-confirmed early termination. Effects already
// queued stand.
func (s *ChallengeService) EndSession(ctx context.Context, userID string) (*model.SessionView, error) {
	s.mu.Lock()
	rs, ok := s.sessions[userID]
	if ok {
		close(rs.stop)
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrNoActiveSession
	}

	view := rs.sess.End()
	if err := s.sessionCache.Delete(ctx, userID); err != nil {
		log.Printf("session cache delete failed: %v", err)
	}
	return view, nil
}

// Shutdown stops all session runners
func (s *ChallengeService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, rs := range s.sessions {
		close(rs.stop)
		delete(s.sessions, userID)
	}
}

func (s *ChallengeService) getSession(ctx context.Context, userID string) (*runningSession, error) {
	s.mu.Lock()
	rs, ok := s.sessions[userID]
	s.mu.Unlock()
	if ok {
		return rs, nil
	}

	// Reconnect path: rebuild from the snapshot cache.
	snap, err := s.sessionCache.Get(ctx, userID)
	if err != nil {
		log.Printf("session cache read failed: %v", err)
	}
	if snap == nil {
		return nil, ErrNoActiveSession
	}

	bank, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}
	progress, err := s.progressRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	sess := quiz.Restore(userID, bank, progress, snap)
	rs = &runningSession{sess: sess, stop: make(chan struct{})}

	s.mu.Lock()
	if existing, ok := s.sessions[userID]; ok {
		// Lost the race to another restore.
		s.mu.Unlock()
		close(rs.stop)
		return existing, nil
	}
	s.sessions[userID] = rs
	s.mu.Unlock()

	if sess.Active() {
		go s.runTicker(userID, rs)
	}
	return rs, nil
}

func (s *ChallengeService) runTicker(userID string, rs *runningSession) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-rs.stop:
			return
		case <-ticker.C:
			if !s.tickSession(userID, rs) {
				return
			}
		}
	}
}

// tickSession advances wall-clock by one tick and reports whether the
// runner should keep going.
func (s *ChallengeService) tickSession(userID string, rs *runningSession) bool {
	view, patch := rs.sess.Tick()
	if view == nil && patch == nil {
		return rs.sess.Active()
	}

	if patch != nil {
		s.enqueue(userID, rs.sess, patch)
		if view != nil && view.Outcome == string(quiz.OutcomeTimeout) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			if err := s.stats.Increment(ctx, cache.StatTimeouts, 1); err != nil {
				log.Printf("stats increment failed: %v", err)
			}
			cancel()
		}
	}
	if view != nil {
		s.pushSession(userID, view)
		if view.State != string(quiz.StateInProgress) {
			// Persist only on state edges; per-second timer decrements
			// are not worth a cache write.
			s.saveSnapshot(userID, rs.sess)
		}
	}
	return rs.sess.Active()
}

// enqueue hands a patch to the write queue. On failure the session is
// marked unconfirmed and reconciled from the authoritative record;
// there is no automatic retry.
func (s *ChallengeService) enqueue(userID string, sess *quiz.Session, patch *quiz.Patch) {
	if patch == nil {
		return
	}
	err := s.writer.Enqueue(patch, func(writeErr error) {
		if writeErr == nil {
			return
		}
		sess.MarkUnconfirmed()
		s.pushSession(userID, sess.View())
		s.reconcile(userID, sess)
	})
	if err != nil {
		log.Printf("enqueue progress write for user %s: %v", userID, err)
	}
}

func (s *ChallengeService) reconcile(userID string, sess *quiz.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	remote, err := s.progressRepo.Get(ctx, userID)
	if err != nil {
		// Leave the unconfirmed flag up; the next failed write will
		// land here again.
		log.Printf("reconcile read failed for user %s: %v", userID, err)
		return
	}
	view := sess.Reconcile(remote)
	s.pushSession(userID, view)
	s.publishScore(ctx, userID, view.Score)
}

func (s *ChallengeService) publishScore(ctx context.Context, userID string, score int) {
	if err := s.leaderboard.SetScore(ctx, userID, score); err != nil {
		log.Printf("leaderboard update failed: %v", err)
		return
	}
	s.leaderboard.Publish(ctx)
}

func (s *ChallengeService) saveSnapshot(userID string, sess *quiz.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.sessionCache.Set(ctx, userID, sess.Snapshot()); err != nil {
		log.Printf("session snapshot failed: %v", err)
	}
}

func (s *ChallengeService) pushSession(userID string, view *model.SessionView) {
	if s.broadcaster == nil || view == nil {
		return
	}
	s.broadcaster.BroadcastToUser(userID, "session_update", view)
}
