package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"manara/internal/cache"
	"manara/internal/model"
	"manara/internal/quiz"
)

type fakeQuestionRepo struct {
	mu   sync.Mutex
	bank []model.Question
}

func (r *fakeQuestionRepo) List(ctx context.Context) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Question, len(r.bank))
	copy(out, r.bank)
	return out, nil
}

func (r *fakeQuestionRepo) GetByID(ctx context.Context, id int) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.bank {
		if q.ID == id {
			clone := q
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeQuestionRepo) Create(ctx context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bank = append(r.bank, *q)
	return nil
}

func (r *fakeQuestionRepo) Update(ctx context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bank {
		if r.bank[i].ID == q.ID {
			r.bank[i] = *q
		}
	}
	return nil
}

func (r *fakeQuestionRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bank {
		if r.bank[i].ID == id {
			r.bank = append(r.bank[:i], r.bank[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeQuestionRepo) NextID(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, q := range r.bank {
		if q.ID > max {
			max = q.ID
		}
	}
	return max + 1, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*model.User)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

type recordingBroadcaster struct {
	mu          sync.Mutex
	leaderboard int
	userEvents  []string
}

func (b *recordingBroadcaster) BroadcastLeaderboard(payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaderboard++
}

func (b *recordingBroadcaster) BroadcastToUser(userID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userEvents = append(b.userEvents, msgType)
}

type challengeFixture struct {
	svc         *ChallengeService
	progress    *fakeProgressRepo
	questions   *fakeQuestionRepo
	leaderboard cache.LeaderboardCache
	broadcaster *recordingBroadcaster
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	progress := newFakeProgressRepo()
	questions := &fakeQuestionRepo{bank: []model.Question{
		{ID: 1, Prompt: "What is 2 ** 3?", Options: []string{"6", "8", "9", "16"}, CorrectAnswer: "8"},
		{ID: 2, Prompt: "Which structure is LIFO?", Options: []string{"Queue", "Stack", "Heap", "Graph"}, CorrectAnswer: "Stack"},
	}}
	users := newFakeUserRepo()

	lbCache := cache.NewLeaderboardCache(client)
	writer := NewProgressWriter(progress, 16)
	t.Cleanup(writer.Close)

	lb := NewLeaderboardService(lbCache, progress, users)
	svc := NewChallengeService(
		questions,
		progress,
		cache.NewSessionCache(client, time.Hour),
		cache.NewStatsCache(client),
		writer,
		lb,
	)
	// Keep the background runner inert; tests drive ticks directly.
	svc.tickEvery = time.Hour
	t.Cleanup(svc.Shutdown)

	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)
	lb.SetBroadcaster(b)

	return &challengeFixture{
		svc:         svc,
		progress:    progress,
		questions:   questions,
		leaderboard: lbCache,
		broadcaster: b,
	}
}

func TestSubmitCorrectAnswerPersistsScoreAndRanks(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	view, err := fx.svc.StartSession(ctx, "u_1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	view, err = fx.svc.SubmitAnswer(ctx, "u_1", &model.SubmitAnswerRequest{
		QuestionID: view.Question.ID,
		Choice:     "8",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.Score != 1 {
		t.Fatalf("expected score 1, got %d", view.Score)
	}

	waitFor(t, func() bool { return fx.progress.mergeCount() == 1 })
	rec, _ := fx.progress.Get(ctx, "u_1")
	if rec == nil || rec.ChallengeScore != 1 {
		t.Fatalf("expected persisted score 1, got %+v", rec)
	}

	waitFor(t, func() bool {
		entries, err := fx.leaderboard.GetTop(ctx, 10)
		return err == nil && len(entries) == 1 && entries[0].Score == 1
	})
}

func TestInterruptDuplicatesCollapseToOneWrite(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	seed := model.NewUserProgress("u_1")
	seed.ChallengeScore = 3
	fx.progress.records["u_1"] = seed

	if _, err := fx.svc.StartSession(ctx, "u_1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Two triggers for the same blur event, same client sequence.
	view, err := fx.svc.Interrupt(ctx, "u_1", 1)
	if err != nil {
		t.Fatalf("interrupt: %v", err)
	}
	if view.Score != 2 {
		t.Fatalf("expected one penalty, score 2, got %d", view.Score)
	}
	view, err = fx.svc.Interrupt(ctx, "u_1", 1)
	if err != nil {
		t.Fatalf("interrupt: %v", err)
	}
	if view.Score != 2 {
		t.Fatalf("duplicate sequence must not penalize again, got %d", view.Score)
	}

	waitFor(t, func() bool { return fx.progress.mergeCount() == 1 })
	// Give the queue a moment to prove no second write sneaks through.
	time.Sleep(50 * time.Millisecond)
	if got := fx.progress.mergeCount(); got != 1 {
		t.Fatalf("expected exactly 1 merge, got %d", got)
	}
}

func TestFailedWriteMarksScoreUnconfirmedAndReconciles(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.StartSession(ctx, "u_1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	fx.progress.setFailing(true)
	view, err := fx.svc.SubmitAnswer(ctx, "u_1", &model.SubmitAnswerRequest{QuestionID: 1, Choice: "8"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.Score != 1 {
		t.Fatalf("optimistic score should apply, got %d", view.Score)
	}

	// The failed write reconciles the session back to the stored
	// record, which has no score.
	waitFor(t, func() bool {
		v, err := fx.svc.Current(ctx, "u_1")
		return err == nil && v.Score == 0 && !v.ScoreUnconfirmed
	})
}

func TestSessionRestoresFromSnapshotAfterRestart(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	started, err := fx.svc.StartSession(ctx, "u_1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Drop the in-memory registry, as a process restart would.
	fx.svc.Shutdown()

	view, err := fx.svc.Current(ctx, "u_1")
	if err != nil {
		t.Fatalf("current after restart: %v", err)
	}
	if view.State != string(quiz.StateInProgress) {
		t.Fatalf("expected restored session in progress, got %s", view.State)
	}
	if view.Question == nil || view.Question.ID != started.Question.ID {
		t.Fatalf("expected same open question after restore")
	}
}

func TestTimeoutTickPersistsRepeatCount(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.StartSession(ctx, "u_1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	fx.svc.mu.Lock()
	rs := fx.svc.sessions["u_1"]
	fx.svc.mu.Unlock()

	for i := 0; i < quiz.QuestionSeconds; i++ {
		fx.svc.tickSession("u_1", rs)
	}

	view, err := fx.svc.Current(ctx, "u_1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if view.State != string(quiz.StateShowingResult) {
		t.Fatalf("expected showing_result after timeout, got %s", view.State)
	}
	if view.Outcome != string(quiz.OutcomeTimeout) {
		t.Fatalf("expected timeout outcome, got %q", view.Outcome)
	}

	waitFor(t, func() bool { return fx.progress.mergeCount() == 1 })
	rec, _ := fx.progress.Get(ctx, "u_1")
	if rec == nil || rec.QuestionsRepeatCount[model.QuestionKey(1)] != 1 {
		t.Fatalf("expected repeat count persisted, got %+v", rec)
	}
}

func TestSessionOpsWithoutStart(t *testing.T) {
	fx := newChallengeFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Current(ctx, "u_9"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if _, err := fx.svc.EndSession(ctx, "u_9"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}
