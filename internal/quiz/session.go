package quiz

import (
	"errors"
	"sync"

	"manara/internal/model"
)

// State is the lifecycle phase of a challenge session
type State string

const (
	StateNotStarted    State = "not_started"
	StateInProgress    State = "in_progress"
	StateShowingResult State = "showing_result"
	StateFinished      State = "finished"
)

// Outcome is how the current question was resolved
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeTimeout Outcome = "timeout"
)

const (
	// QuestionSeconds is the countdown armed for every question.
	QuestionSeconds = 30
	// advanceDelayTicks is how many ticks a correct result is shown
	// before the session auto-advances. Wrong and timeout results wait
	// for an explicit Next so the user can study the revealed answer.
	advanceDelayTicks = 1
)

var (
	ErrAlreadyStarted  = errors.New("session already started")
	ErrNotInProgress   = errors.New("no question in progress")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrWrongQuestion   = errors.New("submitted question is not the current question")
)

// Patch is a partial update against the durable progress record. Nil
// fields are untouched; the repository applies it with merge
// semantics, never a full overwrite.
type Patch struct {
	UserID    string
	Score     *int
	Completed []int
	Repeats   map[string]int
}

// Session is the in-memory controller for one user's challenge run.
// It owns the ephemeral state (pointer, countdown, answer latch) and
// mutates a local working copy of the durable progress record,
// emitting a Patch for every durable effect instead of writing inline.
type Session struct {
	mu sync.Mutex

	userID   string
	bank     []model.Question
	progress *model.UserProgress

	state       State
	idx         int // position within the current eligible slice
	currentID   int // id materialized at idx; detects slice shifts
	timer       int
	hasAnswered bool
	outcome     Outcome
	last        *model.Question // question shown in ShowingResult
	pending     int             // ticks until auto-advance, 0 = none

	lastSeq     int64 // monotonic interrupt guard
	unconfirmed bool  // a progress write failed and was not reconciled
}

// NewSession builds a session over the ordered bank and the user's
// durable progress record. The record is copied; the caller's value is
// not mutated.
func NewSession(userID string, bank []model.Question, progress *model.UserProgress) *Session {
	if progress == nil {
		progress = model.NewUserProgress(userID)
	}
	return &Session{
		userID:   userID,
		bank:     bank,
		progress: cloneProgress(progress),
		state:    StateNotStarted,
	}
}

// Start begins the run at the first eligible question with a full
// countdown. Starting with nothing left to answer finishes
// immediately.
func (s *Session) Start() (*model.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return nil, ErrAlreadyStarted
	}
	el := s.eligible()
	if len(el) == 0 {
		s.state = StateFinished
		return s.viewLocked(), nil
	}
	s.idx = 0
	s.armLocked(el)
	return s.viewLocked(), nil
}

// Tick advances wall-clock by one second. While a question is open it
// burns the countdown; at zero the question times out (counts as
// wrong: repeat +1, score unchanged). While a correct result is shown
// it burns the auto-advance delay.
func (s *Session) Tick() (*model.SessionView, *Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInProgress:
		if s.hasAnswered {
			return nil, nil
		}
		s.timer--
		if s.timer > 0 {
			return s.viewLocked(), nil
		}
		// Timeout outcome.
		q, ok := s.currentLocked()
		if !ok {
			s.state = StateFinished
			return s.viewLocked(), nil
		}
		s.hasAnswered = true
		s.outcome = OutcomeTimeout
		s.last = &q
		s.bumpRepeatLocked(q.ID)
		s.state = StateShowingResult
		return s.viewLocked(), s.repeatPatchLocked()

	case StateShowingResult:
		if s.pending == 0 {
			return nil, nil
		}
		s.pending--
		if s.pending > 0 {
			return nil, nil
		}
		el := s.eligible()
		if len(el) == 0 {
			s.state = StateFinished
			return s.viewLocked(), nil
		}
		if s.idx >= len(el) {
			s.idx = len(el) - 1
		}
		s.armLocked(el)
		return s.viewLocked(), nil
	}
	return nil, nil
}

// Submit evaluates a choice against the current question. It is
// accepted once per question; the latch rejects everything after the
// first submission until the pointer moves.
func (s *Session) Submit(questionID int, choice string) (*model.SessionView, *Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return nil, nil, ErrNotInProgress
	}
	if s.hasAnswered {
		return nil, nil, ErrAlreadyAnswered
	}
	q, ok := s.currentLocked()
	if !ok {
		return nil, nil, ErrNotInProgress
	}
	if q.ID != questionID {
		return nil, nil, ErrWrongQuestion
	}

	s.hasAnswered = true
	s.last = &q

	if MatchAnswer(choice, q.CorrectAnswer) {
		s.outcome = OutcomeCorrect
		s.progress.ChallengeScore++
		s.progress.CompletedChallenges = append(s.progress.CompletedChallenges, q.ID)
		patch := s.scorePatchLocked()
		patch.Completed = append([]int(nil), s.progress.CompletedChallenges...)

		if len(s.eligible()) == 0 {
			s.state = StateFinished
			return s.viewLocked(), patch, nil
		}
		s.state = StateShowingResult
		s.pending = advanceDelayTicks
		return s.viewLocked(), patch, nil
	}

	s.outcome = OutcomeWrong
	s.bumpRepeatLocked(q.ID)
	s.state = StateShowingResult
	s.pending = 0 // wrong answers wait for an explicit Next
	return s.viewLocked(), s.repeatPatchLocked(), nil
}

// Next moves the pointer one step forward in the eligible slice. When
// the current question has left the rotation the slice already
// shifted, so the slot itself holds the successor. A no-op at the
// upper bound.
func (s *Session) Next() *model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(+1)
}

// Prev moves the pointer one step back. A no-op at the lower bound.
func (s *Session) Prev() *model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(-1)
}

func (s *Session) navigateLocked(step int) *model.SessionView {
	if s.state != StateInProgress && s.state != StateShowingResult {
		return s.viewLocked()
	}
	el := s.eligible()
	if len(el) == 0 {
		s.state = StateFinished
		return s.viewLocked()
	}

	pos := indexOf(el, s.currentID)
	target := s.idx
	switch {
	case pos == -1:
		// Current question dropped out; clamp into the shifted slice.
		if target >= len(el) {
			target = len(el) - 1
		}
	default:
		target = pos + step
		if target < 0 || target >= len(el) {
			return s.viewLocked() // bound, navigation disabled
		}
	}

	s.idx = target
	s.armLocked(el)
	return s.viewLocked()
}

// End is the user-confirmed early termination. Effects already emitted
// stand; the session simply returns to the idle state.
func (s *Session) End() *model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateNotStarted
	s.idx = 0
	s.currentID = 0
	s.timer = 0
	s.hasAnswered = false
	s.outcome = ""
	s.last = nil
	s.pending = 0
	return s.viewLocked()
}

// Interrupt is the anti-cheat funnel. Every browser trigger (tab
// hidden, blur, page hide) arrives with a client-monotonic sequence
// number; a penalty applies only for a strictly newer sequence while a
// question is open, unanswered, and the score is positive — so
// overlapping triggers collapse to exactly one deduction and one
// persistence write.
func (s *Session) Interrupt(seq int64) (*model.SessionView, *Patch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastSeq {
		return s.viewLocked(), nil, false
	}
	s.lastSeq = seq

	if s.state != StateInProgress || s.hasAnswered || s.progress.ChallengeScore <= 0 {
		return s.viewLocked(), nil, false
	}
	s.progress.ChallengeScore--
	return s.viewLocked(), s.scorePatchLocked(), true
}

// MarkUnconfirmed flags the displayed score as not durably persisted.
// Cleared by Reconcile.
func (s *Session) MarkUnconfirmed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unconfirmed = true
}

// Reconcile replaces the local working copy with the authoritative
// remote record after a failed write, clearing the unconfirmed flag.
// A nil remote means no record exists yet, so the local optimistic
// effects are rolled back to a fresh one.
func (s *Session) Reconcile(remote *model.UserProgress) *model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if remote == nil {
		remote = model.NewUserProgress(s.userID)
	}
	s.progress = cloneProgress(remote)
	s.unconfirmed = false
	return s.viewLocked()
}

// Score returns the locally tracked score
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.ChallengeScore
}

// View returns the current client-facing snapshot
func (s *Session) View() *model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Active reports whether the session still needs the ticking runner
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateInProgress || s.state == StateShowingResult
}

func (s *Session) eligible() []model.Question {
	return Eligible(s.bank, s.progress)
}

// armLocked points the session at el[idx] with a fresh countdown and
// cleared latches.
func (s *Session) armLocked(el []model.Question) {
	if s.idx >= len(el) {
		s.idx = len(el) - 1
	}
	s.state = StateInProgress
	s.currentID = el[s.idx].ID
	s.timer = QuestionSeconds
	s.hasAnswered = false
	s.outcome = ""
	s.last = nil
	s.pending = 0
}

func (s *Session) currentLocked() (model.Question, bool) {
	el := s.eligible()
	if len(el) == 0 {
		return model.Question{}, false
	}
	if s.idx >= len(el) {
		s.idx = len(el) - 1
	}
	s.currentID = el[s.idx].ID
	return el[s.idx], true
}

func (s *Session) bumpRepeatLocked(questionID int) {
	if s.progress.QuestionsRepeatCount == nil {
		s.progress.QuestionsRepeatCount = map[string]int{}
	}
	s.progress.QuestionsRepeatCount[model.QuestionKey(questionID)]++
}

func (s *Session) scorePatchLocked() *Patch {
	score := s.progress.ChallengeScore
	return &Patch{UserID: s.userID, Score: &score}
}

func (s *Session) repeatPatchLocked() *Patch {
	repeats := make(map[string]int, len(s.progress.QuestionsRepeatCount))
	for k, v := range s.progress.QuestionsRepeatCount {
		repeats[k] = v
	}
	return &Patch{UserID: s.userID, Repeats: repeats}
}

func (s *Session) viewLocked() *model.SessionView {
	v := &model.SessionView{
		State:            string(s.state),
		Index:            s.idx,
		TimerSeconds:     s.timer,
		HasAnswered:      s.hasAnswered,
		Score:            s.progress.ChallengeScore,
		ScoreUnconfirmed: s.unconfirmed,
		Outcome:          string(s.outcome),
		Remaining:        len(s.eligible()),
	}

	switch s.state {
	case StateInProgress:
		if q, ok := s.currentLocked(); ok {
			v.Question = q.Public()
		}
	case StateShowingResult:
		if s.last != nil {
			v.Question = s.last.Public()
			v.CorrectAnswer = s.last.CorrectAnswer
		}
	}
	return v
}

// Snapshot is the serializable ephemeral state of a session, enough to
// resume after a reconnect when paired with the durable progress
// record and the bank.
type Snapshot struct {
	State       State   `json:"state"`
	Index       int     `json:"index"`
	CurrentID   int     `json:"currentId"`
	Timer       int     `json:"timer"`
	HasAnswered bool    `json:"hasAnswered"`
	Outcome     Outcome `json:"outcome,omitempty"`
	LastID      int     `json:"lastId,omitempty"`
	Pending     int     `json:"pending,omitempty"`
	LastSeq     int64   `json:"lastSeq"`
	Unconfirmed bool    `json:"unconfirmed,omitempty"`
}

// Snapshot captures the session's ephemeral state
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		State:       s.state,
		Index:       s.idx,
		CurrentID:   s.currentID,
		Timer:       s.timer,
		HasAnswered: s.hasAnswered,
		Outcome:     s.outcome,
		Pending:     s.pending,
		LastSeq:     s.lastSeq,
		Unconfirmed: s.unconfirmed,
	}
	if s.last != nil {
		snap.LastID = s.last.ID
	}
	return snap
}

// Restore rebuilds a session from a snapshot and the durable record
func Restore(userID string, bank []model.Question, progress *model.UserProgress, snap *Snapshot) *Session {
	s := NewSession(userID, bank, progress)
	if snap == nil {
		return s
	}
	s.state = snap.State
	s.idx = snap.Index
	s.currentID = snap.CurrentID
	s.timer = snap.Timer
	s.hasAnswered = snap.HasAnswered
	s.outcome = snap.Outcome
	s.pending = snap.Pending
	s.lastSeq = snap.LastSeq
	s.unconfirmed = snap.Unconfirmed
	if snap.LastID != 0 {
		for i := range bank {
			if bank[i].ID == snap.LastID {
				q := bank[i]
				s.last = &q
				break
			}
		}
	}
	return s
}

func cloneProgress(p *model.UserProgress) *model.UserProgress {
	cp := &model.UserProgress{
		UserID:               p.UserID,
		ChallengeScore:       p.ChallengeScore,
		CompletedChallenges:  append([]int(nil), p.CompletedChallenges...),
		QuestionsRepeatCount: make(map[string]int, len(p.QuestionsRepeatCount)),
		LastUpdated:          p.LastUpdated,
	}
	for k, v := range p.QuestionsRepeatCount {
		cp.QuestionsRepeatCount[k] = v
	}
	return cp
}

func indexOf(el []model.Question, id int) int {
	for i := range el {
		if el[i].ID == id {
			return i
		}
	}
	return -1
}
