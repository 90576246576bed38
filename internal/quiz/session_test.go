package quiz

import (
	"testing"

	"manara/internal/model"
)

func testBank() []model.Question {
	return []model.Question{
		{
			ID:            1,
			Prompt:        "What is 2 ** 3?",
			Options:       []string{"6", "8", "9", "16"},
			CorrectAnswer: "8",
		},
		{
			ID:            2,
			Prompt:        "Which structure is LIFO?",
			Options:       []string{"Queue", "Stack", "Heap", "Graph"},
			CorrectAnswer: "Stack",
		},
		{
			ID:            3,
			Prompt:        "Which sort is stable?",
			Options:       []string{"Quick Sort", "Heap Sort", "Merge Sort", "Selection Sort"},
			CorrectAnswer: "Merge Sort",
		},
	}
}

func TestStartSelectsFirstEligible(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	view, err := s.Start()
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if view.State != string(StateInProgress) {
		t.Fatalf("expected in_progress, got %s", view.State)
	}
	if view.Question == nil || view.Question.ID != 1 {
		t.Fatalf("expected question 1, got %+v", view.Question)
	}
	if view.TimerSeconds != QuestionSeconds {
		t.Fatalf("expected %d second countdown, got %d", QuestionSeconds, view.TimerSeconds)
	}
	if _, err := s.Start(); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestCorrectAnswerScoresAndCompletes(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, patch, err := s.Submit(1, "8")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if view.Score != 1 {
		t.Fatalf("expected score 1, got %d", view.Score)
	}
	if view.State != string(StateShowingResult) {
		t.Fatalf("expected showing_result, got %s", view.State)
	}
	if patch == nil || patch.Score == nil || *patch.Score != 1 {
		t.Fatalf("expected score patch of 1, got %+v", patch)
	}
	if len(patch.Completed) != 1 || patch.Completed[0] != 1 {
		t.Fatalf("expected completion of question 1, got %v", patch.Completed)
	}

	// The latch rejects a second submission for the same question.
	if _, _, err := s.Submit(1, "8"); err != ErrAlreadyAnswered {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	// One tick later the session auto-advances to the next question.
	view, _ = s.Tick()
	if view == nil || view.State != string(StateInProgress) {
		t.Fatalf("expected auto-advance to in_progress, got %+v", view)
	}
	if view.Question.ID != 2 {
		t.Fatalf("expected question 2 after advance, got %d", view.Question.ID)
	}
}

func TestAnswerMatchingIsTrimmedAndCaseInsensitive(t *testing.T) {
	s := NewSession("u1", testBank(), &model.UserProgress{
		UserID:              "u1",
		CompletedChallenges: []int{1, 2},
	})
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, _, err := s.Submit(3, "  merge sort  ")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if view.Outcome != string(OutcomeCorrect) {
		t.Fatalf("expected correct outcome, got %s", view.Outcome)
	}
}

func TestWrongAnswerRevealsAndWaits(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, patch, err := s.Submit(1, "9")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if view.Score != 0 {
		t.Fatalf("wrong answer must not change score, got %d", view.Score)
	}
	if view.State != string(StateShowingResult) || view.CorrectAnswer != "8" {
		t.Fatalf("expected revealed answer in showing_result, got %+v", view)
	}
	if patch == nil || patch.Repeats["1"] != 1 {
		t.Fatalf("expected repeat patch for question 1, got %+v", patch)
	}

	// No auto-advance on the wrong path: ticks do nothing.
	if v, p := s.Tick(); v != nil || p != nil {
		t.Fatal("expected showing_result to hold until explicit next")
	}

	// Explicit next re-arms the countdown on the following question.
	view = s.Next()
	if view.State != string(StateInProgress) || view.Question.ID != 2 {
		t.Fatalf("expected question 2 after next, got %+v", view)
	}
	if view.TimerSeconds != QuestionSeconds || view.HasAnswered {
		t.Fatalf("expected reset timer and cleared latch, got %+v", view)
	}
}

func TestTimeoutIncrementsRepeatOnly(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var view *model.SessionView
	var patch *Patch
	for i := 0; i < QuestionSeconds; i++ {
		view, patch = s.Tick()
	}

	if view.State != string(StateShowingResult) {
		t.Fatalf("expected showing_result after 30 ticks, got %s", view.State)
	}
	if view.Outcome != string(OutcomeTimeout) {
		t.Fatalf("expected timeout outcome, got %s", view.Outcome)
	}
	if view.CorrectAnswer != "8" {
		t.Fatalf("expected revealed answer, got %q", view.CorrectAnswer)
	}
	if view.Score != 0 {
		t.Fatalf("timeout must not change score, got %d", view.Score)
	}
	if patch == nil || patch.Repeats["1"] != 1 {
		t.Fatalf("expected repeat 1 for question 1, got %+v", patch)
	}
	if patch.Score != nil {
		t.Fatal("timeout must not emit a score write")
	}
}

func TestRepeatBudgetRemovesQuestionFromRotation(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Two wrong answers exhaust question 1's repeat budget.
	if _, _, err := s.Submit(1, "6"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	s.Next()
	s.Prev()
	view, patch, err := s.Submit(1, "16")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if patch.Repeats["1"] != model.MaxRepeatCount {
		t.Fatalf("expected repeat count %d, got %d", model.MaxRepeatCount, patch.Repeats["1"])
	}

	// The exhausted question has left the rotation for good.
	if view.Remaining != 2 {
		t.Fatalf("expected 2 questions remaining, got %d", view.Remaining)
	}
	view = s.Next()
	if view.Question.ID == 1 {
		t.Fatal("exhausted question must not be offered again")
	}
}

func TestSingleQuestionRunFinishes(t *testing.T) {
	bank := testBank()[:1]
	s := NewSession("u1", bank, nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, patch, err := s.Submit(1, "8")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if view.State != string(StateFinished) {
		t.Fatalf("expected finished, got %s", view.State)
	}
	if view.Score != 1 {
		t.Fatalf("expected score 1, got %d", view.Score)
	}
	if len(patch.Completed) != 1 || patch.Completed[0] != 1 {
		t.Fatalf("expected completedQuestionIds [1], got %v", patch.Completed)
	}
}

func TestInterruptAppliesSinglePenalty(t *testing.T) {
	s := NewSession("u1", testBank(), &model.UserProgress{
		UserID:               "u1",
		ChallengeScore:       3,
		QuestionsRepeatCount: map[string]int{},
	})
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// blur and visibility-change fire together with the same sequence.
	view, patch, applied := s.Interrupt(1)
	if !applied || patch == nil {
		t.Fatal("expected first trigger to apply the penalty")
	}
	if view.Score != 2 || *patch.Score != 2 {
		t.Fatalf("expected score 2 after penalty, got view=%d patch=%d", view.Score, *patch.Score)
	}

	_, patch, applied = s.Interrupt(1)
	if applied || patch != nil {
		t.Fatal("duplicate sequence must not issue a second write")
	}

	// A genuinely newer trigger applies again.
	view, _, applied = s.Interrupt(2)
	if !applied || view.Score != 1 {
		t.Fatalf("expected second penalty at seq 2, got score %d", view.Score)
	}
}

func TestInterruptRequiresOpenQuestionAndPositiveScore(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	if _, _, applied := s.Interrupt(1); applied {
		t.Fatal("penalty must not apply before start")
	}

	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, _, applied := s.Interrupt(2); applied {
		t.Fatal("penalty must not drive score negative from zero")
	}

	if _, _, err := s.Submit(1, "8"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, _, applied := s.Interrupt(3); applied {
		t.Fatal("penalty must not apply after the answer latch is set")
	}
}

func TestEndReturnsToIdleWithoutRevertingEffects(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, _, err := s.Submit(1, "8"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	view := s.End()
	if view.State != string(StateNotStarted) {
		t.Fatalf("expected not_started after end, got %s", view.State)
	}
	if view.Score != 1 {
		t.Fatalf("end must not revert the persisted score, got %d", view.Score)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewSession("u1", testBank(), nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, _, err := s.Submit(1, "9"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	snap := s.Snapshot()
	restored := Restore("u1", testBank(), &model.UserProgress{
		UserID:               "u1",
		QuestionsRepeatCount: map[string]int{"1": 1},
	}, snap)

	view := restored.View()
	if view.State != string(StateShowingResult) || view.CorrectAnswer != "8" {
		t.Fatalf("expected restored showing_result with revealed answer, got %+v", view)
	}
}
