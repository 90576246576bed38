package model

// SubmitAnswerRequest is the body for answer submission
type SubmitAnswerRequest struct {
	QuestionID int    `json:"questionId"`
	Choice     string `json:"choice"`
}

// InterruptRequest carries the client-monotonic sequence number of an
// anti-cheat trigger (tab hidden, blur, page hide). Overlapping
// triggers reuse sequence numbers and collapse server-side.
type InterruptRequest struct {
	Seq int64 `json:"seq"`
}

// SessionView is the client-facing snapshot of a challenge session
type SessionView struct {
	State            string          `json:"state"`
	Question         *PublicQuestion `json:"question,omitempty"`
	Index            int             `json:"index"`
	Remaining        int             `json:"remaining"` // eligible questions left including current
	TimerSeconds     int             `json:"timerSeconds"`
	HasAnswered      bool            `json:"hasAnswered"`
	Score            int             `json:"score"`
	ScoreUnconfirmed bool            `json:"scoreUnconfirmed"`
	Outcome          string          `json:"outcome,omitempty"`       // "correct", "wrong", "timeout"
	CorrectAnswer    string          `json:"correctAnswer,omitempty"` // revealed only in ShowingResult
}
