package model

// MaxRepeatCount is the per-user repeat budget for a question. A
// question that was answered wrong or timed out this many times leaves
// the rotation without ever being marked complete.
const MaxRepeatCount = 2

// OptionCount is the fixed number of choices every question carries.
const OptionCount = 4

// Question is a single challenge item from the bank
type Question struct {
	ID            int      `json:"id" bson:"_id"`
	Prompt        string   `json:"prompt" bson:"prompt"`
	Options       []string `json:"options" bson:"options"`
	CorrectAnswer string   `json:"correctAnswer" bson:"correctAnswer"`
	Code          string   `json:"code,omitempty" bson:"code,omitempty"` // optional snippet shown verbatim
}

// PublicQuestion is the client-facing view of a question. The correct
// answer is stripped so it never travels to the client while the
// question is still open.
type PublicQuestion struct {
	ID      int      `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Code    string   `json:"code,omitempty"`
}

// Public strips the answer from a question
func (q *Question) Public() *PublicQuestion {
	return &PublicQuestion{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Options: q.Options,
		Code:    q.Code,
	}
}

// QuestionInput is the admin editing-panel payload for create/update
type QuestionInput struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Code          string   `json:"code,omitempty"`
}
