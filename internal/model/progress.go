package model

import (
	"strconv"
	"time"
)

// QuestionKey renders a question id as the string key used inside
// questionsRepeatCount (the document store stores map keys as strings).
func QuestionKey(id int) string {
	return strconv.Itoa(id)
}

// UserProgress is the durable per-user challenge record. It is the
// only state shared across devices; bson field names are part of the
// external document-store contract and must not change.
type UserProgress struct {
	UserID               string         `json:"userId" bson:"_id"`
	ChallengeScore       int            `json:"challengeScore" bson:"challengeScore"`
	CompletedChallenges  []int          `json:"completedChallenges" bson:"completedChallenges"`
	QuestionsRepeatCount map[string]int `json:"questionsRepeatCount" bson:"questionsRepeatCount"`
	LastUpdated          string         `json:"lastUpdated" bson:"lastUpdated"` // ISO-8601
}

// NewUserProgress returns the record created on a user's first
// challenge interaction.
func NewUserProgress(userID string) *UserProgress {
	return &UserProgress{
		UserID:               userID,
		ChallengeScore:       0,
		CompletedChallenges:  []int{},
		QuestionsRepeatCount: map[string]int{},
		LastUpdated:          time.Now().UTC().Format(time.RFC3339),
	}
}

// IsCompleted reports whether a question id has been retired for this user
func (p *UserProgress) IsCompleted(questionID int) bool {
	for _, id := range p.CompletedChallenges {
		if id == questionID {
			return true
		}
	}
	return false
}

// RepeatsFor returns the per-user repeat count for a question id
func (p *UserProgress) RepeatsFor(questionID int) int {
	if p.QuestionsRepeatCount == nil {
		return 0
	}
	return p.QuestionsRepeatCount[QuestionKey(questionID)]
}
