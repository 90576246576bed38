package model

import "time"

// Role gates access to the admin surfaces
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
)

// CanEditQuestions reports whether the role may use the editing panel
func (r Role) CanEditQuestions() bool {
	return r == RoleAdmin || r == RoleOwner
}

// User is a platform profile record
type User struct {
	ID        string    `json:"id" bson:"_id"`
	FullName  string    `json:"fullName" bson:"fullName"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role" bson:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	Language  string    `json:"language" bson:"language"` // "ar" or "en"
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
