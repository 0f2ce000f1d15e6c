package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
}

// Comment belongs to exactly one recipe. Comments are append-only; there is
// no edit or delete path.
type Comment struct {
	ID        string
	RecipeID  string
	Author    string
	Text      string
	CreatedAt time.Time
}
