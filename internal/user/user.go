// Package user defines the user model used throughout the application,
// particularly for authentication and photo ownership.
package user

import "time"

// User represents a registered account.
// Photos are associated with a user through their ID, never through
// an embedded list, so concurrent uploads by one user cannot collide.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	// Email is unique across all users and is used for signin.
	Email string

	// Username is the display name shown in listings.
	Username string

	// PasswordHash is a bcrypt hash of the signup password.
	// It never leaves the storage layer in responses.
	PasswordHash string

	CreatedAt time.Time
}
