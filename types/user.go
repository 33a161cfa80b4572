package types

import "time"

// User represents an account in the system.
// It contains identity, credential, throttle and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// FirstName is the user's given name.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"lastName" db:"last_name"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// Phone is the user's phone number, stored without spaces,
	// hyphens or parentheses.
	Phone string `json:"phone" db:"phone"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive is false for deactivated accounts, which cannot sign in.
	IsActive bool `json:"isActive" db:"is_active"`

	// LoginAttemptsCount is the number of consecutive failed password
	// checks since the last successful sign-in.
	LoginAttemptsCount int `json:"loginAttemptsCount" db:"login_attempts_count"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserInput is the payload accepted by registration and update endpoints.
// Empty fields are treated as "not supplied".
type UserInput struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Phone     string   `json:"phone"`
	Roles     []string `json:"roles"`
}

// UserPage is one page of a user listing.
type UserPage struct {
	TotalItems  int    `json:"totalItems"`
	Users       []User `json:"users"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}
