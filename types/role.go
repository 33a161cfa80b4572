package types

import "time"

// Role is a named group of users, e.g. "user", "moderator" or "admin".
type Role struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// RoleInput is the payload accepted by role create and update endpoints.
type RoleInput struct {
	Name string `json:"name"`
}

// RolePage is one page of a role listing.
type RolePage struct {
	TotalItems  int    `json:"totalItems"`
	Roles       []Role `json:"roles"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}

// PageQuery carries the raw listing parameters. Page is zero based.
type PageQuery struct {
	Page   int
	Size   int
	Search string
}
