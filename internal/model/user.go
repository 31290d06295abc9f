package model

import (
	"strings"
	"time"
)

// Roles stored in users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account as stored in the `users` table.  The
// password hash never leaves the repository and handler layers.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash of the password.
//  Phone        – contact number.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Requester identifies who is acting on a request.  Guests have a nil
// UserID and are recognised by email alone; authenticated users carry
// both.  Voucher usage and reservation lookups match on either.
type Requester struct {
	UserID *uint64
	Email  string
	Role   string
}

// Guest returns a Requester for an unauthenticated caller.
func Guest(email string) Requester {
	return Requester{Email: NormalizeEmail(email)}
}

// Authenticated reports whether the requester has a user account.
func (r Requester) Authenticated() bool { return r.UserID != nil }

// WithEmail returns a copy whose email is replaced when e is not blank.
func (r Requester) WithEmail(e string) Requester {
	if e = NormalizeEmail(e); e != "" {
		r.Email = e
	}
	return r
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
