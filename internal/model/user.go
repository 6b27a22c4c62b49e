// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain values with no behaviour
// attached beyond what the struct tags describe for serialization.
package model

import "time"

// Roles a user account can hold. The role is fixed at registration;
// there is no promotion path.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// ValidRole reports whether s is a role this application understands.
func ValidRole(s string) bool {
	return s == RoleStudent || s == RoleInstructor
}

// User represents a registered account.
//
// Email is the login key. It is stored trimmed and lowercased so lookups are
// case-insensitive, and carries a UNIQUE constraint in the database.
//
// PasswordHash is a bcrypt hash and must never appear in a response body —
// note the `json:"-"` tag. The salt and cost are embedded in the hash string
// itself, so no separate columns are needed.
//
// EnrolledCourses is semantically a set of course IDs. It is persisted as
// rows in the enrollments table (composite primary key user_id+course_id),
// which is what enforces the "at most once" contract; this slice is just the
// read-side projection attached when a handler needs to return it.
type User struct {
	ID              string    `json:"id"              db:"id"`
	Name            string    `json:"name"            db:"name"`
	Email           string    `json:"email"           db:"email"`
	PasswordHash    string    `json:"-"               db:"password_hash"`
	Role            string    `json:"role"            db:"role"`
	EnrolledCourses []string  `json:"enrolledCourses"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt"       db:"updated_at"`
}
