package repository

import (
	"context"

	"github.com/sakif/lms-server/internal/model"
)

// UserRepository is the credential store. Implementations must enforce email
// uniqueness (case-insensitive; callers pass normalized emails) and the
// enrollment set contract: Enroll is a single atomic conditional write, never
// a read-then-write.
type UserRepository interface {
	// CreateUser persists a new user. Returns apperror.ErrConflict if the
	// email is already registered.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// Exists reports whether a user row is present, without loading it.
	Exists(ctx context.Context, id string) (bool, error)
	// Enroll atomically adds courseID to the user's enrollment set if and
	// only if it is not already present. Returns true when this call
	// performed the insert, false when the set already contained the course.
	Enroll(ctx context.Context, userID, courseID string) (bool, error)
	// ListEnrollments returns the user's enrolled course IDs.
	ListEnrollments(ctx context.Context, userID string) ([]string, error)
}

// CourseRepository is the course catalog.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	// ListEnrolled returns the full course records the user is enrolled in.
	ListEnrolled(ctx context.Context, userID string) ([]model.Course, error)
}
