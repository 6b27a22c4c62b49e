package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/model"
	"github.com/sakif/lms-server/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user row. The caller provides Name, Email (already
// normalized), PasswordHash, and Role; ID and timestamps are assigned here.
//
// A duplicate email trips the UNIQUE COLLATE NOCASE constraint and is mapped
// to apperror.ErrConflict — the database, not application code, is the
// arbiter of uniqueness under concurrent registrations.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleStudent
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Email is already registered")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	user.EnrolledCourses = []string{}
	return nil
}

// GetUserByID retrieves a user by internal ID, enrollment list included.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email. The email column is COLLATE
// NOCASE, so the match is case-insensitive regardless of caller normalization.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	enrolled, err := db.ListEnrollments(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.EnrolledCourses = enrolled

	return &u, nil
}

// Exists reports whether a user row is present without loading it.
func (db *DB) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE id = ?`, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user %s: %w", id, err)
	}
	return true, nil
}

// Enroll adds courseID to the user's enrollment set at most once.
//
// This is a single conditional write: INSERT OR IGNORE either inserts the
// (user_id, course_id) row or, if the composite primary key already holds it,
// does nothing. Two concurrent calls for the same pair cannot both insert —
// the storage layer serializes them and the second sees zero rows affected.
// There is deliberately no "SELECT first, then INSERT" step anywhere in this
// path; that variant loses the race between check and write.
//
// A foreign-key violation (the user row vanished, or the course was never
// created) also reports false with no error, mirroring "matched no document":
// the caller disambiguates with Exists, the same follow-up it needs for the
// already-enrolled case.
func (db *DB) Enroll(ctx context.Context, userID, courseID string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO enrollments (user_id, course_id, enrolled_at)
		 VALUES (?, ?, ?)`,
		userID, courseID, time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("sqlite: enrolling user %s in course %s: %w", userID, courseID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading enroll result: %w", err)
	}
	return rows == 1, nil
}

// ListEnrollments returns the user's enrolled course IDs, oldest first.
func (db *DB) ListEnrollments(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT course_id FROM enrollments WHERE user_id = ? ORDER BY enrolled_at, course_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing enrollments for user %s: %w", userID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning enrollment: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating enrollments: %w", err)
	}

	return ids, nil
}

// modernc.org/sqlite reports constraint failures through the error text.
// Matching on the constraint class keeps us off driver-internal error codes.

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
