package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/model"
	"github.com/sakif/lms-server/internal/repository"
)

// compile-time check that *DB implements repository.CourseRepository
var _ repository.CourseRepository = (*DB)(nil)

const courseColumns = `id, title, category, level, thumbnail, description, syllabus, created_at, updated_at`

// Create inserts a course. An empty ID gets a generated one; seeded catalog
// entries keep their well-known IDs (c101, c102, ...).
func (db *DB) Create(ctx context.Context, course *model.Course) error {
	now := time.Now().UTC()
	if course.ID == "" {
		course.ID = xid.New().String()
	}
	course.CreatedAt = now
	course.UpdatedAt = now

	syllabus, err := encodeSyllabus(course.Syllabus)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO courses (`+courseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.ID,
		course.Title,
		course.Category,
		course.Level,
		course.Thumbnail,
		course.Description,
		syllabus,
		course.CreatedAt,
		course.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Course ID already exists")
		}
		return fmt.Errorf("sqlite: inserting course %s: %w", course.ID, err)
	}

	return nil
}

// GetByID retrieves a single course.
// Returns apperror.ErrNotFound if no course exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Course, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = ?`, id,
	)

	course, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Course not found")
		}
		return nil, fmt.Errorf("sqlite: getting course %s: %w", id, err)
	}
	return course, nil
}

// List returns the full catalog, stable by ID so the seeded demo courses come
// out in their c101..c110 order.
func (db *DB) List(ctx context.Context) ([]model.Course, error) {
	return db.queryCourses(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY id`)
}

// ListEnrolled returns the courses the user is enrolled in, in enrollment
// order. Joining through the enrollments table is the per-user replacement
// for keeping an "enrolled courses" list in process memory.
func (db *DB) ListEnrolled(ctx context.Context, userID string) ([]model.Course, error) {
	return db.queryCourses(ctx,
		`SELECT c.id, c.title, c.category, c.level, c.thumbnail, c.description,
		        c.syllabus, c.created_at, c.updated_at
		 FROM courses c
		 JOIN enrollments e ON e.course_id = c.id
		 WHERE e.user_id = ?
		 ORDER BY e.enrolled_at, c.id`,
		userID)
}

func (db *DB) queryCourses(ctx context.Context, query string, args ...any) ([]model.Course, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning course: %w", err)
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating courses: %w", err)
	}

	return courses, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(s scanner) (*model.Course, error) {
	var c model.Course
	var syllabus string

	err := s.Scan(
		&c.ID,
		&c.Title,
		&c.Category,
		&c.Level,
		&c.Thumbnail,
		&c.Description,
		&syllabus,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(syllabus), &c.Syllabus); err != nil {
		return nil, fmt.Errorf("decoding syllabus for course %s: %w", c.ID, err)
	}
	return &c, nil
}

func encodeSyllabus(syllabus []string) (string, error) {
	if syllabus == nil {
		syllabus = []string{}
	}
	raw, err := json.Marshal(syllabus)
	if err != nil {
		return "", fmt.Errorf("encoding syllabus: %w", err)
	}
	return string(raw), nil
}
