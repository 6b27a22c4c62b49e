package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/model"
	"github.com/sakif/lms-server/internal/repository"
)

// Validation limits for instructor-created courses.
const (
	MaxCourseTitleLength = 200
	MaxSyllabusSections  = 50
)

// Enrollment response messages. The frontend matches on these strings, so
// they are constants rather than inline literals.
const (
	MsgEnrolled        = "Enrolled successfully"
	MsgAlreadyEnrolled = "Already enrolled"
)

// CourseService handles the course catalog and the enrollment operation.
type CourseService struct {
	courses repository.CourseRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

// NewCourseService creates a CourseService.
func NewCourseService(
	courses repository.CourseRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CourseService {
	return &CourseService{
		courses: courses,
		users:   users,
		logger:  logger,
	}
}

// List returns the full catalog.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/course: listing catalog: %w", err)
	}
	return courses, nil
}

// ListEnrolled returns the courses the given user is enrolled in.
func (s *CourseService) ListEnrolled(ctx context.Context, userID string) ([]model.Course, error) {
	courses, err := s.courses.ListEnrolled(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/course: listing enrolled courses for %s: %w", userID, err)
	}
	return courses, nil
}

// EnrollResult is what the enrollment endpoint returns. Success and
// already-enrolled share this shape; only Message and NewlyEnrolled differ.
type EnrollResult struct {
	Message         string
	Course          model.CourseRef
	EnrolledCourses []string
	// NewlyEnrolled is true for the single request (out of any number of
	// concurrent attempts) that actually performed the write.
	NewlyEnrolled bool
}

// Enroll adds courseID to userID's enrollment set at most once.
//
// The write is a single conditional insert at the storage layer (see
// sqlite.DB.Enroll) — never "read the list, check membership, append". When
// the insert reports no change, the reason is disambiguated with a user
// existence check: either the user vanished (NotFound, defensive — identity
// was just validated upstream) or the course was already in the set, which is
// a success from the caller's point of view. Repeating the call is therefore
// idempotent: same end state, success-shaped response both times.
func (s *CourseService) Enroll(ctx context.Context, userID, courseID string) (*EnrollResult, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/course: checking course %s: %w", courseID, err)
	}

	inserted, err := s.users.Enroll(ctx, userID, course.ID)
	if err != nil {
		return nil, fmt.Errorf("service/course: enrolling user %s in %s: %w", userID, course.ID, err)
	}

	if !inserted {
		exists, err := s.users.Exists(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("service/course: checking user %s: %w", userID, err)
		}
		if !exists {
			return nil, apperror.NotFound("User not found")
		}
	}

	enrolled, err := s.users.ListEnrollments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/course: listing enrollments for %s: %w", userID, err)
	}

	result := &EnrollResult{
		Course:          course.Ref(),
		EnrolledCourses: enrolled,
		NewlyEnrolled:   inserted,
	}
	if inserted {
		result.Message = MsgEnrolled
		s.logger.Info("user enrolled",
			slog.String("userID", userID),
			slog.String("courseID", course.ID),
		)
	} else {
		result.Message = MsgAlreadyEnrolled
	}

	return result, nil
}

// CreateCourseInput carries the fields an instructor supplies when authoring
// a course.
type CreateCourseInput struct {
	Title       string
	Category    string
	Level       string
	Thumbnail   string
	Description string
	Syllabus    []string
}

// Create adds a course to the catalog. The role gate (instructor only) is
// enforced by the router middleware; this method owns the field rules.
func (s *CourseService) Create(ctx context.Context, input CreateCourseInput) (*model.Course, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "Course title is required")
	}
	if len(title) > MaxCourseTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("Course title must be %d characters or fewer", MaxCourseTitleLength))
	}
	if len(input.Syllabus) > MaxSyllabusSections {
		return nil, apperror.ValidationFailed("syllabus",
			fmt.Sprintf("Syllabus must have %d sections or fewer", MaxSyllabusSections))
	}

	course := &model.Course{
		Title:       title,
		Category:    strings.TrimSpace(input.Category),
		Level:       strings.TrimSpace(input.Level),
		Thumbnail:   strings.TrimSpace(input.Thumbnail),
		Description: input.Description,
		Syllabus:    input.Syllabus,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/course: creating course: %w", err)
	}

	s.logger.Info("course created",
		slog.String("courseID", course.ID),
		slog.String("title", course.Title),
	)

	return course, nil
}
