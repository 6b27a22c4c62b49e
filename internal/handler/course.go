package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/auth"
	"github.com/sakif/lms-server/internal/model"
	"github.com/sakif/lms-server/internal/service"
)

// CourseHandler manages the catalog and enrollment endpoints.
type CourseHandler struct {
	courses  *service.CourseService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(courses *service.CourseService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		validate: validator.New(),
		logger:   logger,
	}
}

// enrollResponse mirrors the historical enrollment payload: a message, the
// course reference, and the caller's full enrollment list.
type enrollResponse struct {
	Message         string          `json:"message"`
	Course          model.CourseRef `json:"course"`
	EnrolledCourses []string        `json:"enrolledCourses"`
}

// HandleList returns the whole catalog.
//
// HTTP: GET /courses
func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		h.logger.Error("listing courses failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// HandleListEnrolled returns the authenticated user's enrolled courses.
//
// HTTP: GET /courses/enrolled
// Auth: required
func (h *CourseHandler) HandleListEnrolled(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("No token, authorization denied"))
		return
	}

	courses, err := h.courses.ListEnrolled(r.Context(), p.UserID)
	if err != nil {
		h.logger.Error("listing enrolled courses failed",
			slog.String("userID", p.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// HandleEnroll enrolls the authenticated user in a course.
//
// HTTP: POST /courses/enroll/{courseID}
// Auth: required
//
// Enrolling twice is not an error: the second call answers 200 with
// "Already enrolled" and the unchanged enrollment list. 404 if the course
// (or, defensively, the user) no longer exists.
func (h *CourseHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("No token, authorization denied"))
		return
	}

	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		writeError(w, apperror.ValidationFailed("courseID", "Course ID is required"))
		return
	}

	result, err := h.courses.Enroll(r.Context(), p.UserID, courseID)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("enrollment failed",
				slog.String("userID", p.UserID),
				slog.String("courseID", courseID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, enrollResponse{
		Message:         result.Message,
		Course:          result.Course,
		EnrolledCourses: result.EnrolledCourses,
	})
}

type createCourseRequest struct {
	Title       string   `json:"title"       validate:"required"`
	Category    string   `json:"category"`
	Level       string   `json:"level"`
	Thumbnail   string   `json:"thumbnail"   validate:"omitempty,url"`
	Description string   `json:"description"`
	Syllabus    []string `json:"syllabus"`
}

// HandleCreate adds a course to the catalog.
//
// HTTP: POST /courses
// Auth: required, instructor role (enforced by RequireRole in the router)
func (h *CourseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "Invalid JSON body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, createCourseValidationError(err))
		return
	}

	course, err := h.courses.Create(r.Context(), service.CreateCourseInput{
		Title:       req.Title,
		Category:    req.Category,
		Level:       req.Level,
		Thumbnail:   req.Thumbnail,
		Description: req.Description,
		Syllabus:    req.Syllabus,
	})
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("course creation failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, course)
}

func createCourseValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Title":
				return apperror.ValidationFailed("title", "Course title is required")
			case "Thumbnail":
				return apperror.ValidationFailed("thumbnail", "Thumbnail must be a valid URL")
			}
		}
	}
	return apperror.ValidationFailed("", "Invalid request body")
}
