package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/auth"
	"github.com/sakif/lms-server/internal/service"
)

// CookieConfig controls the HttpOnly token cookie set on login/register.
// Secure should be true behind HTTPS (production); the TTL matches the token
// lifetime so the cookie and the JWT inside it expire together.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

// AuthHandler manages registration, login, logout, and the profile endpoint.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
	cookies  CookieConfig
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(authSvc *service.AuthService, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authSvc,
		validate: validator.New(),
		cookies:  cookies,
		logger:   logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"omitempty,oneof=student instructor"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// authResponse is the body for successful register/login calls. The token is
// returned in the body for API clients; browser clients get it as a cookie
// at the same time.
type authResponse struct {
	User  any    `json:"user"`
	Token string `json:"token"`
}

// profileResponse is the password-free projection returned by /auth/me.
type profileResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /auth/register
// BODY: {"name": "...", "email": "...", "password": "...", "role": "student"?}
//
// 201 with {user, token} on success; 400 on missing/malformed fields;
// 409 if the email is already registered.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "Invalid JSON body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, registerValidationError(err))
		return
	}

	result, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("register failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, authResponse{User: result.User, Token: result.Token})
}

// HandleLogin verifies credentials and issues a token.
//
// HTTP: POST /auth/login
// BODY: {"email": "...", "password": "..."}
//
// 200 with {user, token}; 400 if a field is missing; 401 "Invalid
// credentials" for unknown email OR wrong password — deliberately the same
// message for both.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "Invalid JSON body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("", "Email and password required"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("login failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{User: result.User, Token: result.Token})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /auth/me
// Auth: required — RequireAuth has already established the Principal.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't assume.
		writeError(w, apperror.Unauthenticated("No token, authorization denied"))
		return
	}

	user, err := h.auth.GetProfile(r.Context(), p.UserID)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("profile lookup failed",
				slog.String("userID", p.UserID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// HandleLogout clears the token cookie. The JWT itself stays valid until it
// expires (stateless tokens have no revocation); logout just removes the
// browser's copy.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookies.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// registerValidationError turns validator output into the API's stable
// messages: missing required fields keep the long-standing combined message;
// format failures name the field.
func registerValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			switch {
			case fe.Tag() == "required":
				return apperror.ValidationFailed("", "Name, email and password are required")
			case fe.Field() == "Email":
				return apperror.ValidationFailed("email", "Email must be a valid email address")
			case fe.Field() == "Role":
				return apperror.ValidationFailed("role", "Role must be student or instructor")
			}
		}
	}
	return apperror.ValidationFailed("", "Invalid request body")
}

// isClientError reports whether err is an expected 4xx-class domain error,
// as opposed to an internal failure worth a server-side error log.
func isClientError(err error) bool {
	return errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrUnauthenticated) ||
		errors.Is(err, apperror.ErrForbidden) ||
		errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrConflict)
}
