// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services enforce the rules;
// repositories talk to the database. Services accept primitives and return
// domain errors (apperror), never HTTP types or status codes — the handler
// layer owns that translation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/auth"
	"github.com/sakif/lms-server/internal/model"
	"github.com/sakif/lms-server/internal/repository"
)

// AuthService handles registration, login, and profile lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and write the response body in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// NormalizeEmail applies the canonical email normalization: trim whitespace,
// lowercase. Applied before every store lookup and before persistence, so
// "ALICE@x.com " and "alice@x.com" are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account and issues a token for it.
//
// Rules:
//   - name, email, password are required
//   - email is normalized before the uniqueness check; a duplicate is a
//     Conflict (the store enforces it, so concurrent registrations for the
//     same email cannot both win)
//   - role defaults to student; only student/instructor are accepted
//   - the password is bcrypt-hashed before anything is persisted
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Name, email and password are required")
	}
	if role == "" {
		role = model.RoleStudent
	}
	if !model.ValidRole(role) {
		return nil, apperror.ValidationFailed("role", "Role must be student or instructor")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user (email=%s): %w", email, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", user.Role),
	)

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token.
//
// Both failure modes — unknown email and wrong password — return the same
// "Invalid credentials" error so a caller cannot probe which emails are
// registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Email and password required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("Invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetProfile returns the account for the given internal ID. Used by the
// /auth/me handler after the middleware has established identity.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return user, nil
}
