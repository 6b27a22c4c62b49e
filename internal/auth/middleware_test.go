package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo implements repository.UserRepository for middleware tests.
// touched records whether ANY method was called — used to prove that
// requests without credentials never reach the store.
type fakeUserRepo struct {
	users    map[string]*model.User
	failWith error
	touched  bool
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	m := make(map[string]*model.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.touched = true
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	f.touched = true
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.touched = true
	return nil, apperror.NotFound("User not found")
}

func (f *fakeUserRepo) Exists(ctx context.Context, id string) (bool, error) {
	f.touched = true
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) Enroll(ctx context.Context, userID, courseID string) (bool, error) {
	f.touched = true
	return false, nil
}

func (f *fakeUserRepo) ListEnrollments(ctx context.Context, userID string) ([]string, error) {
	f.touched = true
	return nil, nil
}

// runGate sends a request through RequireAuth with a recording inner handler
// and returns the recorder, whether the inner handler ran, and the Principal
// it observed.
func runGate(t *testing.T, repo *fakeUserRepo, mutate func(*http.Request)) (*httptest.ResponseRecorder, bool, Principal) {
	t.Helper()

	tokens := newTestTokenService(t)
	var called bool
	var seen Principal

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := RequireAuth(tokens, repo, testLogger())(inner)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec, called, seen
}

func responseMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

// =========================================================================
// CREDENTIAL EXTRACTION TESTS
// =========================================================================

func TestRequireAuth_NoCredentials(t *testing.T) {
	repo := newFakeUserRepo()

	rec, called, _ := runGate(t, repo, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := responseMessage(t, rec); got != "No token, authorization denied" {
		t.Errorf("message = %q", got)
	}
	if called {
		t.Error("inner handler ran without credentials")
	}
	if repo.touched {
		t.Error("store was touched for a credential-less request")
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	repo := newFakeUserRepo()

	rec, called, _ := runGate(t, repo, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-real-token")
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := responseMessage(t, rec); got != "Token is not valid" {
		t.Errorf("message = %q", got)
	}
	if called || repo.touched {
		t.Error("invalid token must stop the chain before the store")
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	tokens := newTestTokenService(t)
	expired, _ := tokens.IssueWithTTL("user-1", "student", -time.Minute)

	rec, _, _ := runGate(t, repo, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+expired)
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := responseMessage(t, rec); got != "Token is not valid" {
		t.Errorf("message = %q", got)
	}
}

func TestRequireAuth_TokenWithoutSubject(t *testing.T) {
	repo := newFakeUserRepo()
	token := signRawClaims(t, map[string]any{
		"role": "student",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, _, _ := runGate(t, repo, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := responseMessage(t, rec); got != "Token payload invalid" {
		t.Errorf("message = %q", got)
	}
	if repo.touched {
		t.Error("store was touched for a subject-less token")
	}
}

func TestRequireAuth_UserDeleted(t *testing.T) {
	repo := newFakeUserRepo() // empty: token subject has no row
	tokens := newTestTokenService(t)
	token, _ := tokens.Issue("ghost", "student")

	rec, called, _ := runGate(t, repo, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := responseMessage(t, rec); got != "User not found" {
		t.Errorf("message = %q", got)
	}
	if called {
		t.Error("inner handler ran for a deleted user")
	}
}

func TestRequireAuth_StoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.failWith = errors.New("sqlite: disk I/O error")
	tokens := newTestTokenService(t)
	token, _ := tokens.Issue("user-1", "student")

	rec, called, _ := runGate(t, repo, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	// The underlying failure must never reach the client.
	if got := responseMessage(t, rec); got != "An internal error occurred" {
		t.Errorf("message = %q leaks internals", got)
	}
	if called {
		t.Error("inner handler ran despite store failure")
	}
}

// =========================================================================
// SUCCESS PATH TESTS
// =========================================================================

func TestRequireAuth_BearerHeader(t *testing.T) {
	user := &model.User{ID: "user-1", Role: "student", Email: "a@x.com", Name: "A"}
	repo := newFakeUserRepo(user)
	tokens := newTestTokenService(t)
	token, _ := tokens.Issue(user.ID, user.Role)

	rec, called, seen := runGate(t, repo, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !called {
		t.Fatal("inner handler did not run")
	}
	want := Principal{UserID: "user-1", Role: "student", Email: "a@x.com"}
	if seen != want {
		t.Errorf("principal = %+v, want %+v", seen, want)
	}
}

func TestRequireAuth_CookieFallback(t *testing.T) {
	user := &model.User{ID: "user-2", Role: "instructor", Email: "b@x.com"}
	repo := newFakeUserRepo(user)
	tokens := newTestTokenService(t)
	token, _ := tokens.Issue(user.ID, user.Role)

	rec, called, seen := runGate(t, repo, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	})

	if rec.Code != http.StatusOK || !called {
		t.Fatalf("status = %d, called = %v", rec.Code, called)
	}
	if seen.UserID != "user-2" {
		t.Errorf("principal UserID = %q, want user-2", seen.UserID)
	}
}

func TestRequireAuth_HeaderTakesPrecedenceOverCookie(t *testing.T) {
	user := &model.User{ID: "user-3", Role: "student", Email: "c@x.com"}
	repo := newFakeUserRepo(user)
	tokens := newTestTokenService(t)
	good, _ := tokens.Issue(user.ID, user.Role)

	// Valid cookie, garbage header: the header wins, so the request fails.
	rec, called, _ := runGate(t, repo, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer garbage")
		r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: good})
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 (header must take precedence)", rec.Code)
	}
	if called {
		t.Error("inner handler ran")
	}
}

// =========================================================================
// ROLE GATE TESTS
// =========================================================================

func TestRequireRole(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gate := RequireRole(model.RoleInstructor)(inner)

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses", nil)
		ctx := ContextWithPrincipal(req.Context(), Principal{UserID: "u1", Role: model.RoleStudent})
		rec := httptest.NewRecorder()

		gate.ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		if got := responseMessage(t, rec); got != "Forbidden" {
			t.Errorf("message = %q, want Forbidden", got)
		}
	})

	t.Run("matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses", nil)
		ctx := ContextWithPrincipal(req.Context(), Principal{UserID: "u2", Role: model.RoleInstructor})
		rec := httptest.NewRecorder()

		gate.ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("no principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses", nil)
		rec := httptest.NewRecorder()

		gate.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
