// Package auth provides JWT token generation and validation for the LMS API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User registers or logs in with email + password
// 2. Server issues a signed JWT carrying the user ID and role
// 3. The client sends it back as "Authorization: Bearer <token>" (or the
//    server-set HttpOnly "token" cookie for browser clients)
// 4. RequireAuth validates the token, loads the user, and puts a normalized
//    Identity into the request context
//
// JWT is stateless — the server stores no session data. All the information
// needed (user ID, role, expiry) is inside the signed token, and the HMAC
// signature ensures nobody can tamper with it without the secret key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures, classified. The HTTP layer treats them all the same
// way (401), but callers and tests can tell them apart with errors.Is.
var (
	// ErrTokenExpired means the signature was fine but the token's lifetime
	// has elapsed.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenSignature means the token was signed with a different secret
	// or the payload was altered after signing.
	ErrTokenSignature = errors.New("auth: token signature invalid")
	// ErrTokenMalformed covers everything that isn't a well-formed token for
	// this service: garbage strings, wrong algorithm, broken encoding.
	ErrTokenMalformed = errors.New("auth: token malformed")
	// ErrTokenNoSubject means the token verified but carries no user ID under
	// any recognized field name (sub, userId, id). Kept separate from
	// ErrTokenMalformed so the middleware can report it distinctly.
	ErrTokenNoSubject = errors.New("auth: token has no subject")
)

const issuer = "lms-server"

// Identity is the canonical verified-token payload. Whatever shape the token
// arrived in, verification normalizes to this before any further logic sees it.
type Identity struct {
	UserID string
	Role   string
}

// TokenService issues and verifies signed identity tokens.
//
// It holds the HMAC secret key used to sign and verify tokens, plus the TTL
// applied to newly issued ones. It performs no I/O — issue and verify are
// pure functions of the secret and the payload.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and default
// token lifetime. The secret should be at least 32 bytes of random data in
// production; anything under 16 is rejected outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload.
//
// New tokens carry the user ID in the registered "sub" claim and the role in
// a custom "role" claim. Older issuing paths put the user ID in "userId" or
// "id" instead — those fields exist here only so Verify can still read tokens
// minted before the claim shape was settled. Issue never sets them.
type claims struct {
	Role         string `json:"role,omitempty"`
	LegacyUserID string `json:"userId,omitempty"`
	LegacyID     string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// subject returns the user ID under whichever field name it was issued with,
// in order of precedence: sub, userId, id.
func (c *claims) subject() string {
	switch {
	case c.Subject != "":
		return c.Subject
	case c.LegacyUserID != "":
		return c.LegacyUserID
	default:
		return c.LegacyID
	}
}

// Issue creates and signs a JWT for the given user with the service's
// default TTL.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key for signing
// and verifying, which suits a single-service deployment.
func (s *TokenService) Issue(userID, role string) (string, error) {
	return s.IssueWithTTL(userID, role, s.ttl)
}

// IssueWithTTL creates a token with an explicit lifetime. Used by tests to
// mint already-expired tokens; production code goes through Issue.
func (s *TokenService) IssueWithTTL(userID, role string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user ID must not be empty")
	}
	now := time.Now()

	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a JWT string, returning the normalized Identity.
//
// Checks performed (mostly by the jwt library):
//   - Signature is valid for our secret
//   - Token is not expired, and an expiry is present at all
//   - Algorithm is HS256 — jwt.WithValidMethods prevents algorithm
//     confusion attacks (e.g. a token claiming "none")
//
// Errors are classified as ErrTokenExpired, ErrTokenSignature, or
// ErrTokenMalformed so callers can distinguish them; all three mean "reject".
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		default:
			return Identity{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: unreadable claims", ErrTokenMalformed)
	}

	userID := c.subject()
	if userID == "" {
		return Identity{}, ErrTokenNoSubject
	}

	return Identity{UserID: userID, Role: c.Role}, nil
}
