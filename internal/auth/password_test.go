package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Cost 4 (the bcrypt minimum) keeps each hash near-instant in tests.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secret1" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "secret1"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("secret1")

	if err := ps.Verify(hash, "not-the-password"); err == nil {
		t.Fatal("Verify() should fail for a wrong password")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	ps := newTestPasswordService()

	// Same password twice must produce different hashes — the random salt
	// is embedded per hash.
	h1, _ := ps.Hash("same-password")
	h2, _ := ps.Hash("same-password")

	if h1 == h2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
	if err := ps.Verify(h1, "same-password"); err != nil {
		t.Errorf("Verify(h1) error = %v", err)
	}
	if err := ps.Verify(h2, "same-password"); err != nil {
		t.Errorf("Verify(h2) error = %v", err)
	}
}

func TestHash_TooLong(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt silently truncates past 72 bytes; we reject instead.
	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("Hash() should reject passwords longer than 72 bytes")
	}
}

func TestDefaultCost(t *testing.T) {
	ps := NewPasswordService()

	hash, err := ps.Hash("check-cost")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != defaultCost {
		t.Errorf("stored hash cost = %d, want %d", cost, defaultCost)
	}
}
