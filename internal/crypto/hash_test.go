package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher() unexpected error: %v", err)
	}
	return h
}

func TestNewHasherRejectsBadCost(t *testing.T) {
	for _, cost := range []int{0, bcrypt.MinCost - 1, bcrypt.MaxCost + 1} {
		if _, err := NewHasher(cost); err != ErrInvalidCost {
			t.Errorf("NewHasher(%d) error = %v, want %v", cost, err, ErrInvalidCost)
		}
	}
}

func TestHashPassword(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("HashPassword() = %q, want bcrypt $2a$ prefix", hash)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() unexpected error: %v", err)
	}
	if cost != h.Cost() {
		t.Errorf("hash cost = %d, want %d", cost, h.Cost())
	}
}

func TestVerifyPasswordCorrect(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.HashPassword("my-secure-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	match, err := h.VerifyPassword("my-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if !match {
		t.Error("VerifyPassword() returned false for correct password")
	}
}

func TestVerifyPasswordWrong(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	match, err := h.VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if match {
		t.Error("VerifyPassword() returned true for wrong password")
	}
}

func TestHashPasswordProducesDifferentHashes(t *testing.T) {
	h := newTestHasher(t)

	hash1, err := h.HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	hash2, err := h.HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	if hash1 == hash2 {
		t.Error("HashPassword() produced identical hashes for same password (salt should differ)")
	}
}

func TestVerifyPasswordInvalidHash(t *testing.T) {
	h := newTestHasher(t)
	if _, err := h.VerifyPassword("password", "invalid-hash-format"); err == nil {
		t.Error("VerifyPassword() expected error for invalid hash format")
	}
}

func TestNewVerificationToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewVerificationToken()
		if err != nil {
			t.Fatalf("NewVerificationToken() unexpected error: %v", err)
		}
		if len(tok) != VerificationTokenBytes*2 {
			t.Errorf("token length = %d, want %d", len(tok), VerificationTokenBytes*2)
		}
		if strings.Trim(tok, "0123456789abcdef") != "" {
			t.Errorf("token %q is not lowercase hex", tok)
		}
		if seen[tok] {
			t.Errorf("duplicate token generated: %q", tok)
		}
		seen[tok] = true
	}
}
