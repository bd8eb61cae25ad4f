package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	hasher := NewBcryptHasher(0)
	if hasher.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost %d, got %d", bcrypt.DefaultCost, hasher.cost)
	}
}

func TestNewBcryptHasher_CustomCost(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	if hasher.cost != bcrypt.MinCost {
		t.Fatalf("expected cost %d, got %d", bcrypt.MinCost, hasher.cost)
	}
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal plain password")
	}
	if err := hasher.Compare(hash, "s3cret"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}
}

func TestBcryptHasher_CompareWrongPassword(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if err := hasher.Compare(hash, "other"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestBcryptHasher_Hasherror(t *testing.T) {
	hasher := &BcryptHasher{cost: bcrypt.MaxCost + 1}
	if _, err := hasher.Hash("s3cret"); err == nil {
		t.Fatal("expected error for invalid cost")
	}
}
