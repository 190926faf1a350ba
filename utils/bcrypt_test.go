package utils_test

import (
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/shop_backend/utils"
)

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := utils.HashPassword("supersecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashed == "supersecret" || !strings.HasPrefix(hashed, "$2") {
		t.Fatalf("expected a bcrypt hash, got %q", hashed)
	}

	if err := utils.ComparePassword(hashed, "supersecret"); err != nil {
		t.Fatalf("ComparePassword: %v", err)
	}
	if err := utils.ComparePassword(hashed, "wrongpassword"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
