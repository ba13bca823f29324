package security_test

import (
	"strings"
	"testing"

	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/security"
)

func fastParams() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestAdminPasswordRoundTrip(t *testing.T) {
	hash, err := security.HashPassword("front-desk-2024", fastParams())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash layout %q", hash)
	}

	ok, err := security.VerifyPassword("front-desk-2024", hash)
	if err != nil || !ok {
		t.Fatalf("expected password to verify, ok=%v err=%v", ok, err)
	}
	ok, err = security.VerifyPassword("front-desk-2025", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for wrong password: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", fastParams()); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{"not-a-hash", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA"} {
		if _, err := security.VerifyPassword("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(20)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if len(pw) != 20 {
		t.Fatalf("expected 20 characters, got %d", len(pw))
	}
	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected zero length to fail")
	}
}
