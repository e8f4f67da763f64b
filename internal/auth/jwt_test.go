package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	return ts
}

// ============================================================
// Construction
// ============================================================

func TestNewTokenService_SecretLength(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("secret under 16 chars accepted")
	}
	if _, err := NewTokenService("this-is-16-chars"); err != nil {
		t.Errorf("16-char secret rejected: %v", err)
	}
}

// ============================================================
// Generate / Validate
// ============================================================

func TestGenerate_JWTShape(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// header.payload.signature
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("token has %d segments, want 3: %q", len(parts), token)
	}
}

func TestGenerate_TokensDifferPerUser(t *testing.T) {
	ts := newTestTokenService(t)

	token1, err := ts.Generate("user-aaa")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	token2, err := ts.Generate("user-bbb")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if token1 == token2 {
		t.Error("identical tokens for different user IDs")
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-abc-123")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got != "user-abc-123" {
		t.Errorf("Validate returned %q, want user-abc-123", got)
	}
}

func TestValidate_Rejections(t *testing.T) {
	ts := newTestTokenService(t)

	t.Run("expired token", func(t *testing.T) {
		token, err := ts.GenerateWithDuration("user-123", -time.Second)
		if err != nil {
			t.Fatalf("GenerateWithDuration failed: %v", err)
		}
		if _, err := ts.Validate(token); err == nil {
			t.Error("expired token validated")
		}
	})

	t.Run("tampered signature", func(t *testing.T) {
		token, err := ts.Generate("user-123")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		tampered := token[:len(token)-3] + "xxx"
		if _, err := ts.Validate(tampered); err == nil {
			t.Error("tampered token validated")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenService("a-completely-different-secret!!!")
		if err != nil {
			t.Fatalf("NewTokenService failed: %v", err)
		}
		token, err := ts.Generate("user-123")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := other.Validate(token); err == nil {
			t.Error("token signed with another secret validated")
		}
	})

	t.Run("empty string", func(t *testing.T) {
		if _, err := ts.Validate(""); err == nil {
			t.Error("empty token validated")
		}
	})

	t.Run("garbage string", func(t *testing.T) {
		if _, err := ts.Validate("not.a.jwt.token"); err == nil {
			t.Error("garbage token validated")
		}
	})
}

func TestGenerateWithDuration_FutureToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("user-123", time.Hour)
	if err != nil {
		t.Fatalf("GenerateWithDuration failed: %v", err)
	}

	userID, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Validate returned %q, want user-123", userID)
	}
}
