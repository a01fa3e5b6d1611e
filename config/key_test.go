package config

import "testing"

// These run without a database: the config package must not dial Mongo at
// import time, only on first OpenCollection call.

func TestGenerateRandomKeyPrefersEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "configured-secret")
	if got := GenerateRandomKey(); got != "configured-secret" {
		t.Errorf("GenerateRandomKey() = %q, want the JWT_SECRET value", got)
	}
}

func TestGenerateRandomKeyFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	a := GenerateRandomKey()
	b := GenerateRandomKey()
	if len(a) != 64 {
		t.Errorf("expected 32 random bytes hex-encoded (64 chars), got %d", len(a))
	}
	if a == b {
		t.Error("two generated keys should not collide")
	}
}
