package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.SessionTTL != "24h" {
		t.Errorf("SessionTTL = %q, want %q", cfg.SessionTTL, "24h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.AdminAPIKey != "" {
		t.Error("AdminAPIKey should default to empty")
	}
	if cfg.LoginRatePerMin != 10 {
		t.Errorf("LoginRatePerMin = %d, want 10", cfg.LoginRatePerMin)
	}
	if cfg.LoginBurst != 5 {
		t.Errorf("LoginBurst = %d, want 5", cfg.LoginBurst)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("SESSION_TTL", "1h")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("ADMIN_API_KEY", "test-elevated-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.SessionTTL != "1h" {
		t.Errorf("SessionTTL = %q, want %q", cfg.SessionTTL, "1h")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.AdminAPIKey != "test-elevated-key" {
		t.Errorf("AdminAPIKey = %q, want %q", cfg.AdminAPIKey, "test-elevated-key")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for BCRYPT_COST=99")
	}
}

func TestLoad_InvalidSessionTTL(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("SESSION_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for SESSION_TTL=soon")
	}
}

func TestLoad_InvalidRequestTimeout(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("REQUEST_TIMEOUT", "-5s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for REQUEST_TIMEOUT=-5s")
	}
}

func TestLoad_InvalidReconcileInterval(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("RECONCILE_INTERVAL", "often")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for RECONCILE_INTERVAL=often")
	}
}

func TestSessionTTLDuration(t *testing.T) {
	cfg := &Config{SessionTTL: "30m"}
	if got := cfg.SessionTTLDuration(); got != 30*time.Minute {
		t.Errorf("SessionTTLDuration = %v, want 30m", got)
	}

	cfg = &Config{SessionTTL: "not-a-duration"}
	if got := cfg.SessionTTLDuration(); got != 24*time.Hour {
		t.Errorf("SessionTTLDuration fallback = %v, want 24h", got)
	}
}

func TestReconcileIntervalDuration(t *testing.T) {
	cfg := &Config{}
	if got := cfg.ReconcileIntervalDuration(); got != 0 {
		t.Errorf("ReconcileIntervalDuration unset = %v, want 0", got)
	}

	cfg = &Config{ReconcileInterval: "10m"}
	if got := cfg.ReconcileIntervalDuration(); got != 10*time.Minute {
		t.Errorf("ReconcileIntervalDuration = %v, want 10m", got)
	}
}

func TestRequestTimeoutDuration(t *testing.T) {
	cfg := &Config{RequestTimeout: "2s"}
	if got := cfg.RequestTimeoutDuration(); got != 2*time.Second {
		t.Errorf("RequestTimeoutDuration = %v, want 2s", got)
	}

	cfg = &Config{}
	if got := cfg.RequestTimeoutDuration(); got != 10*time.Second {
		t.Errorf("RequestTimeoutDuration fallback = %v, want 10s", got)
	}
}
