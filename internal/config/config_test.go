package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "http://localhost:3000", []string{"http://localhost:3000"}},
		{"trimmed", " http://a.test , ,http://b.test ", []string{"http://a.test", "http://b.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseOrigins(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOCK_TTL_MS", "1500")
	t.Setenv("MAX_DB_CONNS", "not-a-number")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.LockTTL != 1500*time.Millisecond {
		t.Errorf("LockTTL = %v, want 1.5s", cfg.LockTTL)
	}
	if cfg.MaxDBConns != 16 {
		t.Errorf("MaxDBConns = %d, want fallback 16", cfg.MaxDBConns)
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("LOCK_TTL_MS", v)
			t.Setenv("RECONCILE_INTERVAL_SECONDS", v)

			cfg := Load()
			if cfg.LockTTL != 5*time.Second {
				t.Errorf("LockTTL = %v, want default 5s", cfg.LockTTL)
			}
			if cfg.ReconcileInterval != 5*time.Minute {
				t.Errorf("ReconcileInterval = %v, want default 5m", cfg.ReconcileInterval)
			}
		})
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKey.SurveySessionLockKey("abc"); got != "lock:survey_session:abc" {
		t.Errorf("SurveySessionLockKey = %q", got)
	}
	if got := CacheKey.UserLoginKey("u1"); got != "login:u1" {
		t.Errorf("UserLoginKey = %q", got)
	}
}
