// cliparse/cliparse_test.go
package cliparse

import (
	"testing"
	"time"
)

// clearEnv blanks every variable ParseFlags reads
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_TYPE", "DATABASE_URL", "UPSTREAM_PROTOCOL", "UPSTREAM_ORIGIN",
		"UPSTREAM_TIMEOUT", "ALLOWED_ORIGINS", "PROXY_URL", "CORS_ORIGINS", "DEMO_MODE",
		"SIMULATED_DELAY", "VIEW_TTL", "CONTRACT_ADDRESS", "WALLET_RELAY_URL", "SESSION_SECRET",
		"DEBUG_JOURNAL",
	} {
		t.Setenv(key, "")
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("UPSTREAM_ORIGIN", "elections.example.com")
	t.Setenv("ALLOWED_ORIGINS", "a.example.com, b.example.com")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("VIEW_TTL", "5m")
	t.Setenv("DEBUG_JOURNAL", "1")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.UpstreamOrigin != "elections.example.com" {
		t.Errorf("expected upstream from env, got %q", cfg.UpstreamOrigin)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "b.example.com" {
		t.Errorf("expected two trimmed origins, got %v", cfg.AllowedOrigins)
	}
	if !cfg.DemoMode {
		t.Error("expected demo mode from env")
	}
	if cfg.ViewTTL != 5*time.Minute {
		t.Errorf("expected view ttl 5m, got %v", cfg.ViewTTL)
	}
	if !cfg.DebugJournal {
		t.Error("expected debug journal from env")
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("UPSTREAM_ORIGIN", "env.example.com")

	cfg, err := ParseFlags([]string{"-p", "8080", "-upstream", "cli.example.com", "-session-secret", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.UpstreamOrigin != "cli.example.com" {
		t.Errorf("CLI should override env: got %q", cfg.UpstreamOrigin)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" || cfg.DatabaseURL != "file:trustvote.db" {
		t.Errorf("expected sqlite default, got %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.UpstreamProtocol != "https" || cfg.UpstreamOrigin != DefaultUpstreamOrigin {
		t.Errorf("unexpected upstream %s://%s", cfg.UpstreamProtocol, cfg.UpstreamOrigin)
	}
	if cfg.ContractAddress != DefaultContractAddress {
		t.Errorf("expected default contract, got %s", cfg.ContractAddress)
	}
	if cfg.DemoMode {
		t.Error("demo mode must be opt-in")
	}
	if cfg.DebugJournal {
		t.Error("debug journal must be opt-in")
	}
	if cfg.UpstreamTimeout != 10*time.Second || cfg.SimulatedDelay != 2*time.Second || cfg.ViewTTL != 30*time.Minute {
		t.Errorf("unexpected durations %v %v %v", cfg.UpstreamTimeout, cfg.SimulatedDelay, cfg.ViewTTL)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing secret", nil, nil},
		{"bad port", map[string]string{"PORT": "abc", "SESSION_SECRET": "s"}, nil},
		{"bad database type", map[string]string{"SESSION_SECRET": "s"}, []string{"-t", "mysql"}},
		{"postgres without url", map[string]string{"SESSION_SECRET": "s", "DATABASE_TYPE": "postgres"}, nil},
		{"bad protocol", map[string]string{"SESSION_SECRET": "s"}, []string{"-protocol", "ftp"}},
		{"bad duration", map[string]string{"SESSION_SECRET": "s", "VIEW_TTL": "soon"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
