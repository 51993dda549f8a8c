package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort            = 3318
	DefaultUpstreamOrigin  = "api.trustvote.ph"
	DefaultContractAddress = "0x67c97D1FB8184F038592b2109F854dfb09C77C75"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Election API reached through the forwarding endpoint
	UpstreamProtocol string
	UpstreamOrigin   string
	UpstreamTimeout  time.Duration
	AllowedOrigins   []string
	// ProxyURL points at an external forwarding endpoint; empty means in-process
	ProxyURL string

	// DemoMode serves sample data when the election API fails and simulates
	// submissions. Off unless asked for.
	DemoMode       bool
	SimulatedDelay time.Duration
	// DebugJournal exposes GET /debug/journal outside demo mode
	DebugJournal bool

	SessionSecret   string
	ContractAddress string
	WalletRelayURL  string

	CORSOrigins []string
	ViewTTL     time.Duration
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var allowed, cors, delay, ttl, timeout string

	fs := flag.NewFlagSet("trustvote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Journal database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.UpstreamProtocol, "protocol", "", "Election API protocol (http or https)")
	fs.StringVar(&cfg.UpstreamOrigin, "upstream", "", "Election API origin (host[:port])")
	fs.StringVar(&timeout, "timeout", "", "Upstream request timeout")
	fs.StringVar(&allowed, "allow-origins", "", "Extra origins the proxy may forward to (comma separated)")
	fs.StringVar(&cfg.ProxyURL, "proxy", "", "External forwarding endpoint URL")
	fs.StringVar(&cors, "cors", "", "Browser origins allowed by CORS (comma separated)")

	// Behaviour
	fs.BoolVar(&cfg.DemoMode, "demo", false, "Serve sample data when the election API fails")
	fs.BoolVar(&cfg.DebugJournal, "debug-journal", false, "Serve the diagnostic journal to connected wallets")
	fs.StringVar(&delay, "delay", "", "Simulated submission delay in demo mode")
	fs.StringVar(&ttl, "view-ttl", "", "Idle time before an open view is closed")
	fs.StringVar(&cfg.ContractAddress, "contract", "", "Voting contract address")
	fs.StringVar(&cfg.WalletRelayURL, "relay", "", "Wallet transaction relay URL")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Wallet session signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = envOr("DATABASE_TYPE", "sqlite")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "file:trustvote.db"
	}

	if cfg.UpstreamProtocol == "" {
		cfg.UpstreamProtocol = envOr("UPSTREAM_PROTOCOL", "https")
	}
	if cfg.UpstreamProtocol != "http" && cfg.UpstreamProtocol != "https" {
		return Config{}, errors.New("upstream protocol must be http or https")
	}
	if cfg.UpstreamOrigin == "" {
		cfg.UpstreamOrigin = envOr("UPSTREAM_ORIGIN", DefaultUpstreamOrigin)
	}
	if allowed == "" {
		allowed = os.Getenv("ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = splitList(allowed)
	if cfg.ProxyURL == "" {
		cfg.ProxyURL = os.Getenv("PROXY_URL")
	}
	if cors == "" {
		cors = os.Getenv("CORS_ORIGINS")
	}
	cfg.CORSOrigins = splitList(cors)

	if !cfg.DemoMode {
		cfg.DemoMode = envBool("DEMO_MODE", false)
	}
	if !cfg.DebugJournal {
		cfg.DebugJournal = envBool("DEBUG_JOURNAL", false)
	}

	var err error
	if cfg.UpstreamTimeout, err = durationOr(timeout, "UPSTREAM_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SimulatedDelay, err = durationOr(delay, "SIMULATED_DELAY", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ViewTTL, err = durationOr(ttl, "VIEW_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.ContractAddress == "" {
		cfg.ContractAddress = envOr("CONTRACT_ADDRESS", DefaultContractAddress)
	}
	if cfg.WalletRelayURL == "" {
		cfg.WalletRelayURL = os.Getenv("WALLET_RELAY_URL")
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func durationOr(flagValue, key string, fallback time.Duration) (time.Duration, error) {
	raw := flagValue
	if raw == "" {
		raw = os.Getenv(key)
	}
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
