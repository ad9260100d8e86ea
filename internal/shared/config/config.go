package config

import (
	"os"
	"strconv"
	"strings"
)

// Pair policy values. The policy is fixed for the lifetime of the process;
// the two strategies produce incompatible pair lists and are never mixed.
const (
	PairPolicyRiskOnly   = "risk_only"
	PairPolicyCompletion = "completion"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	CORSAllowOrigin    []string
	OpenAIAPIKey       string
	CompatModel        string
	VisionModel        string
	PairsPolicy        string
	DatabaseURL        string
	ReportHistoryLimit int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:               getEnv("PORT", "8080"),
		Env:                normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		CompatModel:        getEnv("COMPAT_MODEL", "gpt-4o-mini"),
		VisionModel:        getEnv("VISION_MODEL", "gpt-4o-mini"),
		PairsPolicy:        normalizePairsPolicy(getEnv("PAIRS_POLICY", PairPolicyRiskOnly)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ReportHistoryLimit: getEnvInt("REPORT_HISTORY_LIMIT", 100),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizePairsPolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completion", "complete", "legacy":
		return PairPolicyCompletion
	default:
		return PairPolicyRiskOnly
	}
}
