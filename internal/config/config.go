package config

import (
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	SiteID   string

	DBDriver string
	DBDSN    string

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	// Content service (online mode pulls tests remotely; offline serves
	// from the local tests table).
	ContentBaseURL string

	// Results service that stores finished attempts and issues coins.
	// Empty base URL selects the local offline backend.
	ResultsBaseURL      string
	ResultsTokenURL     string
	ResultsClientID     string
	ResultsClientSecret string

	RewardBaseURL string

	AutosaveSec int

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: addr,
		SiteID:   envOr("SITE_ID", "local"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		ContentBaseURL: os.Getenv("CONTENT_BASE_URL"),

		ResultsBaseURL:      os.Getenv("RESULTS_BASE_URL"),
		ResultsTokenURL:     os.Getenv("RESULTS_TOKEN_URL"),
		ResultsClientID:     os.Getenv("RESULTS_CLIENT_ID"),
		ResultsClientSecret: os.Getenv("RESULTS_CLIENT_SECRET"),

		RewardBaseURL: os.Getenv("REWARD_BASE_URL"),

		AutosaveSec: envInt("AUTOSAVE_SEC", 30),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://app.chucamo.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
