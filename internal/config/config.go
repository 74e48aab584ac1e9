// Package config loads server settings from the environment, with a
// best-effort .env file for local development.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup. All fields have
// working defaults except APIKey, without which the LLM-backed tools
// are disabled (the chatroom and todo tools still work).
type Config struct {
	// APIKey authenticates against the Gemini API (GEMINI_API_KEY).
	APIKey string

	// ContextModel answers codebase questions (SCOUT_CONTEXT_MODEL).
	ContextModel string

	// SubagentModel runs delegated file tasks — a faster, cheaper
	// model is the right choice here (SCOUT_SUBAGENT_MODEL).
	SubagentModel string

	// DataDir hosts the chatroom/todo databases and subagent logs
	// (SCOUT_DATA_DIR).
	DataDir string

	// GenerateTimeout bounds each generator call
	// (SCOUT_GENERATE_TIMEOUT, seconds).
	GenerateTimeout time.Duration

	// MaxFiles and MaxFileBytes bound repository scans
	// (SCOUT_MAX_FILES, SCOUT_MAX_FILE_BYTES).
	MaxFiles     int
	MaxFileBytes int64
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ContextModel:    "gemini-2.5-flash",
		SubagentModel:   "gemini-2.5-flash-lite",
		DataDir:         filepath.Join(home, ".scout"),
		GenerateTimeout: 2 * time.Minute,
		MaxFiles:        5000,
		MaxFileBytes:    1 << 20,
	}
}

// Load reads the environment on top of the defaults. A .env file in
// the working directory is honored when present; its absence is not an
// error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()
	cfg.APIKey = os.Getenv("GEMINI_API_KEY")

	if v := os.Getenv("SCOUT_CONTEXT_MODEL"); v != "" {
		cfg.ContextModel = v
	}
	if v := os.Getenv("SCOUT_SUBAGENT_MODEL"); v != "" {
		cfg.SubagentModel = v
	}
	if v := os.Getenv("SCOUT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if n, ok := envInt("SCOUT_GENERATE_TIMEOUT"); ok && n > 0 {
		cfg.GenerateTimeout = time.Duration(n) * time.Second
	}
	if n, ok := envInt("SCOUT_MAX_FILES"); ok && n > 0 {
		cfg.MaxFiles = n
	}
	if n, ok := envInt("SCOUT_MAX_FILE_BYTES"); ok && n > 0 {
		cfg.MaxFileBytes = int64(n)
	}
	return cfg
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
