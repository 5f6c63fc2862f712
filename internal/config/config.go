package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPort          = 4141
	DefaultAccountType   = "individual"
	DefaultVSCodeVersion = "1.100.0"
	DefaultModelsTTL     = time.Hour
)

// Config holds the runtime configuration, sourced entirely from the
// environment. The process is stateless across restarts; nothing here is
// persisted.
type Config struct {
	// GitHubToken is the optional default credential used when a request
	// carries no GitHub token of its own (GH_TOKEN).
	GitHubToken string

	// Port is the listen port (PORT).
	Port int

	// AccountType selects the Copilot API subdomain: individual, business
	// or enterprise (ACCOUNT_TYPE).
	AccountType string

	// VSCodeVersion is reported in the editor-version header
	// (VSCODE_VERSION).
	VSCodeVersion string

	// RenameAuto enables pattern-based model renaming (MODEL_RENAME_AUTO,
	// disabled only by the literal "false").
	RenameAuto bool

	// RenameMap holds custom upstream→display overrides
	// (MODEL_RENAME_MAP, JSON object).
	RenameMap map[string]string

	// ModelsCacheTTL bounds the validity of the cached model list
	// (MODELS_CACHE_TTL, seconds).
	ModelsCacheTTL time.Duration

	// EmulateThinking routes <thinking> tagged output into Anthropic
	// thinking blocks (EMULATE_THINKING, disabled only by the literal
	// "false").
	EmulateThinking bool
}

// FromEnv builds a Config from environment variables, applying defaults and
// warning about malformed optional values instead of failing.
func FromEnv() *Config {
	cfg := &Config{
		GitHubToken:     os.Getenv("GH_TOKEN"),
		Port:            DefaultPort,
		AccountType:     DefaultAccountType,
		VSCodeVersion:   DefaultVSCodeVersion,
		RenameAuto:      os.Getenv("MODEL_RENAME_AUTO") != "false",
		ModelsCacheTTL:  DefaultModelsTTL,
		EmulateThinking: os.Getenv("EMULATE_THINKING") != "false",
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		} else {
			logrus.Warnf("PORT %q is not a number, using default %d", v, DefaultPort)
		}
	}

	if v := os.Getenv("ACCOUNT_TYPE"); v != "" {
		cfg.AccountType = v
	}

	if v := os.Getenv("VSCODE_VERSION"); v != "" {
		cfg.VSCodeVersion = v
	}

	if raw := os.Getenv("MODEL_RENAME_MAP"); raw != "" {
		var m map[string]string
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			logrus.Warnf("MODEL_RENAME_MAP is not valid JSON, ignoring: %v", err)
		} else {
			cfg.RenameMap = m
		}
	}

	if v := os.Getenv("MODELS_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ModelsCacheTTL = time.Duration(secs) * time.Second
		} else {
			logrus.Warnf("MODELS_CACHE_TTL %q is not a positive number of seconds, using default", v)
		}
	}

	return cfg
}
