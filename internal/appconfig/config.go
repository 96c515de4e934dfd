// Package appconfig holds the Config an Interpreter run is wired from,
// in the teacher's internal/app.Config shape: a flat struct, validated
// once by NewConfig at startup.
package appconfig

import (
	"errors"
	"time"
)

// Config holds everything cmd/cryptoasl needs to run one interpretation.
type Config struct {
	DefinitionPath string // path to a .json ASL definition
	InputPath      string // optional path to an initial-input .json document

	// Ask, when non-empty, switches the entrypoint from "interpret this
	// fixed ASL file" to spec §2's full pipeline: relevance check, LLM
	// workflow synthesis against the reflected method catalog, then
	// interpretation of the synthesized definition. DefinitionPath is
	// ignored in this mode.
	Ask string

	LogFormat string // "text" or "json"
	LogLevel  string // "debug", "info", "warn", "error"

	MarketDataBaseURL string
	NewsBaseURL       string
	RedisAddr         string
	StorePath         string // sqlite file for run history

	LLMBaseURL    string
	LLMAPIKey     string
	LLMRatePerSec float64

	MaxConcurrency int

	// The Telegram front end (internal/telegram) authenticates an -ask
	// request against the chat it was queued from. Exactly one of
	// TelegramChatID (mint a fresh session for a chat starting a new
	// request) or TelegramSession (validate a session an earlier -ask
	// already issued) is expected per run; TelegramSecret is required by
	// either. All three are optional — a request with none set runs
	// unauthenticated, as from the bare CLI.
	TelegramSecret     string
	TelegramChatID     int64
	TelegramSession    string
	TelegramSessionTTL time.Duration
}

// NewConfig validates cfg, mirroring the teacher's app.NewConfig: required
// fields must be non-empty, everything else carries a sane default.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Ask == "" && cfg.DefinitionPath == "" {
		return nil, errors.New("DefinitionPath is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 10
	}
	if cfg.LLMRatePerSec <= 0 {
		cfg.LLMRatePerSec = 1
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "cryptoasl-history.db"
	}
	if cfg.TelegramChatID != 0 && cfg.TelegramSession != "" {
		return nil, errors.New("TelegramChatID and TelegramSession are mutually exclusive")
	}
	if (cfg.TelegramChatID != 0 || cfg.TelegramSession != "") && cfg.TelegramSecret == "" {
		return nil, errors.New("TelegramSecret is required to issue or validate a Telegram session")
	}
	if cfg.TelegramSessionTTL <= 0 {
		cfg.TelegramSessionTTL = 15 * time.Minute
	}
	return &cfg, nil
}
