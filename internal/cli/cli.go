// Package cli is the stdlib flag-based command-line parser for
// cmd/cryptoasl, grounded on the teacher's internal/cli.Parse shape:
// a flag.FlagSet with a custom usage string, returning a typed
// *ExitError with an exit code instead of calling os.Exit directly.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vk/cryptoasl/internal/appconfig"
)

// ExitError carries the process exit code a parse failure or --help
// invocation should produce.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Parse processes command-line arguments into an appconfig.Config. The
// second return value reports a clean exit (e.g. --help) with no error.
func Parse(args []string, output io.Writer) (*appconfig.Config, bool, error) {
	flagSet := flag.NewFlagSet("cryptoasl", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
cryptoasl - runs a crypto-market question through an LLM-synthesized
state machine against a catalog of market-data, news, and date-math
methods.

Usage:
  cryptoasl [options] DEFINITION_PATH
  cryptoasl [options] -ask "how has bitcoin moved this week?"

Arguments:
  DEFINITION_PATH
    Path to a .json ASL state machine definition. Ignored when -ask is set.

Options:
`)
		flagSet.PrintDefaults()
	}

	askFlag := flagSet.String("ask", "", "A free-form question to run through LLM-synthesized workflow generation instead of a fixed DEFINITION_PATH.")
	inputFlag := flagSet.String("input", "", "Path to an optional initial-input .json document.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	concurrencyFlag := flagSet.Int("max-concurrency", 10, "Stored in the run configuration; the interpreter does not read it (Map states use their own MaxConcurrency, Parallel states run all branches at once).")
	marketDataURLFlag := flagSet.String("marketdata-url", "", "Base URL of the market-data provider.")
	newsURLFlag := flagSet.String("news-url", "", "Base URL of the news provider.")
	redisAddrFlag := flagSet.String("redis-addr", "", "Address of the Redis price-history cache.")
	storePathFlag := flagSet.String("store-path", "cryptoasl-history.db", "SQLite file for run history.")
	llmURLFlag := flagSet.String("llm-url", "", "Base URL of the LLM completion endpoint.")
	llmKeyFlag := flagSet.String("llm-api-key", "", "API key for the LLM completion endpoint.")
	llmRateFlag := flagSet.Float64("llm-rate", 1, "Maximum LLM completion calls per second.")
	telegramSecretFlag := flagSet.String("telegram-secret", "", "HMAC secret for Telegram front-end session tokens.")
	telegramChatIDFlag := flagSet.Int64("telegram-chat-id", 0, "Telegram chat ID starting a new -ask session (mutually exclusive with -telegram-session).")
	telegramSessionFlag := flagSet.String("telegram-session", "", "A previously issued Telegram session token to validate this -ask request against.")
	telegramTTLFlag := flagSet.Duration("telegram-session-ttl", 15*time.Minute, "Validity duration for a newly issued Telegram session token.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" && *askFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg, err := appconfig.NewConfig(appconfig.Config{
		DefinitionPath:    path,
		Ask:               *askFlag,
		InputPath:         *inputFlag,
		LogFormat:         logFormat,
		LogLevel:          logLevel,
		MaxConcurrency:    *concurrencyFlag,
		MarketDataBaseURL: *marketDataURLFlag,
		NewsBaseURL:       *newsURLFlag,
		RedisAddr:         *redisAddrFlag,
		StorePath:         *storePathFlag,
		LLMBaseURL:         *llmURLFlag,
		LLMAPIKey:          *llmKeyFlag,
		LLMRatePerSec:      *llmRateFlag,
		TelegramSecret:     *telegramSecretFlag,
		TelegramChatID:     *telegramChatIDFlag,
		TelegramSession:    *telegramSessionFlag,
		TelegramSessionTTL: *telegramTTLFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
