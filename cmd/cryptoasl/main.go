// Command cryptoasl runs one crypto-market analysis end to end: either
// interpreting a fixed ASL state-machine definition file directly
// against the domain toolbox, or (with -ask) driving the full spec §2
// pipeline — relevance check, LLM workflow synthesis against the
// reflected method catalog, interpretation, and final rendering.
//
// Grounded on the teacher's cmd/cli/main.go: a minimal bootstrap
// logger, cli.Parse for arguments, a run(outW, args) function separated
// from main so tests can drive it without touching os.Exit.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/vk/cryptoasl/internal/appconfig"
	"github.com/vk/cryptoasl/internal/asl"
	"github.com/vk/cryptoasl/internal/catalog"
	"github.com/vk/cryptoasl/internal/cli"
	"github.com/vk/cryptoasl/internal/ctxlog"
	"github.com/vk/cryptoasl/internal/domain"
	"github.com/vk/cryptoasl/internal/jsonvalue"
	"github.com/vk/cryptoasl/internal/llmclient"
	"github.com/vk/cryptoasl/internal/moduledef"
	"github.com/vk/cryptoasl/internal/orchestrate"
	"github.com/vk/cryptoasl/internal/providers/marketdata"
	"github.com/vk/cryptoasl/internal/providers/marketdata/cache"
	"github.com/vk/cryptoasl/internal/providers/news"
	"github.com/vk/cryptoasl/internal/serialize"
	"github.com/vk/cryptoasl/internal/stateflow"
	"github.com/vk/cryptoasl/internal/store"
	"github.com/vk/cryptoasl/internal/telemetry"
)

const defaultLLMModel = "gpt-4o-mini"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	toolbox, closeProviders := buildToolbox(cfg)
	defer closeProviders()

	cat, err := catalog.New(toolbox)
	if err != nil {
		return fmt.Errorf("cryptoasl: build method catalog: %w", err)
	}

	if manifests, err := moduledef.Load(manifestDir()); err == nil {
		if err := moduledef.Validate(manifests, cat); err != nil {
			return fmt.Errorf("cryptoasl: method manifest drifted from catalog: %w", err)
		}
		moduledef.EnrichDocument(manifests, cat.Document())
	} else {
		logger.Debug("cryptoasl: no method manifests loaded", "error", err)
	}

	tp, err := telemetry.New(ctx, telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("cryptoasl: build telemetry provider: %w", err)
	}
	defer tp.Shutdown(ctx)

	interp := stateflow.New(cat, stateflow.WithTracer(tp))

	runStore, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("cryptoasl: open run history store: %w", err)
	}
	defer runStore.Close()

	if cfg.Ask != "" {
		return runAsk(ctx, outW, cfg, cat, interp, toolbox, runStore)
	}
	return runDefinition(ctx, outW, cfg, interp, toolbox, runStore)
}

// runAsk drives spec §2's full pipeline for a free-form question. When
// cfg carries Telegram session inputs, the request is authenticated
// against internal/telegram before the question ever reaches the LLM —
// the CLI stands in for the front-end surface a real Telegram bot would
// drive this same entry point through.
func runAsk(ctx context.Context, outW io.Writer, cfg *appconfig.Config, cat *catalog.Catalog, interp *stateflow.Interpreter, toolbox *domain.Toolbox, runStore *store.Store) error {
	session, err := authenticateTelegramChat(cfg)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	if session.authenticated {
		ctx = ctxlog.WithLogger(ctx, logger.With("telegram_chat_id", session.chatID))
	}

	llm := llmclient.New(cfg.LLMBaseURL, cfg.LLMAPIKey, defaultLLMModel, cfg.LLMRatePerSec)
	defer llm.Close()

	orch := orchestrate.New(llm, cat, interp, toolbox, runStore)
	result, err := orch.Ask(ctx, cfg.Ask)
	if err != nil {
		return fmt.Errorf("cryptoasl: ask: %w", err)
	}

	if session.issuedToken != "" {
		fmt.Fprintln(outW, "telegram session:", session.issuedToken)
	}
	fmt.Fprintln(outW, result.Answer)
	fmt.Fprintln(outW, "\n--- recorded outputs ---")
	fmt.Fprint(outW, serialize.Records(result.Records))
	return nil
}

// runDefinition interprets a fixed ASL definition file directly,
// printing the final accumulator and recorded-output transcript.
func runDefinition(ctx context.Context, outW io.Writer, cfg *appconfig.Config, interp *stateflow.Interpreter, toolbox *domain.Toolbox, runStore *store.Store) error {
	def, err := loadDefinition(cfg.DefinitionPath)
	if err != nil {
		return fmt.Errorf("cryptoasl: load definition: %w", err)
	}

	input := jsonvalue.NewMap()
	if cfg.InputPath != "" {
		input, err = loadInput(cfg.InputPath)
		if err != nil {
			return fmt.Errorf("cryptoasl: load input: %w", err)
		}
	}

	final, runErr := interp.Interpret(ctx, def, input)
	records := toolbox.Records()

	out, encErr := json.MarshalIndent(jsonvalue.ToAny(final), "", "  ")
	if encErr != nil {
		return fmt.Errorf("cryptoasl: encode final output: %w", encErr)
	}
	fmt.Fprintln(outW, string(out))
	fmt.Fprintln(outW, "\n--- recorded outputs ---")
	fmt.Fprint(outW, serialize.Records(records))

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	if saveErr := runStore.Save(ctx, store.Run{
		ID:          cfg.DefinitionPath,
		Question:    cfg.DefinitionPath,
		FinalOutput: string(out),
		Records:     records,
		Err:         errText,
		CreatedAt:   time.Now().UTC(),
	}); saveErr != nil {
		ctxlog.FromContext(ctx).Warn("cryptoasl: failed to persist run history", "error", saveErr)
	}

	return runErr
}

func buildToolbox(cfg *appconfig.Config) (*domain.Toolbox, func()) {
	var priceCache *cache.Cache
	if cfg.RedisAddr != "" {
		priceCache = cache.New(cfg.RedisAddr)
	}
	md := marketdata.New(cfg.MarketDataBaseURL, priceCache)
	newsClient := news.New(cfg.NewsBaseURL)
	toolbox := domain.New(md, newsClient)

	return toolbox, func() {
		md.Close()
		newsClient.Close()
		if priceCache != nil {
			priceCache.Close()
		}
	}
}

func loadDefinition(path string) (*asl.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def asl.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func loadInput(path string) (jsonvalue.Value, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return jsonvalue.Null, err
	}
	return jsonvalue.ParseJSON(raw)
}

func manifestDir() string {
	if dir := os.Getenv("CRYPTOASL_MANIFEST_DIR"); dir != "" {
		return dir
	}
	return "internal/domain/manifests"
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
