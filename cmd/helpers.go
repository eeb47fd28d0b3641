package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ziadkadry99/flowgraph/internal/client"
	"github.com/ziadkadry99/flowgraph/internal/config"
	"github.com/ziadkadry99/flowgraph/internal/db"
	"github.com/ziadkadry99/flowgraph/internal/generator"
	"github.com/ziadkadry99/flowgraph/internal/graph"
	"github.com/ziadkadry99/flowgraph/internal/llm"
	"github.com/ziadkadry99/flowgraph/internal/logging"
	"github.com/ziadkadry99/flowgraph/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `flowgraph init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Commands that own the terminal
// streams pass quiet so nothing is written unless a log file is set.
func newLogger(cfg *config.Config, quiet bool) (*zap.Logger, error) {
	if quiet && cfg.Logging.File == "" {
		return zap.NewNop(), nil
	}
	return logging.New(cfg.Logging, verbose)
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM > 0 {
		p = llm.NewRateLimitedProvider(p, cfg.RateLimitRPM)
	}
	return p, nil
}

// openSessions opens the SQLite database under the data dir.
func openSessions(cfg *config.Config) (*db.DB, *session.Store, error) {
	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(filepath.Join(cfg.Server.DataDir, "flowgraph.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, session.NewStore(database), nil
}

// newEngine wires the generator to the LLM and Graphviz.
func newEngine(cfg *config.Config, sessions *session.Store, logger *zap.Logger) (*generator.Engine, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	renderer := graph.NewDotRenderer(cfg.Graphviz.Binary, cfg.GraphvizTimeout())
	return generator.NewEngine(sessions, provider, renderer, generator.Options{
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		HistoryWindow: cfg.HistoryWindow,
	}, logger), nil
}

// newClient creates an HTTP client for the configured server.
func newClient(cfg *config.Config, serverURL string) (*client.Client, error) {
	if serverURL == "" {
		serverURL = cfg.Client.ServerURL
	}
	return client.New(serverURL, cfg.ClientTimeout())
}
