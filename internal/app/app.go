// Package app builds the runtime graph from a configuration.
package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/forecast-trader/config"
	"github.com/rustyeddy/forecast-trader/explain"
	"github.com/rustyeddy/forecast-trader/internal/logging"
	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/rustyeddy/forecast-trader/market"
	"github.com/rustyeddy/forecast-trader/sim"
)

var ErrNoAPIKey = errors.New("explainer api key not set")

// App holds everything a command needs. Close releases the journals.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Engine  *sim.Engine
	Builder market.Builder
	Sinks   []journal.Sink
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	sinks, err := OpenSinks(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	engine := sim.NewEngine(cfg.SimOptions(), sinks...)
	engine.SetLogger(logger)

	enricher, err := NewEnricher(cfg.Explain, logger)
	if err != nil {
		closeAll(sinks)
		return nil, err
	}
	if enricher != nil {
		engine.SetEnricher(enricher)
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Engine:  engine,
		Builder: NewBuilder(cfg.Data, logger),
		Sinks:   sinks,
	}, nil
}

func (a *App) Close() error {
	return closeAll(a.Sinks)
}

func closeAll(sinks []journal.Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenSinks creates the configured journal, if any.
func OpenSinks(cfg config.JournalConfig) ([]journal.Sink, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "csv":
		j, err := journal.NewCSV(cfg.EntriesFile, cfg.RunsFile)
		if err != nil {
			return nil, err
		}
		return []journal.Sink{j}, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return []journal.Sink{j}, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}

// NewExplainer returns the configured explainer, or nil when
// explanations are off.
func NewExplainer(cfg config.ExplainConfig, logger *zap.Logger) (explain.Explainer, error) {
	switch cfg.Mode {
	case "", "off":
		return nil, nil
	case "static":
		return explain.Static{Text: cfg.StaticText}, nil
	case "gemini":
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("%w: $%s", ErrNoAPIKey, cfg.APIKeyEnv)
		}
		timeout, err := cfg.TimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("explain.timeout: %w", err)
		}
		g := explain.NewGemini(explain.GeminiConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   key,
			Timeout:  timeout,
		})
		return explain.NewBreaker(g, explain.DefaultBreakerSettings, logger), nil
	default:
		return nil, fmt.Errorf("unknown explain mode %q", cfg.Mode)
	}
}

// NewEnricher wraps the configured explainer, or returns nil when
// explanations are off.
func NewEnricher(cfg config.ExplainConfig, logger *zap.Logger) (*explain.Enricher, error) {
	ex, err := NewExplainer(cfg, logger)
	if err != nil || ex == nil {
		return nil, err
	}
	spacing, err := cfg.SpacingDuration()
	if err != nil {
		return nil, fmt.Errorf("explain.spacing: %w", err)
	}
	return &explain.Enricher{
		Explainer: ex,
		Spacing:   spacing,
		Workers:   cfg.Workers,
		Logger:    logger,
	}, nil
}

// NewBuilder assembles the history loader and predictor.
func NewBuilder(cfg config.DataConfig, logger *zap.Logger) market.Builder {
	b := market.Builder{
		Loader:    market.CSVLoader{Dir: cfg.Dir},
		Steps:     cfg.Steps,
		SeqLength: cfg.SeqLength,
		Logger:    logger,
	}
	switch cfg.Predictor {
	case "http":
		b.Predictor = market.NewHTTPPredictor(cfg.PredictorURL, 0)
	default:
		b.Predictor = market.CSVPredictor{Dir: cfg.Dir}
	}
	return b
}
