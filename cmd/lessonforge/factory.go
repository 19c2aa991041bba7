package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/chapter"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/config"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/generator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/metrics"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/orchestrator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/provider"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/session"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/state"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// errNoBackends is returned when no provider has credentials.
var errNoBackends = errors.New("no LLM provider configured")

// buildBackends creates a backend for every provider in cfg.Providers.Order that
// has credentials. Providers without a key are skipped with a log line.
func buildBackends(cfg *config.Config) ([]provider.Backend, error) {
	var backends []provider.Backend
	for _, name := range cfg.Providers.Order {
		p, bc, err := buildProvider(cfg, name)
		if err != nil {
			if errors.Is(err, config.ErrNoAPIKey) {
				log.Printf("[main] skipping %s: %v", name, err)
				continue
			}
			return nil, err
		}
		backends = append(backends, provider.Backend{
			Provider:          p,
			RequestsPerMinute: bc.RequestsPerMinute,
			MinDelay:          bc.MinDelay,
		})
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: set %s", errNoBackends, strings.Join(allKeyVars(), ", "))
	}
	return backends, nil
}

func buildProvider(cfg *config.Config, name string) (provider.Provider, config.BackendConfig, error) {
	bc, ok := cfg.Backend(name)
	if !ok {
		return nil, bc, fmt.Errorf("unknown provider %q", name)
	}

	if name == config.ProviderAnthropic && cfg.Providers.Anthropic.UseBedrock {
		p, err := provider.NewAnthropic(provider.AnthropicConfig{
			Models:        bc.Models,
			UseAWSBedrock: true,
			AWSRegion:     cfg.Providers.Anthropic.Region,
			BaseURL:       bc.BaseURL,
		})
		return p, bc, err
	}

	key, err := config.GetAPIKey(cfg, name)
	if err != nil {
		return nil, bc, err
	}
	if err := config.ValidateAPIKey(name, key); err != nil {
		log.Printf("[main] %s: %v", name, err)
	}

	switch name {
	case config.ProviderOpenRouter:
		p, err := provider.NewOpenRouter(provider.OpenRouterConfig{
			APIKey:  key,
			BaseURL: bc.BaseURL,
			Models:  bc.Models,
			Title:   "lessonforge",
		})
		return p, bc, err
	case config.ProviderGemini:
		p, err := provider.NewGemini(provider.GeminiConfig{
			APIKey:  key,
			BaseURL: bc.BaseURL,
			Models:  bc.Models,
		})
		return p, bc, err
	default:
		p, err := provider.NewAnthropic(provider.AnthropicConfig{
			APIKey:  key,
			Models:  bc.Models,
			BaseURL: bc.BaseURL,
		})
		return p, bc, err
	}
}

func allKeyVars() []string {
	var vars []string
	for _, name := range []string{config.ProviderOpenRouter, config.ProviderGemini, config.ProviderAnthropic} {
		vars = append(vars, config.EnvVars(name)...)
	}
	return vars
}

// managerOptions maps the providers and cache config onto Manager options.
func managerOptions(cfg *config.Config, m *metrics.Metrics) []provider.Option {
	p := cfg.Providers
	return []provider.Option{
		provider.WithFailureThreshold(p.FailureThreshold),
		provider.WithRateLimitRetries(p.RateLimitRetries),
		provider.WithBackoff(p.BackoffBase, p.BackoffMax),
		provider.WithRequestTimeout(p.RequestTimeout),
		provider.WithCache(cfg.Cache.MaxEntries, cfg.Cache.TTL),
		provider.WithMetrics(m),
	}
}

// serviceOptions maps the generation config onto Service options.
func serviceOptions(cfg *config.Config, m *metrics.Metrics, events *orchestrator.EventEmitter) []generator.Option {
	g := cfg.Generation
	depth, _ := models.ParseDepthLevel(g.Depth)

	return []generator.Option{
		generator.WithStore(session.NewStore(
			session.WithCapacity(cfg.Sessions.Capacity),
			session.WithTTL(cfg.Sessions.TTL),
		)),
		generator.WithMetrics(m),
		generator.WithEvents(events),
		generator.WithDefaultDepth(depth),
		generator.WithDefaultStrategy(models.Strategy(g.Strategy)),
		generator.WithParallel(g.Parallel),
		generator.WithExecutorOptions(
			orchestrator.WithWorkers(g.Workers),
			orchestrator.WithMaxRetries(g.MaxRetries),
			orchestrator.WithTemperature(g.Temperature),
			orchestrator.WithMaxTokens(g.MaxTokens),
		),
		generator.WithChapterOptions(
			chapter.WithChapters(g.Chapters),
			chapter.WithWorkers(g.Workers),
			chapter.WithMaxRetries(g.MaxRetries),
		),
	}
}

// openArchive opens the lesson archive and applies retention. It returns nil
// when archiving is disabled or the database cannot be opened; generation works
// without it.
func openArchive(cfg *config.Config) *state.DB {
	if !cfg.Archive.Enabled {
		return nil
	}
	path := cfg.Archive.Path
	if path == "" {
		path = state.DefaultPath()
	}
	db, err := state.OpenArchive(path)
	if err != nil {
		log.Printf("[main] lesson archive disabled: %v", err)
		return nil
	}
	if cfg.Archive.Retention > 0 {
		n, err := db.PurgeOldLessons(cfg.Archive.Retention)
		if err != nil {
			log.Printf("[main] purge archived lessons: %v", err)
		} else if n > 0 {
			log.Printf("[main] purged %d archived lessons older than %s", n, cfg.Archive.Retention)
		}
	}
	return db
}

// app bundles what the commands need for one run.
type app struct {
	svc     *generator.Service
	manager *provider.Manager
	archive *state.DB
}

func (a *app) Close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			log.Printf("[main] close archive: %v", err)
		}
	}
}

// newApp wires providers, the generator service and the archive from cfg.
func newApp(cfg *config.Config, m *metrics.Metrics, events *orchestrator.EventEmitter) (*app, error) {
	backends, err := buildBackends(cfg)
	if err != nil {
		return nil, err
	}
	mgr := provider.NewManager(backends, managerOptions(cfg, m)...)

	opts := serviceOptions(cfg, m, events)
	archive := openArchive(cfg)
	if archive != nil {
		opts = append(opts, generator.WithArchive(archive))
	}
	log.Printf("[main] providers: %s", strings.Join(mgr.Providers(), ", "))
	return &app{
		svc:     generator.New(mgr, opts...),
		manager: mgr,
		archive: archive,
	}, nil
}
