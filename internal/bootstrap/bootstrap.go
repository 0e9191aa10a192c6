package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/config"
	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/core/ports"
	"github.com/kirillkom/fleet-compliance/internal/core/usecase"
	"github.com/kirillkom/fleet-compliance/internal/infrastructure/queue/nats"
	"github.com/kirillkom/fleet-compliance/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/fleet-compliance/internal/infrastructure/resilience"
	"github.com/kirillkom/fleet-compliance/internal/infrastructure/snapshot/yamlfile"
)

type App struct {
	Config config.Config

	Source        ports.SnapshotSource
	Notifications *usecase.NotificationUseCase

	executor *resilience.Executor
	closers  []func()
}

// New wires the snapshot source and the notification use case. The observer
// may be nil.
func New(ctx context.Context, cfg config.Config, observer ports.EvaluationObserver) (*App, error) {
	defaultLocale, err := domain.ParseLocale(cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale: %w", err)
	}

	app := &App{
		Config:   cfg,
		executor: resilience.NewExecutor(resilienceConfig(cfg)),
	}

	source, err := app.openSnapshotSource(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Source = source

	loc := cfg.Location()
	clock := func() time.Time { return time.Now().In(loc) }
	app.Notifications = usecase.NewNotificationUseCase(source, observer, clock, defaultLocale)
	return app, nil
}

func (a *App) openSnapshotSource(ctx context.Context) (ports.SnapshotSource, error) {
	switch a.Config.SnapshotSource {
	case config.SnapshotSourcePostgres:
		db, err := postgres.OpenDB(a.Config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })

		repo := postgres.NewSnapshotRepository(db, a.executor)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, nil
	case config.SnapshotSourceYAML:
		source, err := yamlfile.New(a.Config.SnapshotFile)
		if err != nil {
			return nil, fmt.Errorf("open snapshot file: %w", err)
		}
		return source, nil
	default:
		return nil, fmt.Errorf("unknown snapshot source %q", a.Config.SnapshotSource)
	}
}

// NewDigestUseCase connects to NATS and returns the digest publisher flow.
// The connection is closed with the app.
func (a *App) NewDigestUseCase() (*usecase.DigestUseCase, error) {
	locale, err := domain.ParseLocale(a.Config.DigestLocale)
	if err != nil {
		return nil, fmt.Errorf("digest locale: %w", err)
	}

	publisher, err := nats.NewWithOptions(a.Config.NATSURL, a.Config.NATSSubject, nats.Options{
		ResilienceExecutor: a.executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init digest publisher: %w", err)
	}
	a.closers = append(a.closers, publisher.Close)

	return usecase.NewDigestUseCase(a.Notifications, publisher, locale), nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.ResilienceRetryMaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	}
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	return out
}
