// Package app assembles the bot's components from configuration. Both the
// HTTP server and the cron worker start from here.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/bot"
	"attendbot/internal/clock"
	"attendbot/internal/config"
	"attendbot/internal/form"
	"attendbot/internal/identity"
	"attendbot/internal/jobs"
	"attendbot/internal/keylock"
	"attendbot/internal/lineclient"
	"attendbot/internal/notify"
	"attendbot/internal/store"
	"attendbot/internal/store/memory"
	"attendbot/internal/store/postgres"
)

// Repository is everything the bot stores.
type Repository interface {
	identity.Repository
	form.StateStore
	attendance.Repository
}

// App is the wired component graph.
type App struct {
	Config     config.App
	Logger     *zap.Logger
	Clock      clock.Clock
	Repo       Repository
	Notifier   notify.Notifier
	Recorder   *attendance.Recorder
	Aggregator *attendance.Aggregator
	Router     *bot.Router
	Jobs       *jobs.Runner
	Health     map[string]func(ctx context.Context) bool

	closers []func() error
}

// Build connects to the configured backends and wires every component.
func Build(cfg config.App, logger *zap.Logger) (*App, error) {
	clk, err := clock.Load(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Clock: clk, Health: map[string]func(context.Context) bool{}}

	if err := a.openStore(); err != nil {
		a.Close()
		return nil, err
	}
	locks, err := a.openLocks()
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openNotifier(); err != nil {
		a.Close()
		return nil, err
	}

	linker := identity.NewLinker(a.Repo, cfg.ClassName, logger.Named("identity"))
	a.Recorder = attendance.NewRecorder(a.Repo, a.Notifier, cfg.LineGroupID, clk, logger.Named("recorder"))
	a.Aggregator = attendance.NewAggregator(a.Repo, cfg.ClassName, clk)
	a.Router = bot.NewRouter(bot.Config{
		Forms:        form.New(a.Repo, linker, a.Recorder, clk, logger.Named("form")),
		Linker:       linker,
		Recorder:     a.Recorder,
		Reports:      a.Aggregator,
		Notifier:     a.Notifier,
		Locks:        locks,
		EventTimeout: cfg.EventTimeout,
		Logger:       logger.Named("router"),
	})
	a.Jobs = jobs.NewRunner(a.Aggregator, a.Notifier, cfg.LineGroupID, logger.Named("jobs"))
	return a, nil
}

func (a *App) openStore() error {
	switch a.Config.StoreBackend {
	case "memory":
		a.Repo = memory.New()
		a.Health["store"] = func(context.Context) bool { return true }
		a.Logger.Warn("using in-memory store; data is lost on restart")
		return nil
	default:
		db, err := store.NewDB(a.Config.DatabaseURL, a.Config.StoreTimeout)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if a.Config.MigrateOnStart {
			if err := store.RunMigrations(db.Client, a.Logger.Named("migrate")); err != nil {
				return err
			}
		}
		a.Repo = postgres.NewRepository(db.Client, a.Config.StoreTimeout)
		a.Health["db"] = db.Healthy
		return nil
	}
}

func (a *App) openLocks() (keylock.Locker, error) {
	if a.Config.LockBackend != "redis" {
		return keylock.NewMemory(a.Config.LockWait), nil
	}
	rdb := store.NewRedis(a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
	a.closers = append(a.closers, rdb.Close)
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.StoreTimeout)
	defer cancel()
	if !rdb.Healthy(ctx) {
		return nil, fmt.Errorf("redis %s not reachable", a.Config.RedisAddr)
	}
	a.Health["redis"] = rdb.Healthy
	return keylock.NewRedis(rdb.Client, "attendbot:lock", a.Config.LockTTL, a.Config.LockWait), nil
}

func (a *App) openNotifier() error {
	if a.Config.Notifier == "console" {
		a.Notifier = notify.NewConsole(a.Logger.Named("console"))
		return nil
	}
	c, err := lineclient.New(a.Config.LineChannelAccessToken, a.Config.NotifyTimeout, a.Logger.Named("line"))
	if err != nil {
		return err
	}
	a.Notifier = c
	return nil
}

// Close releases every opened backend.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
}
