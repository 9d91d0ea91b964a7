// Package app assembles the storage selection, repositories and services
// for one process. Both the HTTP server and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"gorm.io/gorm"

	"disciplinebaby/config"
	"disciplinebaby/database"
	"disciplinebaby/events"
	"disciplinebaby/repository"
	"disciplinebaby/services"
	"disciplinebaby/storage"
)

type App struct {
	Config  config.Config
	Log     *slog.Logger
	Bus     *events.Bus
	Storage *storage.Selection
	Clock   func() time.Time

	Users        *repository.UserRepository
	Tasks        *repository.TaskRepository
	Achievements *repository.AchievementRepository
	Rewards      *repository.RewardRepository

	Tracker *services.TrackerService
	Profile *services.UserService
	Reports *services.ReportService
	Sync    *services.SyncService
}

// New probes the configured backends and wires everything on top of the
// selected one. It only fails when the local store cannot be prepared.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	sel, err := storage.Open(ctx, OpenOptions(cfg, afero.NewOsFs(), log))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return Assemble(cfg, sel, log, time.Now), nil
}

// OpenOptions translates the configuration into backend openers. Backends
// without configuration get no opener.
func OpenOptions(cfg config.Config, fsys afero.Fs, log *slog.Logger) storage.OpenOptions {
	opts := storage.OpenOptions{
		LocalFs:  fsys,
		LocalDir: cfg.LocalDir,
		Logger:   log,
	}
	if cfg.Database.Configured() {
		opts.OpenDB = func() (*gorm.DB, error) {
			return database.Open(cfg.Database, cfg.Production(), log)
		}
		opts.CloseDB = database.Close
	}
	if cfg.KV.Configured() {
		opts.OpenKV = kvOpener(cfg.KV)
	}
	return opts
}

func kvOpener(kv config.KV) func(context.Context) (storage.KVClient, error) {
	return func(ctx context.Context) (storage.KVClient, error) {
		switch kv.Driver {
		case config.DriverNATS:
			client, err := storage.DialJetStream(ctx, kv.NATSURL, kv.Bucket)
			if err != nil {
				return nil, err
			}
			return client, nil
		case config.DriverRedis:
			return storage.NewRedisClient(kv.RedisAddr), nil
		default:
			return nil, fmt.Errorf("unsupported key-value driver %q", kv.Driver)
		}
	}
}

// Assemble builds the repositories and services over an existing selection.
func Assemble(cfg config.Config, sel *storage.Selection, log *slog.Logger, clock func() time.Time) *App {
	bus := events.NewBus(log)
	store := sel.Store
	userID := cfg.UserID

	a := &App{
		Config:       cfg,
		Log:          log,
		Bus:          bus,
		Storage:      sel,
		Clock:        clock,
		Users:        repository.NewUserRepository(store, userID, bus, log),
		Tasks:        repository.NewTaskRepository(store, userID, bus, log, clock),
		Achievements: repository.NewAchievementRepository(store, userID, bus, log, clock),
		Rewards:      repository.NewRewardRepository(store, userID, bus, log),
	}
	a.Tracker = services.NewTrackerService(a.Users, a.Tasks, log)
	a.Profile = services.NewUserService(a.Users, a.Tasks, a.Achievements, a.Rewards)
	a.Reports = services.NewReportService(a.Users, a.Tasks)
	a.Sync = services.NewSyncService(store, userID, log)
	return a
}

// SyncFromLocal pushes what the local store holds to the selected backend.
func (a *App) SyncFromLocal(ctx context.Context) services.SyncResult {
	if a.Storage.Local == nil || !a.Storage.Backend().Persistent() {
		return services.SyncResult{Error: services.ErrNothingToSync.Error()}
	}
	snap, err := services.ReadSnapshot(ctx, a.Storage.Local, a.Config.UserID, a.Clock())
	if errors.Is(err, services.ErrNoLocalData) {
		a.Log.Info("sync skipped, nothing stored on this device")
	}
	if err != nil {
		return services.SyncResult{Error: err.Error()}
	}
	return a.Sync.SyncLocalToAuthoritative(ctx, snap)
}

// Close stops event delivery and releases backend connections.
func (a *App) Close() error {
	a.Bus.Close()
	var errs []error
	if a.Storage != nil {
		errs = append(errs, a.Storage.Close())
	}
	return errors.Join(errs...)
}
