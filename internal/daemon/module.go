package daemon

import (
	"context"
	"errors"
	"io/fs"

	"github.com/okravchenko/dialog/internal/analytics"
	"github.com/okravchenko/dialog/internal/bus"
	"github.com/okravchenko/dialog/internal/config"
	"github.com/okravchenko/dialog/internal/lock"
	"github.com/okravchenko/dialog/internal/logging"
	"github.com/okravchenko/dialog/internal/notify"
	"github.com/okravchenko/dialog/internal/profile"
	"github.com/okravchenko/dialog/internal/status"
	"github.com/okravchenko/dialog/internal/store"
	intsync "github.com/okravchenko/dialog/internal/sync"
	"github.com/okravchenko/dialog/internal/transport"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
}

// Module returns the fx module for the daemon, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			provideTracker,
			provideNotifier,
			providePolicy,
			provideTransport,
			provideEngine,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

// provideConfig loads ~/.dialog/config.toml; a missing file means the
// built-in defaults (simulator transport).
func provideConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no config file, using defaults")
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideTracker(logger *zap.Logger) analytics.Tracker {
	return analytics.NewZapTracker(logger)
}

func provideNotifier(b *bus.Bus, logger *zap.Logger) notify.Notifier {
	return notify.NewBusNotifier(b, logger)
}

func providePolicy(cfg *config.Config) status.DeliveryPolicy {
	return status.FixedDelayPolicy{
		SentAfter:      cfg.Delivery.SentAfter.Std(),
		DeliveredAfter: cfg.Delivery.DeliveredAfter.Std(),
		ReadAfter:      cfg.Delivery.ReadAfter.Std(),
	}
}

func provideTransport(cfg *config.Config, b *bus.Bus, logger *zap.Logger) transport.Transport {
	return transport.New(cfg.Chat.WSURL, transport.SimulatorTimings{
		IdlePeriod: cfg.Simulator.IdlePeriod.Std(),
		TypingTime: cfg.Simulator.TypingTime.Std(),
		ReplyDelay: cfg.Simulator.ReplyDelay.Std(),
	}, b, logger)
}

func provideEngine(
	cfg *config.Config,
	db *store.DB,
	t transport.Transport,
	policy status.DeliveryPolicy,
	notifier notify.Notifier,
	tracker analytics.Tracker,
	b *bus.Bus,
	logger *zap.Logger,
) *intsync.Engine {
	return intsync.NewEngine(intsync.Params{
		ConversationID: cfg.Chat.ConversationID,
		Title:          cfg.Chat.ConversationTitle,
		DB:             db,
		Transport:      t,
		Policy:         policy,
		Notifier:       notifier,
		Tracker:        tracker,
		Bus:            b,
		Logger:         logger,
	})
}

func registerLifecycle(lc fx.Lifecycle, engine *intsync.Engine, lk *lock.Lock, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			engine.Start()
			logger.Info("engine started", zap.String("conversation_id", engine.ConversationID()))
			return nil
		},
		OnStop: func(_ context.Context) error {
			engine.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
