package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"imsgd/internal/bus"
	"imsgd/internal/chatdb"
	"imsgd/internal/config"
	"imsgd/internal/contacts"
	"imsgd/internal/httpapi"
	"imsgd/internal/lock"
	"imsgd/internal/logging"
	"imsgd/internal/paths"
	"imsgd/internal/poll"
	"imsgd/internal/send"
	"imsgd/internal/status"
)

// Params holds the resolved startup options passed to the fx module.
type Params struct {
	ConfigPath string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideResolver,
			provideReader,
			provideSender,
			providePoller,
			provideHub,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	return config.Load(p.ConfigPath)
}

func provideLogger() (*zap.Logger, error) {
	return logging.New(paths.LogPath())
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	l, err := lock.Acquire(paths.BaseDir())
	if err != nil {
		return nil, err
	}
	logger.Info("daemon lock acquired", zap.String("dir", paths.BaseDir()))
	return l, nil
}

func provideResolver(cfg *config.Config, logger *zap.Logger) contacts.Resolver {
	if cfg.ContactsCache == "" {
		return nil
	}
	r, err := contacts.LoadCache(cfg.ContactsCache)
	if err != nil {
		logger.Warn("contacts cache unavailable", zap.String("path", cfg.ContactsCache), zap.Error(err))
		return nil
	}
	return r
}

func provideReader(cfg *config.Config, resolver contacts.Resolver, logger *zap.Logger) (*chatdb.Reader, error) {
	reader, err := chatdb.Open(cfg.ChatDBPath, resolver, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("chat database opened", zap.String("path", cfg.ChatDBPath))
	return reader, nil
}

func provideSender(logger *zap.Logger) send.Sender {
	return send.NewAppleScript(logger)
}

func providePoller(reader *chatdb.Reader, b *bus.Bus, machine *status.Machine, cfg *config.Config, logger *zap.Logger) *poll.Poller {
	return poll.New(reader, b, machine, cfg.PollInterval(), logger)
}

func provideHub(reader *chatdb.Reader, b *bus.Bus, logger *zap.Logger) *httpapi.Hub {
	return httpapi.NewHub(reader, b, logger)
}

func provideServer(cfg *config.Config, reader *chatdb.Reader, hub *httpapi.Hub, sender send.Sender, machine *status.Machine, logger *zap.Logger) *httpapi.Server {
	opts := httpapi.Options{
		ListenAddr:     cfg.ListenAddr,
		AttachmentRoot: cfg.AttachmentRoot,
	}
	return httpapi.NewServer(opts, reader, hub, sender, machine, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *httpapi.Server, hub *httpapi.Hub, poller *poll.Poller, reader *chatdb.Reader, lk *lock.Lock, machine *status.Machine, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			hub.Run(context.Background())
			poller.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
					_ = machine.Transition(status.Error)
				}
			}()

			logger.Info("daemon started", zap.String("listen", cfg.ListenAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			poller.Stop()
			hub.Stop()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("error shutting down http server", zap.Error(err))
			}
			_ = machine.Transition(status.Stopped)
			if err := reader.Close(); err != nil {
				logger.Warn("error closing chat database", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
