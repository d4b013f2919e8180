package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/application/services"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/infrastructure/metrics"
	"github.com/taskmaster/tracker/internal/ports"
)

// Options holds the persistent flags of the root command
type Options struct {
	ConfigFile string
	Email      string
	Password   string
}

// app is the wired core used by one command invocation
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	auth    *services.AuthService
	users   *services.UserService
	tasks   *services.TaskService
}

func newApp(opts *Options) (*app, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger = appLogger.WithSessionID(uuid.NewString())

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	users := repository.NewUserRepository(repository.FileConfig{
		Path:    cfg.Storage.UsersPath(),
		Metrics: m,
	})
	tasks := repository.NewTaskRepository(repository.FileConfig{
		Path:         cfg.Storage.TasksPath(),
		AtomicWrites: cfg.Storage.AtomicWrites,
		Metrics:      m,
	}, users, appLogger)
	logs := repository.NewLogRepository(repository.FileConfig{
		Path:         cfg.Storage.LogsPath(),
		AtomicWrites: cfg.Storage.AtomicWrites,
		Metrics:      m,
	}, nil)

	svcOpts := services.Options{Strict: cfg.Storage.Strict, Metrics: m}

	return &app{
		cfg:     cfg,
		logger:  appLogger,
		metrics: m,
		auth:    services.NewAuthService(users, appLogger, svcOpts),
		users:   services.NewUserService(users, appLogger, svcOpts),
		tasks:   services.NewTaskService(tasks, logs, users, appLogger, svcOpts),
	}, nil
}

// login resolves the --email and --password flags to the current user
func (a *app) login(ctx context.Context, opts *Options) (*entities.User, error) {
	user, err := a.auth.Login(ctx, ports.LoginRequest{Email: opts.Email, Password: opts.Password})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// close exports metrics and flushes the logger
func (a *app) close() {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warnw("Failed to write metrics textfile", "error", err)
	}
	_ = a.logger.Close()
}
