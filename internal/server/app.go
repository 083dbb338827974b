// Package server assembles and runs the BoardPack API server: PostgreSQL
// with embedded migrations, Redis-backed realtime fan-out, S3 presigned
// document storage, and the gin HTTP surface.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/logging"
	"github.com/mpodriezov/boardpack/internal/server/config"
	"github.com/mpodriezov/boardpack/internal/server/httpapi"
	"github.com/mpodriezov/boardpack/internal/server/realtime"
	"github.com/mpodriezov/boardpack/internal/server/repositories/repomanager"
	"github.com/mpodriezov/boardpack/internal/server/services"
	"github.com/mpodriezov/boardpack/internal/server/storage"
)

// presenceTTL bounds how long a participant stays "present" without a
// heartbeat. Clients beat every 10s, so one missed beat survives.
const presenceTTL = 30 * time.Second

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redisClient *redis.Client
	repos       repomanager.RepositoryManager
	userService *services.UserService
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	hub := realtime.NewHub(redisClient, presenceTTL)

	store := storage.NewS3Store(cfg)

	userService := services.NewUserService(db, repos, cfg)
	applicationService := services.NewApplicationService(db, repos, hub)
	documentService := services.NewDocumentService(db, repos, store, hub, cfg)
	messageService := services.NewMessageService(db, repos, hub)

	handler := httpapi.NewHandler(logger, userService, applicationService, documentService, messageService, hub)
	router := httpapi.NewRouter(cfg, logger, handler)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		repos:       repos,
		userService: userService,
		httpServer:  httpapi.NewHTTPServer(cfg, router),
	}, nil
}

// bootstrapAdmin provisions the operator account given via -bootstrap-admin.
// An existing account with the same email is not an error, so the flag can
// stay in the service unit across restarts.
func (app *App) bootstrapAdmin(ctx context.Context) error {
	if app.config.BootstrapAdmin == "" {
		return nil
	}
	parts := strings.SplitN(app.config.BootstrapAdmin, ":", 4)
	if len(parts) != 4 {
		return fmt.Errorf("bootstrap-admin: want email:full name:role:password, got %d parts", len(parts))
	}
	_, err := app.userService.CreateUser(ctx, parts[0], parts[1], parts[2], parts[3])
	if errors.Is(err, common.ErrorConflict) {
		app.logger.Info(ctx, "bootstrap account already exists", "email", parts[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap-admin: %w", err)
	}
	app.logger.Info(ctx, "bootstrap account created", "email", parts[0], "role", parts[2])
	return nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	if err := app.bootstrapAdmin(ctx); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(gCtx, "starting http server", "addr", app.config.EndpointAddr)
		err := app.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		app.logger.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http server shutdown error", "error", err)
		}
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error(shutdownCtx, "redis close error", "error", err)
		}
		if err := app.db.Close(); err != nil {
			app.logger.Error(shutdownCtx, "db close error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
