// Package server initializes and runs the ReadEase auth server.
// It selects storage backends, wires the auth service and serves the HTTP
// API until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/readease/readease/internal/logging"
	"github.com/readease/readease/internal/server/auth"
	"github.com/readease/readease/internal/server/config"
	"github.com/readease/readease/internal/server/httpapi"
	"github.com/readease/readease/internal/server/mail"
	"github.com/readease/readease/internal/server/repositories/memory"
	"github.com/readease/readease/internal/server/repositories/repomanager"
	"github.com/readease/readease/internal/server/repositories/tokens"
	"github.com/readease/readease/internal/server/services"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	redis       *redis.Client
	authService *services.AuthService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(slog.LevelInfo)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	rm, err := app.openRepositories(ctx)
	if err != nil {
		return nil, err
	}
	app.repos = rm

	tr, err := app.openTokenStore(ctx)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	codec := auth.NewCodec([]byte(c.SecretKey), auth.ExpirationPolicy{
		Access:        c.AccessTokenValidityDuration,
		Refresh:       c.RefreshTokenValidityDuration,
		ResetPassword: c.ResetPasswordTokenValidityDuration,
	})

	mailer, err := app.newMailer()
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	app.authService = services.NewAuthService(services.Deps{
		Users:  rm.Users(),
		Roles:  rm.Roles(),
		Tokens: tr,
		Codec:  codec,
		Hasher: auth.NewBcryptHasher(0),
		Mailer: mailer,
		Logger: logger,
	}, c)

	return app, nil
}

func (app *App) openRepositories(ctx context.Context) (repomanager.RepositoryManager, error) {
	var rm repomanager.RepositoryManager

	switch app.config.Storage {
	case config.StorageMemory:
		rm = repomanager.NewMemoryRepositoryManager()
	case config.StoragePostgres:
		db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", app.config.Storage)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return rm, nil
}

func (app *App) openTokenStore(ctx context.Context) (tokens.Repository, error) {
	backend := app.config.TokenBackend()

	switch {
	case backend == app.config.Storage:
		return app.repos.Tokens(), nil
	case backend == config.StorageMemory:
		return memory.NewTokenRepository(), nil
	case backend == config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = rdb
		return tokens.NewRedisRepository(rdb), nil
	default:
		return nil, fmt.Errorf("token store %q is not available with storage %q", backend, app.config.Storage)
	}
}

func (app *App) newMailer() (mail.Mailer, error) {
	if app.config.SMTPAddr == "" {
		return mail.NewLogMailer(app.logger, app.config.ResetPasswordURL), nil
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Addr:     app.config.SMTPAddr,
		User:     app.config.SMTPUser,
		Password: app.config.SMTPPassword,
		From:     app.config.MailFrom,
		LinkURL:  app.config.ResetPasswordURL,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) newHTTPServer() *httpapi.HTTPServer {
	return httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.authService, httpapi.CookieConfig{
		Domain: app.config.CookieDomain,
		Secure: app.config.CookieSecure,
	})
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.newHTTPServer().Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "token_store", app.config.TokenBackend())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}
