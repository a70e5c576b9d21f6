package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/config"
	"github.com/iliyamo/bookstore/internal/handler"
	"github.com/iliyamo/bookstore/internal/queue"
	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/router"
	"github.com/iliyamo/bookstore/internal/service"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand runs the HTTP API until SIGINT or SIGTERM.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, dialect, err := opts.openDB(ctx, e)
			if err != nil {
				return err
			}
			defer db.Close()

			deps := router.Deps{
				DB:        db,
				Sessions:  handler.NewSessionManager(e.cfg.SessionLifetime, e.cfg.IsProduction()),
				Cache:     config.LoadCacheConfig(),
				RateLimit: config.LoadRateLimitConfig(),
				JWTSecret: e.cfg.JWTSecret,
				LoginPath: e.cfg.LoginPath,
				Log:       e.log,
			}
			if rdb, err := config.NewRedisClient(ctx); err != nil {
				e.log.Warn("redis unavailable, cache and rate limit disabled", zap.Error(err))
			} else {
				deps.Redis = rdb
				defer rdb.Close()
			}

			srv := newServer(e, deps, repository.NewStore(db))
			addr := ":" + e.cfg.Port
			e.log.Info("listening", zap.String("addr", addr), zap.String("env", e.cfg.Env), zap.String("db", string(dialect)))

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(addr) }()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			e.log.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		},
	}
}

func authConfig(e *env) service.AuthConfig {
	return service.AuthConfig{
		JWTSecret:  e.cfg.JWTSecret,
		AccessTTL:  e.cfg.AccessTTL(),
		RefreshTTL: e.cfg.RefreshTTL(),
		BcryptCost: e.cfg.BcryptCost,
	}
}

// newServer builds the services and handlers on top of store.
func newServer(e *env, d router.Deps, store *repository.Store) *echo.Echo {
	var events service.EventPublisher
	if e.cfg.RabbitURL != "" {
		events = queue.NewPublisher(e.cfg.RabbitURL)
	}
	orders := service.NewOrderService(store, events, e.log)

	b := handler.Base{Flash: handler.NewFlash(d.Sessions), Log: e.log, LoginPath: e.cfg.LoginPath}
	return router.New(d, router.Handlers{
		Auth:      handler.NewAuthHandler(b, service.NewAuthService(store, authConfig(e))),
		Catalog:   handler.NewCatalogHandler(b, service.NewCatalogService(store)),
		Cart:      handler.NewCartHandler(b, service.NewCartService(store), orders),
		Orders:    handler.NewOrderHandler(b, orders),
		Comments:  handler.NewCommentHandler(b, service.NewCommentService(store)),
		Customers: handler.NewCustomerHandler(b, service.NewCustomerService(store)),
	})
}
