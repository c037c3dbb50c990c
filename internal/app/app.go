// Package app initializes and runs the Lifeline service. It configures
// logging, storage, authentication, the alert dispatcher, the application
// controller, and routing, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/venkatnanaji21/Life-line-blood/internal/alerts"
	"github.com/venkatnanaji21/Life-line-blood/internal/auth"
	"github.com/venkatnanaji21/Life-line-blood/internal/config"
	"github.com/venkatnanaji21/Life-line-blood/internal/controller"
	"github.com/venkatnanaji21/Life-line-blood/internal/db/jsonstore"
	"github.com/venkatnanaji21/Life-line-blood/internal/db/memstore"
	"github.com/venkatnanaji21/Life-line-blood/internal/db/postgresstore"
	"github.com/venkatnanaji21/Life-line-blood/internal/db/storage"
	"github.com/venkatnanaji21/Life-line-blood/internal/ipchecker"
	"github.com/venkatnanaji21/Life-line-blood/internal/logger"
	"github.com/venkatnanaji21/Life-line-blood/internal/models"
	"github.com/venkatnanaji21/Life-line-blood/internal/router"
	"github.com/venkatnanaji21/Life-line-blood/internal/service"
	"github.com/venkatnanaji21/Life-line-blood/internal/toasts"
	"github.com/venkatnanaji21/Life-line-blood/internal/views"
)

const shutdownTimeout = 10 * time.Second

// App bundles the configuration, storage backend, background alert
// dispatcher, and HTTP handler needed to run the service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	alerts      *alerts.Dispatcher
	stopAlerts  context.CancelFunc
	httpHandler http.Handler
}

// New builds the application: configuration, logger, storage backend,
// record store service, authentication, alert dispatcher, application
// controller, and the router on top of them.
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	authCookieSigningSecretKey, err := app.cfg.GetAuthCookieSigningSecretKeyBytes()
	if err != nil {
		return nil, err
	}

	toastsBuffer := toasts.New()

	app.alerts = alerts.New(
		app.db,
		toastsBuffer,
		app.cfg.AlertChannelCapacity,
		app.cfg.DelayBetweenAlertFetches,
	)
	alertsRunCtx, stopAlerts := context.WithCancel(context.Background())
	app.stopAlerts = stopAlerts

	app.alerts.Run(alertsRunCtx)
	app.alerts.ListenErrors(func(err error) {
		logger.Log.Debugln("Error passed from the `app.alerts.ListenErrors()`:", zap.Error(err))
	})

	svc := service.New(app.db)

	ctrl := controller.New(svc, toastsBuffer, app.alerts, app.cfg.SplashScreenDelay)
	ctrl.Start(context.Background())

	viewsRenderer, err := views.New()
	if err != nil {
		return nil, err
	}

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		svc,
		ctrl,
		viewsRenderer,
		auth.New(
			app.db,
			app.cfg.AuthCookieName,
			authCookieSigningSecretKey,
		),
		app.alerts,
		ipChecker,
		toastsBuffer,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support. On a
// termination signal it stops the alert dispatcher, drains the server,
// and flushes the storage backend.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		a.stopAlerts()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresstore.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsonstore.New(cfg.DBFileName)
	}

	return memstore.New()
}
