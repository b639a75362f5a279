package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wwtpDashboard/internal/cache"
	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/database"
	"wwtpDashboard/internal/handlers"
	"wwtpDashboard/internal/ingest"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/middleware"
	"wwtpDashboard/internal/repository/sqlstore"
	"wwtpDashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	db        *database.DB
	cache     cache.Cache
	ingestor  *ingest.Ingestor
	shutdowns []func() // run in reverse order on Close
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init opens every dependency and builds the router. On error the
// resources opened so far are released.
func (a *App) Init(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := logger.Init(a.config.Logging.Development, a.config.Logging.Level); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	db, err := database.Open(ctx, a.config.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.shutdowns = append(a.shutdowns, func() {
		if err := db.Close(); err != nil {
			logger.Error("App: close database", err)
		}
	})
	logger.Info("App: database connected", zap.String("type", a.config.Database.Type))

	if a.config.Database.Migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	c, err := cache.New(a.config.Cache)
	if err != nil {
		// responses are still served uncached
		logger.Warn("App: cache unavailable", zap.Error(err))
		c = cache.Nop{}
	}
	a.cache = c
	a.shutdowns = append(a.shutdowns, func() { _ = c.Close() })

	taskRepo := sqlstore.NewTaskStorage(db)
	sensorRepo := sqlstore.NewSensorStorage(db)

	taskService := service.NewTaskService(taskRepo, service.WithImportColumns(a.config.Import.Columns))
	sensorService := service.NewSensorService(sensorRepo)
	exportService := service.NewExportService(taskRepo, sensorRepo)

	if a.config.MQTT.Broker != "" {
		ing, err := ingest.New(a.config.MQTT, sensorRepo)
		if err != nil {
			return fmt.Errorf("init ingest: %w", err)
		}
		a.ingestor = ing
	}

	a.router = handlers.NewRouter(handlers.Handlers{
		Tasks:   handlers.NewTaskHandler(taskService),
		Sensors: handlers.NewSensorHandler(sensorService, c, a.config.Cache.SeriesTTL, a.config.Cache.LatestTTL),
		Exports: handlers.NewExportHandler(exportService),
	},
		cors.Handler(cors.Options{
			AllowedOrigins: a.config.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", "X-Cache"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logging,
		middleware.Recoverer,
		middleware.RateLimit(a.config.RateLimit.RPM),
	)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}
	return nil
}

// Run serves HTTP, and ingests MQTT when configured, until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return errors.New("app: Run called before Init")
	}

	if a.ingestor != nil {
		if err := a.ingestor.Start(ctx); err != nil {
			return fmt.Errorf("start ingest: %w", err)
		}
		defer a.ingestor.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("App: server started", zap.String("addr", a.server.Addr))
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("App: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
