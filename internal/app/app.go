package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Notifuse/mailblocks/config"
	"github.com/Notifuse/mailblocks/internal/database"
	"github.com/Notifuse/mailblocks/internal/domain"
	httpHandler "github.com/Notifuse/mailblocks/internal/http"
	"github.com/Notifuse/mailblocks/internal/http/middleware"
	"github.com/Notifuse/mailblocks/internal/repository"
	"github.com/Notifuse/mailblocks/internal/service"
	"github.com/Notifuse/mailblocks/pkg/cache"
	"github.com/Notifuse/mailblocks/pkg/logger"
	"github.com/Notifuse/mailblocks/pkg/merge"
	"github.com/Notifuse/mailblocks/pkg/ratelimiter"
	"github.com/Notifuse/mailblocks/pkg/tracing"
	"github.com/Notifuse/mailblocks/pkg/tracking"

	"contrib.go.opencensus.io/integrations/ocsql"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetTemplateRepository() domain.TemplateRepository
	GetTemplateService() domain.TemplateService

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB

	templateRepo    domain.TemplateRepository
	templateService *service.TemplateService
	compileCache    *cache.Cache[*domain.CompileResult]
	rateLimiter     *ratelimiter.RateLimiter
	tracing         *tracing.Provider
	stopDBStats     func()

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

const (
	defaultShutdownTimeout = 30 * time.Second
	schemaTimeout          = 30 * time.Second
)

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use an already opened database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: shutdownTimeout,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing registers the OpenCensus exporters when tracing is enabled
func (a *App) InitTracing() error {
	provider, err := tracing.InitTracing(&a.config.Tracing, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracing = provider
	return nil
}

// InitDB opens the database, unless one was injected, and creates the schema
func (a *App) InitDB() error {
	if a.db == nil {
		password := a.config.Database.Password
		maskedPassword := ""
		if len(password) > 0 {
			maskedPassword = fmt.Sprintf("%c...%c", password[0], password[len(password)-1])
		}
		a.logger.WithFields(map[string]interface{}{
			"host":     a.config.Database.Host,
			"port":     a.config.Database.Port,
			"user":     a.config.Database.User,
			"dbname":   a.config.Database.DBName,
			"sslmode":  a.config.Database.SSLMode,
			"password": maskedPassword,
		}).Info("Connecting to database")

		driverName := "postgres"
		if a.config.Tracing.Enabled {
			var err error
			driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
			if err != nil {
				return fmt.Errorf("failed to register traced database driver: %w", err)
			}
			a.logger.Info("Database driver wrapped with OpenCensus tracing")
		}

		db, err := database.ConnectDriver(driverName, &a.config.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		if a.config.Tracing.Enabled {
			a.stopDBStats = ocsql.RecordStats(db, 5*time.Second)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	if err := database.InitializeDatabaseContext(ctx, a.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	a.logger.Info("Database schema ready")
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.templateRepo = repository.NewTemplateRepository(a.db)
	return nil
}

// InitServices initializes all services
func (a *App) InitServices() error {
	if a.templateRepo == nil {
		return fmt.Errorf("repositories must be initialized before services")
	}

	a.compileCache = cache.New[*domain.CompileResult](cache.Options{
		TTL:             a.config.Render.CacheTTL,
		CleanupInterval: a.config.Render.CacheCleanup,
		MaxEntries:      a.config.Render.CacheMaxEntries,
	})

	mergeEngine := merge.NewEngineWithOptions(a.config.Liquid.Timeout, a.config.Liquid.MaxTemplateSize)

	a.templateService = service.NewTemplateService(
		a.templateRepo,
		a.logger,
		a.compileCache,
		mergeEngine,
		tracking.UTM{
			Source: a.config.Export.UTMSource,
			Medium: a.config.Export.UTMMedium,
		},
	)

	return nil
}

// InitHandlers registers every HTTP route on the mux
func (a *App) InitHandlers() error {
	if a.templateService == nil {
		return fmt.Errorf("services must be initialized before handlers")
	}

	var limiter middleware.Limiter
	if perMinute := a.config.RateLimit.RenderPerMinute; perMinute > 0 {
		a.rateLimiter = ratelimiter.New(time.Minute)
		a.rateLimiter.SetPolicy(httpHandler.RenderLimitNamespace, ratelimiter.Policy{Limit: perMinute, Window: time.Minute})
		limiter = a.rateLimiter
		a.logger.WithField("per_minute", perMinute).Info("Render routes rate limited")
	}

	httpHandler.NewTemplateHandler(a.templateService, limiter, a.logger,
		httpHandler.WithTrustedProxyHeaders(a.config.RateLimit.TrustProxyHeaders),
	).RegisterRoutes(a.mux)
	httpHandler.NewHealthHandler(a.db, a.config.Version).RegisterRoutes(a.mux)

	return nil
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting mailblocks")

	if err := a.InitTracing(); err != nil {
		return err
	}

	if err := a.InitDB(); err != nil {
		return err
	}

	if err := a.InitRepositories(); err != nil {
		return err
	}

	if err := a.InitServices(); err != nil {
		return err
	}

	if err := a.InitHandlers(); err != nil {
		return err
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// Handler returns the mux wrapped in the shutdown and CORS middleware, and
// in the tracing middleware when tracing is enabled
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux
	handler = a.gracefulShutdownMiddleware(handler)
	handler = middleware.CORSMiddleware(a.config.Server.CORSOrigin)(handler)
	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}
	return handler
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info(fmt.Sprintf("Server starting on %s", addr))

	a.serverMu.Lock()
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})

	// a write may include one liquid render
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30*time.Second + a.config.Liquid.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	serverStarted := a.serverStarted
	server := a.server
	a.serverMu.Unlock()

	close(serverStarted)

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}

	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	// Signal shutdown to all components
	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources()
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	if shutdownErr == nil {
		done := make(chan struct{})
		go func() {
			a.requestWg.Wait()
			close(done)
		}()

		select {
		case <-done:
			a.logger.Info("All requests completed")
		case <-shutdownCtx.Done():
			a.logger.WithField("active_requests", a.getActiveRequestCount()).Warn("Some requests still active, proceeding with shutdown")
		}
	}

	if cleanupErr := a.cleanupResources(); cleanupErr != nil {
		a.logger.WithField("error", cleanupErr.Error()).Error("Error during resource cleanup")
		if shutdownErr == nil {
			shutdownErr = cleanupErr
		}
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}

	return shutdownErr
}

// cleanupResources stops the background goroutines and closes the database
func (a *App) cleanupResources() error {
	fields := map[string]interface{}{}
	if a.compileCache != nil {
		fields["cached_compiles"] = a.compileCache.Size()
		a.compileCache.Stop()
	}
	if a.rateLimiter != nil {
		fields["rate_limit_buckets"] = a.rateLimiter.Buckets()
		a.rateLimiter.Stop()
	}
	a.logger.WithFields(fields).Info("Cleaning up resources")

	if a.stopDBStats != nil {
		a.stopDBStats()
		a.stopDBStats = nil
	}
	if err := a.tracing.Shutdown(context.Background()); err != nil {
		a.logger.WithField("error", err.Error()).Warn("Error flushing trace exporters")
	}

	if a.db != nil {
		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}

	a.logger.Info("Resource cleanup completed")
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created and initialized.
// Returns true if the server started, false if ctx expired first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) GetTemplateRepository() domain.TemplateRepository {
	return a.templateRepo
}

func (a *App) GetTemplateService() domain.TemplateService {
	if a.templateService == nil {
		return nil
	}
	return a.templateService
}

func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout.String()).Info("Shutdown timeout configured")
}

// GetShutdownContext returns the context cancelled when shutdown starts
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks active requests and refuses new ones
// once shutdown has started
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
