// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	authHTTP "github.com/pixelgrid/authcore/internal/auth/http"
	authRepository "github.com/pixelgrid/authcore/internal/auth/repository"
	authService "github.com/pixelgrid/authcore/internal/auth/service"
	authUseCase "github.com/pixelgrid/authcore/internal/auth/usecase"
	"github.com/pixelgrid/authcore/internal/config"
	"github.com/pixelgrid/authcore/internal/database"
	"github.com/pixelgrid/authcore/internal/http"
	"github.com/pixelgrid/authcore/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	redisClient *redis.Client

	// Managers
	txManager database.TxManager

	// Services
	signingKeys         *authService.SigningKeySet
	secretService       authService.SecretService
	credentialValidator authService.CredentialValidator
	tokenSigner         authService.TokenSigner

	// Repositories
	apiKeyRepo authUseCase.ApiKeyRepository

	// Use Cases
	actorResolver authUseCase.ActorResolver
	apiKeyUseCase authUseCase.ApiKeyUseCase

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	redisClientInit         sync.Once
	txManagerInit           sync.Once
	signingKeysInit         sync.Once
	secretServiceInit       sync.Once
	credentialValidatorInit sync.Once
	tokenSignerInit         sync.Once
	apiKeyRepoInit          sync.Once
	actorResolverInit       sync.Once
	apiKeyUseCaseInit       sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// SigningKeySet returns the parsed token signing key set.
func (c *Container) SigningKeySet() (*authService.SigningKeySet, error) {
	var err error
	c.signingKeysInit.Do(func() {
		c.signingKeys, err = authService.NewSigningKeySet(
			c.config.AuthSigningKey,
			c.config.AuthSigningKeyPrevious,
		)
		if err != nil {
			c.initErrors["signingKeys"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeys"]; exists {
		return nil, storedErr
	}
	return c.signingKeys, nil
}

// SecretService returns the secret generation and comparison service.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// CredentialValidator returns the bearer credential validator.
func (c *Container) CredentialValidator() (authService.CredentialValidator, error) {
	var err error
	c.credentialValidatorInit.Do(func() {
		c.credentialValidator, err = c.initCredentialValidator()
		if err != nil {
			c.initErrors["credentialValidator"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialValidator"]; exists {
		return nil, storedErr
	}
	return c.credentialValidator, nil
}

// TokenSigner returns the auth token signer.
func (c *Container) TokenSigner() (authService.TokenSigner, error) {
	var err error
	c.tokenSignerInit.Do(func() {
		c.tokenSigner, err = c.initTokenSigner()
		if err != nil {
			c.initErrors["tokenSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenSigner"]; exists {
		return nil, storedErr
	}
	return c.tokenSigner, nil
}

// RedisClient returns the Redis client used by the API key cache.
func (c *Container) RedisClient() *redis.Client {
	c.redisClientInit.Do(func() {
		c.redisClient = redis.NewClient(&redis.Options{
			Addr: c.config.KeyCacheRedisAddr,
		})
	})
	return c.redisClient
}

// ApiKeyRepository returns the API key repository based on database driver.
// When the key cache is enabled the repository is wrapped in a Redis
// read-through cache.
func (c *Container) ApiKeyRepository() (authUseCase.ApiKeyRepository, error) {
	var err error
	c.apiKeyRepoInit.Do(func() {
		c.apiKeyRepo, err = c.initApiKeyRepository()
		if err != nil {
			c.initErrors["apiKeyRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyRepo"]; exists {
		return nil, storedErr
	}
	return c.apiKeyRepo, nil
}

// ActorResolver returns the actor resolver instance.
func (c *Container) ActorResolver() (authUseCase.ActorResolver, error) {
	var err error
	c.actorResolverInit.Do(func() {
		c.actorResolver, err = c.initActorResolver()
		if err != nil {
			c.initErrors["actorResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["actorResolver"]; exists {
		return nil, storedErr
	}
	return c.actorResolver, nil
}

// ApiKeyUseCase returns the API key use case instance.
func (c *Container) ApiKeyUseCase() (authUseCase.ApiKeyUseCase, error) {
	var err error
	c.apiKeyUseCaseInit.Do(func() {
		c.apiKeyUseCase, err = c.initApiKeyUseCase()
		if err != nil {
			c.initErrors["apiKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.apiKeyUseCase, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider.
// Returns nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// Returns a no-op implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with all routes configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
// Returns nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close Redis client if initialized
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initCredentialValidator creates the credential validator from the signing key set.
func (c *Container) initCredentialValidator() (authService.CredentialValidator, error) {
	keys, err := c.SigningKeySet()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing keys for credential validator: %w", err)
	}
	return authService.NewCredentialValidator(
		keys,
		c.config.AuthTrustedIssuer,
		c.config.AuthClockSkew,
	), nil
}

// initTokenSigner creates the token signer from the signing key set.
func (c *Container) initTokenSigner() (authService.TokenSigner, error) {
	keys, err := c.SigningKeySet()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing keys for token signer: %w", err)
	}
	return authService.NewTokenSigner(keys, c.config.AuthTrustedIssuer), nil
}

// initApiKeyRepository creates the API key repository instance.
func (c *Container) initApiKeyRepository() (authUseCase.ApiKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for api key repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	var repo authUseCase.ApiKeyRepository
	switch c.config.DBDriver {
	case "mysql":
		repo = authRepository.NewMySQLApiKeyRepository(db)
	case "postgres":
		repo = authRepository.NewPostgreSQLApiKeyRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	if c.config.KeyCacheEnabled {
		repo = authRepository.NewRedisApiKeyCache(
			repo,
			c.RedisClient(),
			c.config.KeyCacheTTL,
			c.Logger(),
		)
	}

	return repo, nil
}

// initActorResolver creates the actor resolver with all its dependencies.
func (c *Container) initActorResolver() (authUseCase.ActorResolver, error) {
	apiKeyRepo, err := c.ApiKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for actor resolver: %w", err)
	}

	resolver := authUseCase.NewActorResolver(c.config, apiKeyRepo, c.SecretService())

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for actor resolver: %w", err)
	}

	return authUseCase.NewActorResolverWithMetrics(resolver, businessMetrics), nil
}

// initApiKeyUseCase creates the API key use case with all its dependencies.
func (c *Container) initApiKeyUseCase() (authUseCase.ApiKeyUseCase, error) {
	apiKeyRepo, err := c.ApiKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for api key use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for api key use case: %w", err)
	}

	useCase := authUseCase.NewApiKeyUseCase(apiKeyRepo, c.SecretService(), txManager)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for api key use case: %w", err)
	}

	return authUseCase.NewApiKeyUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(
		provider.MeterProvider(),
		c.config.MetricsNamespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all routes configured.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	validator, err := c.CredentialValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential validator for http server: %w", err)
	}

	resolver, err := c.ActorResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get actor resolver for http server: %w", err)
	}

	signer, err := c.TokenSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get token signer for http server: %w", err)
	}

	apiKeyUseCase, err := c.ApiKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for http server: %w", err)
	}

	logger := c.Logger()

	var metricsMiddleware gin.HandlerFunc
	if provider, err := c.MetricsProvider(); err == nil && provider != nil {
		metricsMiddleware = metrics.HTTPMetricsMiddleware(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(http.RouterConfig{
		Config:            c.config,
		ApiKeyHandler:     authHTTP.NewApiKeyHandler(apiKeyUseCase, logger),
		SessionHandler:    authHTTP.NewSessionHandler(signer, c.config.AuthTokenExpiration, logger),
		PermissionHandler: authHTTP.NewPermissionHandler(logger),
		AuthenticationMiddleware: authHTTP.AuthenticationMiddleware(
			validator,
			resolver,
			logger,
		),
		MetricsMiddleware: metricsMiddleware,
	})

	return server, nil
}

// initMetricsServer creates the metrics HTTP server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
