package internal

import (
	"context"
	"errors"
	connectivity_adapter "favorites-sync/internal/adapters/connectivity"
	firestore_adapter "favorites-sync/internal/adapters/firestore"
	"favorites-sync/internal/adapters/identity"
	"favorites-sync/internal/adapters/localstorage"
	logger_adapter "favorites-sync/internal/adapters/logger"
	postgres_adapter "favorites-sync/internal/adapters/postgres"
	rabbitmq_adapter "favorites-sync/internal/adapters/rabbitmq"
	"favorites-sync/internal/adapters/rest"
	"favorites-sync/internal/configs"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/offline_store"
	"favorites-sync/internal/core/port"
	"favorites-sync/internal/core/usecase"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	fluentlogger "favorites-sync/pkg/fluent_logger"
	"favorites-sync/pkg/postgres"
	"favorites-sync/pkg/rabbitmq/rabbitmq_common"
	"favorites-sync/pkg/rabbitmq/rabbitmq_producer"

	"cloud.google.com/go/firestore"
	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Options - параметры запуска, приходящие из командной строки.
type Options struct {
	EnvPath string
	// Offline принудительно выключает сеть: оракул ручной и всегда офлайн.
	Offline bool
	// LogWriter - куда писать stdout-логи. Для CLI-команд это stderr.
	LogWriter io.Writer
}

// remoteStore - удаленное хранилище, которое умеет проверять свою доступность.
type remoteStore interface {
	port.RemoteFavoritesStorePort
	port.HealthCheckerPort
}

type UseCases struct {
	Get       *usecase.GetFavoritesUseCase
	Projected *usecase.GetProjectedFavoritesUseCase
	Add       *usecase.AddFavoriteUseCase
	Remove    *usecase.RemoveFavoriteUseCase
	Pending   *usecase.GetPendingActionsUseCase
	Replay    *usecase.ReplayQueueUseCase
}

type App struct {
	config *configs.AppConfig

	dbPool          *pgxpool.Pool
	firestoreClient *firestore.Client
	localStore      io.Closer
	rabbitConn      *rabbitmq_common.ConnectionManager
	rabbitProducer  *rabbitmq_producer.Publisher

	oracle   port.ConnectivityOraclePort
	prober   *connectivity_adapter.Prober
	sessions *identity.Sessions
	identity port.IdentityProviderPort
	useCases UseCases
	replayer *usecase.ReplayOnReconnect

	fluentClient *fluent.Fluent
	baseLogger   port.LoggerPort
	logger       port.LoggerPort
}

func NewApp(ctx context.Context, opts Options) (*App, error) {
	appConfig, err := configs.LoadConfig(opts.EnvPath)
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	app := &App{config: appConfig}
	if err := app.initLoggers(opts.LogWriter); err != nil {
		return nil, err
	}

	// При ошибке инициализации закрываем все, что уже успели открыть.
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	remote, err := app.initRemoteStore(ctx)
	if err != nil {
		return nil, err
	}

	storage, err := app.initLocalStorage(ctx)
	if err != nil {
		return nil, err
	}

	cacheStore, err := offline_store.NewCacheStore(storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}
	queueStore, err := offline_store.NewQueueStore(storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue store: %w", err)
	}

	if err := app.initOracle(remote, opts.Offline); err != nil {
		return nil, err
	}

	syncEvents, err := app.initSyncEvents(ctx)
	if err != nil {
		return nil, err
	}

	app.identity = identity.NewStatic(appConfig.UserID)
	app.sessions = identity.NewBoundedSessions(appConfig.Rest.SessionsLimit, appConfig.UserID)

	locks := usecase.NewUserLocks()
	mutator := usecase.NewFavoritesMutator(remote, cacheStore, queueStore, app.oracle)
	getUseCase := usecase.NewGetFavoritesUseCase(remote, cacheStore, app.oracle, locks)
	app.useCases = UseCases{
		Get:       getUseCase,
		Projected: usecase.NewGetProjectedFavoritesUseCase(getUseCase, queueStore, locks),
		Add:       usecase.NewAddFavoriteUseCase(mutator, locks),
		Remove:    usecase.NewRemoveFavoriteUseCase(mutator, locks),
		Pending:   usecase.NewGetPendingActionsUseCase(queueStore, locks),
		Replay:    usecase.NewReplayQueueUseCase(mutator, queueStore, syncEvents, locks),
	}

	app.replayer, err = usecase.NewReplayOnReconnect(app.oracle, app.sessions, app.useCases.Replay, app.baseLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconnect replayer: %w", err)
	}

	app.logger.Info("Application initialized", port.Fields{
		"remote_store": appConfig.Remote.Driver,
		"local_store":  appConfig.Local.Driver,
		"offline":      opts.Offline,
		"sync_events":  syncEvents != nil,
	})
	ok = true
	return app, nil
}

func (a *App) initLoggers(writer io.Writer) error {
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Writer:   writer,
		Level:    parseLogLevel(a.config.StdoutLogger.Level),
		IsJSON:   a.config.StdoutLogger.JSON,
		UseColor: !a.config.StdoutLogger.JSON,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if a.config.FluentBit.Enabled {
		fluentClient, err := fluentlogger.NewClient(fluentlogger.Config{
			Host:      a.config.FluentBit.Host,
			Port:      a.config.FluentBit.Port,
			TagPrefix: a.config.AppName,
			Async:     true,
			Timeout:   3 * time.Second,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(a.config.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return err
		}
		a.fluentClient = fluentClient
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return fmt.Errorf("failed to create multi-logger: %w", err)
	}

	a.baseLogger = multiLogger.WithFields(port.Fields{"service_name": a.config.AppName})
	a.logger = a.baseLogger.WithFields(port.Fields{"component": "app"})
	a.logger.Debug("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": a.config.FluentBit.Enabled,
	})
	return nil
}

func (a *App) initRemoteStore(ctx context.Context) (remoteStore, error) {
	switch a.config.Remote.Driver {
	case configs.RemoteFirestore:
		client, err := firestore.NewClient(ctx, a.config.Remote.FirestoreProjectID)
		if err != nil {
			a.logger.Error("Failed to create Firestore client", err, nil)
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		a.firestoreClient = client

		repo, err := firestore_adapter.NewFirestoreFavoritesRepository(client, a.config.Remote.FirestoreCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore favorites repository: %w", err)
		}
		a.logger.Info("Firestore client created", port.Fields{"project_id": a.config.Remote.FirestoreProjectID})
		return repo, nil

	default:
		// Пул ленивый: без сети приложение стартует, схема создается при первом запросе.
		dbPool, err := postgres.NewClient(ctx, postgres.Config{
			DatabaseURL:    a.config.Remote.DatabaseURL,
			ConnectTimeout: 10 * time.Second,
			Lazy:           true,
		})
		if err != nil {
			a.logger.Error("Failed to create PostgreSQL pool", err, nil)
			return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
		}
		a.dbPool = dbPool
		a.logger.Info("PostgreSQL pool created", nil)

		repo, err := postgres_adapter.NewPostgresFavoritesRepository(dbPool)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres storage adapter: %w", err)
		}
		return repo, nil
	}
}

func (a *App) initLocalStorage(ctx context.Context) (port.LocalStoragePort, error) {
	var (
		storage interface {
			port.LocalStoragePort
			io.Closer
		}
		err error
	)

	switch a.config.Local.Driver {
	case configs.LocalSQLite:
		storage, err = localstorage.OpenSQLite(ctx, a.config.Local.Path)
	case configs.LocalRedis:
		storage, err = localstorage.NewRedisStorage(ctx, &redis.Options{
			Addr: a.config.Local.RedisAddr,
			DB:   a.config.Local.RedisDB,
		}, a.config.AppName+":")
	case configs.LocalMemory:
		a.logger.Warn("Using in-memory local storage, offline queue will not survive a restart", nil)
		storage = localstorage.NewMemoryStorage()
	default:
		storage, err = localstorage.OpenLevelDB(a.config.Local.Path)
	}
	if err != nil {
		a.logger.Error("Failed to open local storage", err, port.Fields{"driver": a.config.Local.Driver})
		return nil, fmt.Errorf("failed to open %s local storage: %w", a.config.Local.Driver, err)
	}

	a.localStore = storage
	a.logger.Info("Local storage opened", port.Fields{"driver": a.config.Local.Driver, "path": a.config.Local.Path})
	return storage, nil
}

func (a *App) initOracle(remote remoteStore, offline bool) error {
	if offline {
		a.oracle = connectivity_adapter.NewManual(false)
		a.logger.Info("Offline mode forced", nil)
		return nil
	}

	var checker port.HealthCheckerPort = remote
	if a.config.Connectivity.ProbeURL != "" {
		httpChecker, err := connectivity_adapter.NewHTTPChecker(a.config.Connectivity.ProbeURL, a.config.Connectivity.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create connectivity checker: %w", err)
		}
		checker = httpChecker
	}

	prober, err := connectivity_adapter.NewProber(checker, connectivity_adapter.ProberConfig{
		Interval: a.config.Connectivity.Interval,
		Timeout:  a.config.Connectivity.Timeout,
	}, a.baseLogger)
	if err != nil {
		return fmt.Errorf("failed to create connectivity prober: %w", err)
	}
	a.prober = prober
	a.oracle = prober
	return nil
}

// initSyncEvents возвращает nil, если RabbitMQ выключен. Соединение с брокером
// устанавливается в фоне, недоступный брокер не мешает старту.
func (a *App) initSyncEvents(ctx context.Context) (port.SyncEventsPublisherPort, error) {
	if !a.config.RabbitMQ.Enabled {
		return nil, nil
	}

	bridge := rabbitmq_adapter.NewPkgLoggerBridge(a.baseLogger.WithFields(port.Fields{"component": "rabbitmq"}))

	connManager, err := rabbitmq_common.NewConnectionManager(ctx,
		rabbitmq_common.Config{URL: a.config.RabbitMQ.URL},
		bridge,
		rabbitmq_common.WithBackgroundConnect(),
	)
	if err != nil {
		a.logger.Error("Failed to create RabbitMQ connection manager", err, nil)
		return nil, fmt.Errorf("failed to create RabbitMQ connection manager: %w", err)
	}
	a.rabbitConn = connManager

	producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		ExchangeName:             a.config.RabbitMQ.Exchange,
		ExchangeType:             "topic",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		LazyChannel:              true,
		Logger:                   bridge,
	}, connManager)
	if err != nil {
		a.logger.Error("Failed to create RabbitMQ producer", err, nil)
		return nil, fmt.Errorf("failed to create RabbitMQ producer: %w", err)
	}
	a.rabbitProducer = producer

	publisher, err := rabbitmq_adapter.NewSyncEventsPublisher(producer, a.config.RabbitMQ.RoutingKey)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Sync events publisher ready", port.Fields{
		"exchange": a.config.RabbitMQ.Exchange, "routing_key": a.config.RabbitMQ.RoutingKey,
	})
	return publisher, nil
}

// Context возвращает контекст с логгером приложения для одноразовых операций.
func (a *App) Context(ctx context.Context) context.Context {
	return contextkeys.ContextWithLogger(ctx, a.baseLogger)
}

// UseCases открывает use cases для CLI.
func (a *App) UseCases() UseCases {
	return a.useCases
}

// CurrentUserID - пользователь из USER_ID.
func (a *App) CurrentUserID(ctx context.Context) (string, error) {
	return a.identity.CurrentUserID(ctx)
}

// Online выполняет одну проверку сети (если оракул опрашивающий) и
// возвращает ее результат.
func (a *App) Online(ctx context.Context) bool {
	if a.prober != nil {
		return a.prober.ProbeOnce(ctx)
	}
	return a.oracle.IsOnline(ctx)
}

// Run запускает REST API, опрос сети и воспроизведение очередей при
// восстановлении связи. Блокируется до сигнала или ошибки сервера.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	handlers, err := rest.NewFavoritesHandler(rest.FavoritesHandlerDeps{
		Get:       a.useCases.Get,
		Projected: a.useCases.Projected,
		Add:       a.useCases.Add,
		Remove:    a.useCases.Remove,
		Pending:   a.useCases.Pending,
		Replay:    a.useCases.Replay,
		Identity:  identity.FromContext{},
		Oracle:    a.oracle,
	})
	if err != nil {
		return fmt.Errorf("failed to create REST handlers: %w", err)
	}
	apiServer := rest.NewServer(rest.ServerConfig{
		Port:           a.config.Rest.PORT,
		AllowedOrigins: a.config.Rest.AllowedOrigins,
	}, handlers, a.sessions, a.baseLogger)

	a.replayer.Start()

	proberDone := make(chan struct{})
	if a.prober != nil {
		go func() {
			defer close(proberDone)
			a.prober.Run(contextkeys.ContextWithLogger(appCtx, a.baseLogger))
		}()
	} else {
		close(proberDone)
	}

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}

		a.replayer.Stop()
		cancelApp()
		<-proberDone

		a.Close()
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("Server failed to start, shutting down", err, nil)
		return err
	}

	return nil
}

// Close освобождает внешние ресурсы. Безопасно вызывать повторно.
func (a *App) Close() {
	if a.rabbitProducer != nil {
		if err := a.rabbitProducer.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ producer", err, nil)
		}
		a.rabbitProducer = nil
	}
	if a.rabbitConn != nil {
		if err := a.rabbitConn.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
		a.rabbitConn = nil
	}

	if a.localStore != nil {
		if err := a.localStore.Close(); err != nil {
			a.logger.Error("Error closing local storage", err, nil)
		}
		a.localStore = nil
	}

	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
		a.dbPool = nil
	}
	if a.firestoreClient != nil {
		if err := a.firestoreClient.Close(); err != nil {
			a.logger.Error("Error closing Firestore client", err, nil)
		}
		a.firestoreClient = nil
	}

	if a.fluentClient != nil {
		a.logger.Debug("Closing fluent client", nil)
		if err := a.fluentClient.Close(); err != nil {
			// fluent может быть уже недоступен
			fmt.Fprintf(os.Stderr, "ERROR: Error closing fluent client: %v\n", err)
		}
		a.fluentClient = nil
	}
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
