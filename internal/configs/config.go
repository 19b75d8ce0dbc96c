package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RemotePostgres  = "postgres"
	RemoteFirestore = "firestore"

	LocalLevelDB = "leveldb"
	LocalSQLite  = "sqlite"
	LocalRedis   = "redis"
	LocalMemory  = "memory"
)

type RemoteStoreConfig struct {
	Driver              string
	DatabaseURL         string
	FirestoreProjectID  string
	FirestoreCollection string
}

type LocalStoreConfig struct {
	Driver    string
	Path      string
	RedisAddr string
	RedisDB   int
}

type ConnectivityConfig struct {
	// ProbeURL - пустой URL означает проверку через удаленное хранилище.
	ProbeURL string
	Interval time.Duration
	Timeout  time.Duration
}

type RESTconfig struct {
	PORT           string
	AllowedOrigins []string
	// SessionsLimit - сколько пользователей REST помнить для воспроизведения
	// очередей. 0 - без ограничения.
	SessionsLimit int
}

type RabbitMQConfig struct {
	Enabled    bool
	URL        string
	Exchange   string
	RoutingKey string
}

type StdoutLogConfig struct {
	Level string
	JSON  bool
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	UserID       string
	Remote       RemoteStoreConfig
	Local        LocalStoreConfig
	Connectivity ConnectivityConfig
	Rest         RESTconfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из окружения. Файл .env по умолчанию
// необязателен; явно переданный путь должен существовать.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("could not load .env file (path: %s): %w", envPath[0], err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}

	cfg := &AppConfig{}
	cfg.AppName = getEnvAsString("APP_NAME", "favorites-sync")
	cfg.UserID = strings.TrimSpace(os.Getenv("USER_ID"))

	cfg.Remote.Driver = strings.ToLower(getEnvAsString("REMOTE_STORE_DRIVER", RemotePostgres))
	cfg.Remote.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.Remote.FirestoreProjectID = os.Getenv("FIRESTORE_PROJECT_ID")
	cfg.Remote.FirestoreCollection = getEnvAsString("FIRESTORE_COLLECTION", "users")
	switch cfg.Remote.Driver {
	case RemotePostgres:
		if cfg.Remote.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres remote store")
		}
	case RemoteFirestore:
		if cfg.Remote.FirestoreProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID environment variable is required for the firestore remote store")
		}
	default:
		return nil, fmt.Errorf("unknown REMOTE_STORE_DRIVER %q", cfg.Remote.Driver)
	}

	cfg.Local.Driver = strings.ToLower(getEnvAsString("LOCAL_STORE_DRIVER", LocalLevelDB))
	cfg.Local.RedisAddr = getEnvAsString("REDIS_ADDR", "localhost:6379")
	cfg.Local.RedisDB = getEnvAsInt("REDIS_DB", 0)
	switch cfg.Local.Driver {
	case LocalLevelDB:
		cfg.Local.Path = getEnvAsString("LOCAL_STORE_PATH", "favorites-data")
	case LocalSQLite:
		cfg.Local.Path = getEnvAsString("LOCAL_STORE_PATH", "favorites.db")
	case LocalRedis, LocalMemory:
	default:
		return nil, fmt.Errorf("unknown LOCAL_STORE_DRIVER %q", cfg.Local.Driver)
	}

	cfg.Connectivity.ProbeURL = os.Getenv("CONNECTIVITY_PROBE_URL")
	cfg.Connectivity.Interval = getEnvAsDuration("CONNECTIVITY_PROBE_INTERVAL", 15*time.Second)
	cfg.Connectivity.Timeout = getEnvAsDuration("CONNECTIVITY_PROBE_TIMEOUT", 5*time.Second)

	cfg.Rest.PORT = getEnvAsString("PORT", "8085")
	cfg.Rest.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.Rest.SessionsLimit = getEnvAsInt("SESSIONS_LIMIT", 1000)

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
		cfg.RabbitMQ.Exchange = getEnvAsString("SYNC_EVENTS_EXCHANGE", "favorites.events")
		cfg.RabbitMQ.RoutingKey = getEnvAsString("SYNC_EVENTS_ROUTING_KEY", "favorites.synced")
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "info")
	cfg.StdoutLogger.JSON = getEnvAsBool("STDOUT_LOG_JSON", false)

	return cfg, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Environment variable %s (value: %s) is not a positive duration. Using default value: %s\n", key, valStr, defaultValue)
		return defaultValue
	}
	return val
}
