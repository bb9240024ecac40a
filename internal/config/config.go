package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Log      LogConfig
	Executor ExecutorConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type DBConfig struct {
	Driver  string
	Path    string
	Host    string
	Port    int
	User    string
	Pass    string
	Name    string
	SSLMode string
	DSN     string
	Debug   bool
}

type LogConfig struct {
	Level  string
	Format string
}

type ExecutorConfig struct {
	BlockPrivateTargets bool
}

func LoadConfig() (*Config, error) {
	dbConfig, err := loadDBConfig()
	if err != nil {
		return nil, err
	}

	blockPrivate, err := getEnvBool("BLOCK_PRIVATE_TARGETS", false)
	if err != nil {
		return nil, err
	}

	serverConfig := ServerConfig{
		Port:        getEnv("SERVER_PORT", "3001"),
		ReadTimeout: 15 * time.Second,
		// outbound calls may take up to 30s
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    60 * time.Second,
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	return &Config{
		Server: serverConfig,
		DB:     dbConfig,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "INFO"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Executor: ExecutorConfig{
			BlockPrivateTargets: blockPrivate,
		},
	}, nil
}

func loadDBConfig() (DBConfig, error) {
	debug, err := getEnvBool("DB_DEBUG", false)
	if err != nil {
		return DBConfig{}, err
	}

	dbConfig := DBConfig{
		Driver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		Debug:  debug,
	}

	switch dbConfig.Driver {
	case DriverSQLite:
		dbConfig.Path = getEnv("DB_PATH", "./database.sqlite")
		dbConfig.DSN = dbConfig.Path
	case DriverPostgres:
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			dbConfig.DSN = dsn
			return dbConfig, nil
		}
		dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
		if err != nil {
			return DBConfig{}, fmt.Errorf("invalid DB_PORT: %v", err)
		}
		dbConfig.Host = os.Getenv("DB_HOST")
		dbConfig.Port = dbPort
		dbConfig.User = os.Getenv("DB_USER")
		dbConfig.Pass = os.Getenv("DB_PASS")
		dbConfig.Name = os.Getenv("DB_NAME")
		dbConfig.SSLMode = getEnv("DB_SSLMODE", "disable")
		dbConfig.DSN = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dbConfig.Host, dbConfig.Port, dbConfig.User, dbConfig.Pass, dbConfig.Name, dbConfig.SSLMode,
		)
	default:
		return DBConfig{}, fmt.Errorf("unsupported DB_DRIVER: %q", dbConfig.Driver)
	}

	return dbConfig, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
