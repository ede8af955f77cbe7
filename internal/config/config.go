package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rl1809/vending-machine/internal/core/machine"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	RedisAddr      string
	CacheDriver    string
	DBDriver       string
	DBDSN          string
	MachineID      string
	ChangeStrategy string
	WorkerCount    int
	QueueSize      int
}

var defaultDSN = map[string]string{
	DriverMySQL:  "root:root@tcp(localhost:3306)/vending?parseTime=true",
	DriverSQLite: "file:vending.db?_pragma=busy_timeout(5000)",
}

// Load reads the .env file named by ENV_FILE (default ".env") if present.
// Process environment variables take precedence over the file.
func Load() (Config, error) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	file, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	env := source{file: file}

	cfg := Config{
		HTTPAddr:       env.get("HTTP_ADDR", ":8080"),
		GRPCAddr:       env.get("GRPC_ADDR", ":50051"),
		RedisAddr:      env.get("REDIS_ADDR", "localhost:6379"),
		CacheDriver:    strings.ToLower(env.get("CACHE_DRIVER", CacheRedis)),
		DBDriver:       strings.ToLower(env.get("DB_DRIVER", DriverMySQL)),
		MachineID:      env.get("MACHINE_ID", ""),
		ChangeStrategy: strings.ToLower(env.get("CHANGE_STRATEGY", machine.StrategyGreedy)),
	}

	switch cfg.CacheDriver {
	case CacheRedis, CacheMemory:
	default:
		return Config{}, fmt.Errorf("CACHE_DRIVER: unsupported value %q", cfg.CacheDriver)
	}

	dsn, ok := defaultDSN[cfg.DBDriver]
	if !ok {
		return Config{}, fmt.Errorf("DB_DRIVER: unsupported value %q", cfg.DBDriver)
	}
	cfg.DBDSN = env.get("DB_DSN", dsn)

	if _, err := machine.NewStrategy(cfg.ChangeStrategy); err != nil {
		return Config{}, fmt.Errorf("CHANGE_STRATEGY: %w", err)
	}

	if cfg.WorkerCount, err = env.positiveInt("WORKER_COUNT", 10); err != nil {
		return Config{}, err
	}
	if cfg.QueueSize, err = env.positiveInt("QUEUE_SIZE", 10000); err != nil {
		return Config{}, err
	}

	if cfg.MachineID == "" {
		cfg.MachineID = defaultMachineID()
	}
	return cfg, nil
}

// defaultMachineID must be stable across restarts: snapshots and journal
// rows are keyed by it.
func defaultMachineID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "default"
}

type source struct {
	file map[string]string
}

func (s source) get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v := s.file[key]; v != "" {
		return v
	}
	return fallback
}

func (s source) positiveInt(key string, fallback int) (int, error) {
	raw := s.get(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", key, raw)
	}
	return n, nil
}
