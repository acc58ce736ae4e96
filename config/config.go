package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	ServerPort     string
	StorageBackend string

	MongoURI             string
	MongoDBName          string
	MongoTasksCollection string
	MongoUsersCollection string

	JWTSecret string
	JWTTTL    time.Duration

	LogFile  string
	LogLevel string

	CORSOrigin     string
	CassandraHosts []string
	SeedFile       string
}

// Load reads an optional .env file and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		ServerPort:           getenv("SERVER_PORT", "8002"),
		StorageBackend:       strings.ToLower(getenv("STORAGE_BACKEND", BackendMongo)),
		MongoURI:             getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:          getenv("MONGO_DB_NAME", "tasks_db"),
		MongoTasksCollection: getenv("MONGO_TASKS_COLLECTION", "tasks"),
		MongoUsersCollection: getenv("MONGO_USERS_COLLECTION", "users"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		LogFile:              getenv("LOG_FILE", "logs/tasks.log"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		CORSOrigin:           getenv("CORS_ORIGIN", "*"),
		CassandraHosts:       splitList(os.Getenv("CASS_DB")),
		SeedFile:             os.Getenv("SEED_FILE"),
	}

	ttl, err := time.ParseDuration(getenv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set in the environment variables")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("SERVER_PORT must be numeric, got %q", c.ServerPort)
	}
	switch c.StorageBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
