package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMongoDB   = "mongodb"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Identity providers.
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Firestore FirestoreConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Sheets    SheetsConfig
	Export    ExportConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StoreConfig selects the document store backend shared by every repository.
type StoreConfig struct {
	Backend    string
	Collection string
	Timeout    time.Duration
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// FirestoreConfig holds settings for Cloud Firestore.
type FirestoreConfig struct {
	ProjectID string
}

// AuthConfig configures the identity provider and session tokens.
type AuthConfig struct {
	Provider          string
	JWTSecret         string
	TokenTTL          time.Duration
	FirebaseAPIKey    string
	FirebaseProjectID string
}

// RedisConfig holds the revocation store address. Empty means in-memory.
type RedisConfig struct {
	Addr     string
	Password string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the inventory export can run.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// ExportConfig holds scheduler-related settings.
type ExportConfig struct {
	CronSchedule string
	SheetRange   string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env files are fine when configuration comes from the environment
		_ = godotenv.Load()
	}

	storeTimeout, err := getDurationWithDefault("STORE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getDurationWithDefault("AUTH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getenvWithDefault("STORE_BACKEND", BackendMongoDB)),
			Collection: getenvWithDefault("INVENTORY_COLLECTION", "inventory"),
			Timeout:    storeTimeout,
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockroom"),
		},
		Firestore: FirestoreConfig{
			ProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),
		},
		Auth: AuthConfig{
			Provider:          strings.ToLower(getenvWithDefault("AUTH_PROVIDER", AuthLocal)),
			JWTSecret:         os.Getenv("AUTH_JWT_SECRET"),
			TokenTTL:          tokenTTL,
			FirebaseAPIKey:    os.Getenv("FIREBASE_API_KEY"),
			FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Export: ExportConfig{
			CronSchedule: getenvWithDefault("EXPORT_CRON_SCHEDULE", "0 20 * * *"),
			SheetRange:   getenvWithDefault("EXPORT_SHEET_RANGE", "Inventory!A:G"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Store.Collection == "" {
		return errors.New("INVENTORY_COLLECTION must not be empty")
	}

	if c.Store.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}

	switch c.Store.Backend {
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID must be provided")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND %q is not supported", c.Store.Backend)
	}

	switch c.Auth.Provider {
	case AuthLocal:
		if c.Auth.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET must be provided")
		}
		if c.Store.Backend == BackendFirestore {
			return errors.New("AUTH_PROVIDER local requires STORE_BACKEND mongodb or memory")
		}
	case AuthFirebase:
		if c.Auth.FirebaseAPIKey == "" {
			return errors.New("FIREBASE_API_KEY must be provided")
		}
		if c.Auth.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID must be provided")
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER %q is not supported", c.Auth.Provider)
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("AUTH_TOKEN_TTL must be positive")
	}

	if c.Sheets.Enabled() && c.Export.CronSchedule == "" {
		return errors.New("EXPORT_CRON_SCHEDULE must be provided when Sheets export is configured")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}
