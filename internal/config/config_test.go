package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Store:   StoreConfig{Backend: BackendMemory, Collection: "inventory", Timeout: time.Second},
		MongoDB: MongoDBConfig{URI: "mongodb://localhost:27017", DBName: "stockroom"},
		Auth:    AuthConfig{Provider: AuthLocal, JWTSecret: "secret", TokenTTL: time.Hour},
		Export:  ExportConfig{CronSchedule: "0 20 * * *", SheetRange: "Inventory!A:G"},
	}
}

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_NamesMissingVariable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = "" }, "APP_PORT"},
		{"backend", func(c *Config) { c.Store.Backend = "sqlite" }, "STORE_BACKEND"},
		{"mongo uri", func(c *Config) { c.Store.Backend = BackendMongoDB; c.MongoDB.URI = "" }, "MONGODB_URI"},
		{"firestore project", func(c *Config) { c.Store.Backend = BackendFirestore }, "FIRESTORE_PROJECT_ID"},
		{"jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }, "AUTH_JWT_SECRET"},
		{"firebase key", func(c *Config) { c.Auth.Provider = AuthFirebase }, "FIREBASE_API_KEY"},
		{"provider", func(c *Config) { c.Auth.Provider = "ldap" }, "AUTH_PROVIDER"},
		{"timeout", func(c *Config) { c.Store.Timeout = 0 }, "STORE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}

func TestLoad_FromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "STORE_BACKEND=memory\nAUTH_JWT_SECRET=from-file\nSTORE_TIMEOUT=3s\nAPP_PORT=9090\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	for _, key := range []string{"STORE_BACKEND", "AUTH_JWT_SECRET", "STORE_TIMEOUT", "APP_PORT", "AUTH_PROVIDER"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_TIMEOUT")
}
