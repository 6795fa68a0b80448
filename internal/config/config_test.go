package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":8080"
jwt:
  secret: from-file
  expires_in: 2
receipt:
  store_name: Corner Cafe
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGIN", "https://pos.example.com,https://admin.example.com")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/pos?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 2, cfg.JWT.ExpiresIn)
	assert.Equal(t, []string{"https://pos.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "postgres://u:p@db:5432/pos?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "Corner Cafe", cfg.Receipt.StoreName)
	// untouched sections keep their defaults
	assert.Equal(t, "123 ST, City, Country", cfg.Receipt.Address)
	assert.Equal(t, 5, cfg.LoginLimit.MaxAttempts)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "empty secret must be rejected")

	cfg.JWT.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.Reports.Location = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSNFromFields(t *testing.T) {
	d := Database{Host: "db", Port: 5433, User: "pos", Password: "pw", DBName: "shop", SSLMode: "require"}
	assert.Equal(t, "postgres://pos:pw@db:5433/shop?sslmode=require", d.DSN())
}

func TestDefaultAllowedOrigin(t *testing.T) {
	assert.Equal(t, []string{"http://localhost:5173"}, Default().CORS.AllowedOrigins)
}
