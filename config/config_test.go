package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("CASS_DB", " cass-1, cass-2 ,")
	t.Setenv("JWT_TTL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8002", cfg.ServerPort)
	assert.Equal(t, BackendMongo, cfg.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"cass-1", "cass-2"}, cfg.CassandraHosts)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("STORAGE_BACKEND=memory\nJWT_SECRET=from-file\n"), 0600))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_BACKEND", "")
	// godotenv.Load does not override variables that are already set, even
	// when empty, so unset them for this test.
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("STORAGE_BACKEND")

	cfg, err := Load(env)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: "x", ServerPort: "8080", StorageBackend: BackendMemory, JWTTTL: time.Hour}
	require.NoError(t, base.Validate())

	noSecret := base
	noSecret.JWTSecret = ""
	assert.Error(t, noSecret.Validate())

	badBackend := base
	badBackend.StorageBackend = "postgres"
	assert.Error(t, badBackend.Validate())

	badPort := base
	badPort.ServerPort = ":80"
	assert.Error(t, badPort.Validate())
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed([]byte(`
users:
  - name: Maja
    email: maja@example.com
    role: manager
    password: Str0ng!pass
  - name: Uros
    email: uros@example.com
    role: user
    password: An0ther!one
`))
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, "manager", seed.Users[0].Role)

	_, err = ParseSeed([]byte("users:\n  - email: a@b.c\n    password: x\n    role: admin\n"))
	assert.Error(t, err)
}
