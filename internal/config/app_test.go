package config

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireEnv(t *testing.T) {
	t.Setenv("RAYSWEEP_A", "a")
	t.Setenv("RAYSWEEP_EMPTY", "")

	values, err := requireEnv("RAYSWEEP_A", "RAYSWEEP_EMPTY")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", ""}, values)

	_, err = requireEnv("RAYSWEEP_A", "RAYSWEEP_B", "RAYSWEEP_C")
	assert.EqualError(t, err, "env variables not set: RAYSWEEP_B, RAYSWEEP_C")
}

func TestSecret(t *testing.T) {
	_, err := secret("RAYSWEEP_SECRET")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("hunter2\n"), 0o600))
	t.Setenv("RAYSWEEP_SECRET_FILE", path)
	value, err := secret("RAYSWEEP_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(value))

	t.Setenv("RAYSWEEP_SECRET", " inline ")
	value, err = secret("RAYSWEEP_SECRET")
	require.NoError(t, err)
	assert.Equal(t, " inline ", string(value))
}

func TestDevelopment(t *testing.T) {
	assert.False(t, Development())
	t.Setenv("DEVELOPMENT", "0")
	assert.False(t, Development())
	t.Setenv("DEVELOPMENT", "1")
	assert.True(t, Development())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("game over", slog.Int64("gameSessionId", 3))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "game over", entry["msg"])
	assert.Equal(t, 3.0, entry["gameSessionId"])

	t.Setenv("DEVELOPMENT", "1")
	logger = NewLogger(&buf)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func writePEM(t *testing.T, dir, name, blockType string, der []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNewJWTFromKeyFiles(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	t.Setenv("JWT_PRIVATE_KEY_FILE",
		writePEM(t, dir, "jwt.key", "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)))
	t.Setenv("JWT_PUBLIC_KEY_FILE",
		writePEM(t, dir, "jwt.pub", "PUBLIC KEY", publicDER))

	j, err := NewJWT()
	require.NoError(t, err)
	assert.Equal(t, defaultTokenLifetime, j.TokenLifetime())

	token, err := j.Sign(NewPlayerClaims(4, "ada"))
	require.NoError(t, err)
	parsed, err := j.ParseWithClaims(token, &PlayerClaims{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), parsed.Claims.(*PlayerClaims).PlayerId)

	t.Setenv("JWT_LIFETIME", "2h")
	j, err = NewJWT()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, j.TokenLifetime())

	t.Setenv("JWT_LIFETIME", "forever")
	_, err = NewJWT()
	assert.Error(t, err)
}
