package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env
	for _, name := range []string{"PORT", "UPSTREAM_PROVIDER", "FORCE_AURORA", "REDIS_URL", "HUME_API_URL", "PUBLIC_DIR"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ProviderHume, cfg.UpstreamProvider)
	assert.Equal(t, "wss://api.hume.ai/v0/evi/chat", cfg.HumeAPIURL)
	assert.Equal(t, "public", cfg.PublicDir)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.False(t, cfg.ForceAurora)
	assert.Equal(t, time.Second, cfg.MockReplyDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.MockAudioDelay)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("UPSTREAM_PROVIDER", "mock")
	t.Setenv("FORCE_AURORA", "true")
	t.Setenv("REDIS_URL", "")
	t.Setenv("MOCK_REPLY_DELAY_MS", "10")
	t.Setenv("SESSION_TIMEOUT", "5")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ProviderMock, cfg.UpstreamProvider)
	assert.True(t, cfg.ForceAurora)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 10*time.Millisecond, cfg.MockReplyDelay)
	assert.Equal(t, 5*time.Minute, cfg.SessionTimeout)
	assert.True(t, cfg.OriginAllowed("http://b.example"))
	assert.False(t, cfg.OriginAllowed("http://c.example"))
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("UPSTREAM_PROVIDER", "carrier-pigeon")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("UPSTREAM_PROVIDER", "")
	t.Setenv("PORT", "eighty")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestForceAuroraOnlyForExactTrue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORCE_AURORA", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.ForceAurora)
}

func TestHasHumeCredentials(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.HasHumeCredentials())

	cfg.HumeAPIKey = "key"
	assert.False(t, cfg.HasHumeCredentials())

	cfg.HumeAPISecret = "secret"
	assert.True(t, cfg.HasHumeCredentials())
}

func TestLoadMockScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
replies:
  - "I am very cold."
  - "Penguins live here."
recognized_text: "Who are you?"
`), 0o644))

	script, err := LoadMockScript(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"I am very cold.", "Penguins live here."}, script.Replies)
	assert.Equal(t, "Who are you?", script.RecognizedText)
}

func TestLoadMockScriptErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadMockScript(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("replies: []\n"), 0o644))
	_, err = LoadMockScript(empty)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("replies: [unclosed\n"), 0o644))
	_, err = LoadMockScript(broken)
	assert.Error(t, err)
}
