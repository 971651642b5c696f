package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-memes/config"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
request:
  endpoint: http://memes.internal:2233
  timeout: 5s
  max_retries: 2
  headers:
    Authorization: Bearer x
locale: en-US
disabled_memes: ["*_gif", petpet]
shortcuts: true
`))
	require.NoError(t, err)

	assert.Equal(t, "http://memes.internal:2233", cfg.Request.Endpoint)
	d, err := cfg.Request.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
	assert.Equal(t, 2, cfg.Request.MaxRetries)
	assert.Equal(t, "Bearer x", cfg.Request.Headers["Authorization"])
	assert.Equal(t, "en-US", cfg.Locale)
	assert.Equal(t, []string{"*_gif", "petpet"}, cfg.DisabledMemes)
	assert.True(t, cfg.Shortcuts)
	assert.Equal(t, config.DefaultCommandName, cfg.CommandName)
	assert.Len(t, cfg.ClientOptions(), 3)
	assert.Len(t, cfg.BuilderOptions(), 2)
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "   \n", "# nothing here\n", "request: {}\n"} {
		cfg, err := config.Parse([]byte(doc))
		require.NoError(t, err, doc)
		assert.Equal(t, config.DefaultEndpoint, cfg.Request.Endpoint)
		assert.Equal(t, config.DefaultTimeout, cfg.Request.Timeout)
		assert.Equal(t, config.DefaultLocale, cfg.Locale)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: "endpoint: http://x\n"},
		{name: "wrong type", doc: "shortcuts: maybe\n"},
		{name: "negative retries", doc: "request:\n  max_retries: -1\n"},
		{name: "bad timeout", doc: "request:\n  timeout: soon\n"},
		{name: "bad scheme", doc: "request:\n  endpoint: ftp://x\n"},
		{name: "bad glob", doc: "disabled_memes: ['[oops']\n"},
		{name: "bad command name", doc: "command_name: Memes API\n"},
		{name: "not yaml", doc: "request: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locale: en-US\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en-US", cfg.Locale)

	missing, err := config.Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), missing)
}

func TestMarshalRoundTrip(t *testing.T) {
	out, err := config.Marshal(config.Default())
	require.NoError(t, err)

	cfg, err := config.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestSchema(t *testing.T) {
	raw, err := config.Schema()
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal(raw, &s))
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "request")
	assert.Contains(t, props, "disabled_memes")
	assert.Equal(t, false, s["additionalProperties"])
}
