package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, ".", cfg.Root)
	assert.True(t, cfg.Listing)
	assert.False(t, cfg.Cache)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8000", cfg.Address())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devserve.yaml")

	require.NoError(t, os.WriteFile(path, []byte(`
port: 8080
root: live
index:
  - main.html
mime:
  .data: application/octet-stream
  .mjs: text/javascript
live: true
sftp: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "live", cfg.Root)
	assert.Equal(t, []string{"main.html"}, cfg.Index)
	assert.Equal(t, "text/javascript", cfg.Mime[".mjs"])
	assert.True(t, cfg.Live)
	assert.True(t, cfg.SFTP)

	// absent keys keep their defaults
	assert.Equal(t, DefaultBind, cfg.Bind)
	assert.True(t, cfg.Listing)
	assert.Equal(t, DefaultSFTPPort, cfg.SFTPPort)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0o644))

	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"random port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, false},
		{"negative sftp port", func(c *Config) { c.SFTPPort = -1 }, false},
		{"empty root", func(c *Config) { c.Root = "" }, false},
		{"fallback", func(c *Config) { c.Fallback = "/app.html" }, true},
		{"fallback outside root", func(c *Config) { c.Fallback = "../app.html" }, false},
		{"bad mime", func(c *Config) { c.Mime = map[string]string{"wasm": "application/wasm"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()

			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAddressAllInterfaces(t *testing.T) {
	cfg := Default()
	cfg.Bind = ""

	assert.Equal(t, ":8000", cfg.Address())
}
