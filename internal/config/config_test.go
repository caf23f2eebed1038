package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsgen/internal/ics"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("uid_domain: example.com\nline_ending: CRLF\noutput:\n  extension: ical\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.UIDDomain)
	assert.Equal(t, ics.DefaultProductID, cfg.ProductID)
	assert.Equal(t, "crlf", cfg.LineEnding)
	assert.Equal(t, ".ical", cfg.Output.Extension)
	assert.Equal(t, ics.DefaultFilename, cfg.Output.Filename)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.ProductID = "-//Acme//Planner//EN"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_NilConfig(t *testing.T) {
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}

func TestNormalize_UnknownLineEnding(t *testing.T) {
	cfg := &Config{LineEnding: "cr"}
	cfg.Normalize()
	assert.Equal(t, "auto", cfg.LineEnding)
}

func TestResolveLineEnding(t *testing.T) {
	assert.Equal(t, ics.CRLF, (&Config{LineEnding: "crlf"}).ResolveLineEnding())
	assert.Equal(t, ics.LF, (&Config{LineEnding: "lf"}).ResolveLineEnding())
	assert.Equal(t, ics.PlatformLineEnding(runtime.GOOS), (&Config{LineEnding: "auto"}).ResolveLineEnding())
}

func TestDocumentOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.EscapeText = true

	opts, err := cfg.DocumentOptions()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, opts.Location)
	assert.True(t, opts.EscapeText)
	assert.Equal(t, ics.DefaultUIDDomain, opts.UIDDomain)

	cfg.Timezone = "Not/AZone"
	_, err = cfg.DocumentOptions()
	assert.Error(t, err)
}
