package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestTOMLLoader_LoadGlobal(t *testing.T) {
	t.Run("creates config on first run", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "nested", "config.toml")
		loader := NewTOMLLoaderAt(globalPath)

		config, err := loader.LoadGlobal(context.Background())
		require.NoError(t, err)

		_, err = os.Stat(globalPath)
		assert.NoError(t, err)

		assert.Equal(t, "localhost", config.Server.Host)
		assert.Equal(t, DefaultPort, config.Server.Port)
		assert.Equal(t, "#1B4D3E", config.Theme.Primary)
		assert.True(t, config.Preview.Controls)
		assert.Equal(t, "xml", config.Parser.ExportBackend)
		assert.Equal(t, 2000, config.Generation.PollIntervalMs)
		assert.True(t, config.Sanitizer.Enabled)
		assert.True(t, config.IsDefined("preview.controls"))
	})

	t.Run("loads existing config", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeFile(t, globalPath, `
[server]
host = "0.0.0.0"
port = 8080

[theme]
primary = "#112233"

[preview]
transition = "fade"
controls = false
`)

		config, err := NewTOMLLoaderAt(globalPath).LoadGlobal(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", config.Server.Host)
		assert.Equal(t, 8080, config.Server.Port)
		assert.Equal(t, "#112233", config.Theme.Primary)
		assert.Equal(t, "fade", config.Preview.Transition)
		assert.False(t, config.Preview.Controls)
		assert.True(t, config.IsDefined("preview.controls"))
		assert.False(t, config.IsDefined("preview.hash"))
	})

	t.Run("fails with invalid TOML", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeFile(t, globalPath, "[server\nport = ")

		_, err := NewTOMLLoaderAt(globalPath).LoadGlobal(context.Background())
		assert.ErrorContains(t, err, "parsing TOML")
	})

	t.Run("fails with invalid config values", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeFile(t, globalPath, "[preview]\ntransition = \"spin\"\n")

		_, err := NewTOMLLoaderAt(globalPath).LoadGlobal(context.Background())
		assert.ErrorContains(t, err, "preview config")
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		writeFile(t, globalPath, "[theme]\naccent = \"#000000\"\n")

		_, err := NewTOMLLoaderAt(globalPath).LoadGlobal(context.Background())
		assert.ErrorContains(t, err, "theme.accent")
	})
}

func TestTOMLLoader_LoadLocal(t *testing.T) {
	t.Run("loads existing local config", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, LocalConfigName), "[parser]\npreview_backend = \"xml\"\n")

		config, err := NewTOMLLoaderAt("unused").LoadLocal(context.Background(), dir)
		require.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, "xml", config.Parser.PreviewBackend)
	})

	t.Run("returns nil for missing local config", func(t *testing.T) {
		config, err := NewTOMLLoaderAt("unused").LoadLocal(context.Background(), t.TempDir())
		assert.NoError(t, err)
		assert.Nil(t, config)
	})

	t.Run("fails with invalid local config", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, LocalConfigName), "[generation]\nstatus_url = \"ftp://x\"\n")

		_, err := NewTOMLLoaderAt("unused").LoadLocal(context.Background(), dir)
		assert.ErrorContains(t, err, "generation config")
	})
}

func TestTOMLLoader_CreateDefaults(t *testing.T) {
	t.Run("writes a file that loads back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		loader := NewTOMLLoaderAt(path)

		require.NoError(t, loader.CreateDefaults(context.Background(), path))

		config, err := loader.LoadFile(path)
		require.NoError(t, err)

		defaults := GetDefaultConfig()
		assert.Equal(t, defaults.Server, config.Server)
		assert.Equal(t, defaults.Theme, config.Theme)
		assert.Equal(t, defaults.Export, config.Export)
	})

	t.Run("fails when the directory cannot be created", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		writeFile(t, blocker, "")

		err := NewTOMLLoaderAt("x").CreateDefaults(context.Background(), filepath.Join(blocker, "config.toml"))
		assert.Error(t, err)
	})
}

func TestTOMLLoader_Paths(t *testing.T) {
	loader := NewTOMLLoaderAt("/etc/diapoai/config.toml")
	assert.Equal(t, "/etc/diapoai/config.toml", loader.GetGlobalPath())
	assert.Equal(t, filepath.Join("/work", LocalConfigName), loader.GetLocalPath("/work"))

	assert.Contains(t, NewTOMLLoader().GetGlobalPath(), filepath.Join(".config", "diapoai", "config.toml"))
}

func TestTOMLLoader_LoadFileMissing(t *testing.T) {
	_, err := NewTOMLLoaderAt("x").LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	assert.ErrorContains(t, err, "reading config")
}
