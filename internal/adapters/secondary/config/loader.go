package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// LocalConfigName is the per-project config file looked up next to the input
const LocalConfigName = "diapoai.toml"

// TOMLLoader implements ports.ConfigLoader with TOML files
type TOMLLoader struct {
	globalPath string
	localName  string
}

// NewTOMLLoader creates a loader for ~/.config/diapoai/config.toml
func NewTOMLLoader() *TOMLLoader {
	homeDir, _ := os.UserHomeDir()
	return NewTOMLLoaderAt(filepath.Join(homeDir, ".config", "diapoai", "config.toml"))
}

// NewTOMLLoaderAt creates a loader with an explicit global path
func NewTOMLLoaderAt(globalPath string) *TOMLLoader {
	return &TOMLLoader{
		globalPath: globalPath,
		localName:  LocalConfigName,
	}
}

// LoadGlobal loads the global file, writing the defaults on first run
func (l *TOMLLoader) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	if _, err := os.Stat(l.globalPath); os.IsNotExist(err) {
		if err := l.CreateDefaults(ctx, l.globalPath); err != nil {
			return nil, fmt.Errorf("creating defaults: %w", err)
		}
	}

	return l.LoadFile(l.globalPath)
}

// LoadLocal loads dir/diapoai.toml; a missing file is not an error
func (l *TOMLLoader) LoadLocal(_ context.Context, dir string) (*entities.Config, error) {
	localPath := filepath.Join(dir, l.localName)

	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		return nil, nil
	}

	return l.LoadFile(localPath)
}

// CreateDefaults writes the default configuration to path
func (l *TOMLLoader) CreateDefaults(_ context.Context, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	file, err := os.Create(path) // #nosec G304 - path is the configured global config path
	if err != nil {
		return fmt.Errorf("creating config file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := toml.NewEncoder(file)
	encoder.Indent = "  "

	if err := encoder.Encode(GetDefaultConfig()); err != nil {
		return fmt.Errorf("encoding config to %s: %w", path, err)
	}

	return nil
}

// GetGlobalPath returns the path to the global configuration file
func (l *TOMLLoader) GetGlobalPath() string {
	return l.globalPath
}

// GetLocalPath returns the path to the local configuration file for a directory
func (l *TOMLLoader) GetLocalPath(dir string) string {
	return filepath.Join(dir, l.localName)
}

// LoadFile reads and validates one config file. Unknown keys are rejected.
func (l *TOMLLoader) LoadFile(path string) (*entities.Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the global/local lookup or --config
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var config entities.Config
	md, err := toml.Decode(string(data), &config)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML from %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	config.Defined = make(map[string]bool)
	for _, key := range md.Keys() {
		config.Defined[key.String()] = true
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	return &config, nil
}

var _ ports.ConfigLoader = (*TOMLLoader)(nil)
