package ports

import (
	"context"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// ConfigLoader reads configuration files
type ConfigLoader interface {
	// LoadGlobal loads the global file, creating it with defaults on first run
	LoadGlobal(ctx context.Context) (*entities.Config, error)

	// LoadLocal loads the project file in dir; nil when there is none
	LoadLocal(ctx context.Context, dir string) (*entities.Config, error)

	// LoadFile loads an explicit file given with --config
	LoadFile(path string) (*entities.Config, error)

	// CreateDefaults writes the default configuration to path
	CreateDefaults(ctx context.Context, path string) error

	GetGlobalPath() string
	GetLocalPath(dir string) string
}

// ConfigMerger combines configuration layers
type ConfigMerger interface {
	// Merge merges configurations with later ones taking precedence
	Merge(configs ...*entities.Config) *entities.Config

	// ApplyFlags applies CLI flag overrides
	ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config

	// ApplyEnvVars applies environment variable overrides
	ApplyEnvVars(config *entities.Config) *entities.Config
}

// ConfigRequest describes where one command reads its configuration from
type ConfigRequest struct {
	// WorkingDir is searched for the local project file
	WorkingDir string

	// File replaces the local lookup when set
	File string

	// Flags are the CLI overrides, keyed by flag name
	Flags map[string]interface{}
}
