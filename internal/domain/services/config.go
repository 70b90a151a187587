package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// ConfigService resolves the effective configuration of a command
type ConfigService struct {
	loader ports.ConfigLoader
	merger ports.ConfigMerger
}

// NewConfigService creates a new configuration service
func NewConfigService(loader ports.ConfigLoader, merger ports.ConfigMerger) *ConfigService {
	return &ConfigService{
		loader: loader,
		merger: merger,
	}
}

// Resolve layers defaults, the global file, the local or explicit file,
// DIAPOAI_* variables and flags, then validates the result
func (s *ConfigService) Resolve(ctx context.Context, req ports.ConfigRequest) (*entities.Config, error) {
	layers := []*entities.Config{s.Defaults()}

	global, err := s.loader.LoadGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	layers = append(layers, global)

	project, err := s.projectConfig(ctx, req)
	if err != nil {
		return nil, err
	}
	layers = append(layers, project)

	cfg := s.merger.ApplyFlags(s.merger.ApplyEnvVars(s.merger.Merge(layers...)), req.Flags)

	if err := s.Validate(cfg); err != nil {
		return nil, fmt.Errorf("final config validation: %w", err)
	}

	return cfg, nil
}

func (s *ConfigService) projectConfig(ctx context.Context, req ports.ConfigRequest) (*entities.Config, error) {
	if req.File != "" {
		cfg, err := s.loader.LoadFile(req.File)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		return cfg, nil
	}

	cfg, err := s.loader.LoadLocal(ctx, req.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("loading local config: %w", err)
	}
	return cfg, nil
}

// Defaults returns the default configuration
func (s *ConfigService) Defaults() *entities.Config {
	return s.merger.Merge()
}

// Validate rejects nil and invalid configurations
func (s *ConfigService) Validate(config *entities.Config) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}
	return config.Validate()
}

// InitGlobal (re)writes the global file with defaults
func (s *ConfigService) InitGlobal(ctx context.Context) (string, error) {
	path := s.loader.GetGlobalPath()
	if err := s.loader.CreateDefaults(ctx, path); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
