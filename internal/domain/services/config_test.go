package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

type MockConfigLoader struct {
	mock.Mock
}

func (m *MockConfigLoader) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Config), args.Error(1)
}

func (m *MockConfigLoader) LoadLocal(ctx context.Context, dir string) (*entities.Config, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Config), args.Error(1)
}

func (m *MockConfigLoader) LoadFile(path string) (*entities.Config, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Config), args.Error(1)
}

func (m *MockConfigLoader) CreateDefaults(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockConfigLoader) GetGlobalPath() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfigLoader) GetLocalPath(dir string) string {
	args := m.Called(dir)
	return args.String(0)
}

type MockConfigMerger struct {
	mock.Mock
}

func (m *MockConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	args := m.Called(configs)
	return args.Get(0).(*entities.Config)
}

func (m *MockConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	args := m.Called(config, flags)
	return args.Get(0).(*entities.Config)
}

func (m *MockConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	args := m.Called(config)
	return args.Get(0).(*entities.Config)
}

func configWithPort(port int) *entities.Config {
	return &entities.Config{Server: entities.ServerConfig{Host: "localhost", Port: port}}
}

func mergeOf(n int) interface{} {
	return mock.MatchedBy(func(configs []*entities.Config) bool { return len(configs) == n })
}

func TestConfigService_Resolve(t *testing.T) {
	t.Run("layers in precedence order", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}

		defaults, global, local := configWithPort(1), configWithPort(2), configWithPort(3)
		merged, envCfg, final := configWithPort(3), configWithPort(4), configWithPort(5)
		flags := map[string]interface{}{"port": 5}

		merger.On("Merge", mergeOf(0)).Return(defaults).Once()
		loader.On("LoadGlobal", mock.Anything).Return(global, nil)
		loader.On("LoadLocal", mock.Anything, "/deck").Return(local, nil)
		merger.On("Merge", mock.MatchedBy(func(configs []*entities.Config) bool {
			return len(configs) == 3 && configs[0] == defaults && configs[1] == global && configs[2] == local
		})).Return(merged)
		merger.On("ApplyEnvVars", merged).Return(envCfg)
		merger.On("ApplyFlags", envCfg, flags).Return(final)

		result, err := NewConfigService(loader, merger).Resolve(context.Background(),
			ports.ConfigRequest{WorkingDir: "/deck", Flags: flags})

		require.NoError(t, err)
		assert.Same(t, final, result)
		loader.AssertExpectations(t)
		merger.AssertExpectations(t)
	})

	t.Run("explicit file replaces the local lookup", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}
		cfg := configWithPort(4300)

		merger.On("Merge", mock.Anything).Return(cfg)
		merger.On("ApplyEnvVars", cfg).Return(cfg)
		merger.On("ApplyFlags", cfg, mock.Anything).Return(cfg)
		loader.On("LoadGlobal", mock.Anything).Return(cfg, nil)
		loader.On("LoadFile", "/etc/deck.toml").Return(cfg, nil)

		_, err := NewConfigService(loader, merger).Resolve(context.Background(),
			ports.ConfigRequest{WorkingDir: "/deck", File: "/etc/deck.toml"})

		require.NoError(t, err)
		loader.AssertNotCalled(t, "LoadLocal", mock.Anything, mock.Anything)
	})

	errorCases := []struct {
		name  string
		setup func(loader *MockConfigLoader, merger *MockConfigMerger)
		req   ports.ConfigRequest
		want  string
	}{
		{
			name: "global error",
			setup: func(loader *MockConfigLoader, merger *MockConfigMerger) {
				merger.On("Merge", mock.Anything).Return(&entities.Config{})
				loader.On("LoadGlobal", mock.Anything).Return(nil, errors.New("denied"))
			},
			want: "loading global config",
		},
		{
			name: "local error",
			setup: func(loader *MockConfigLoader, merger *MockConfigMerger) {
				merger.On("Merge", mock.Anything).Return(&entities.Config{})
				loader.On("LoadGlobal", mock.Anything).Return(&entities.Config{}, nil)
				loader.On("LoadLocal", mock.Anything, "").Return(nil, errors.New("bad toml"))
			},
			want: "loading local config",
		},
		{
			name: "explicit file error",
			setup: func(loader *MockConfigLoader, merger *MockConfigMerger) {
				merger.On("Merge", mock.Anything).Return(&entities.Config{})
				loader.On("LoadGlobal", mock.Anything).Return(&entities.Config{}, nil)
				loader.On("LoadFile", "x.toml").Return(nil, errors.New("missing"))
			},
			req:  ports.ConfigRequest{File: "x.toml"},
			want: "loading config file",
		},
		{
			name: "validation error",
			setup: func(loader *MockConfigLoader, merger *MockConfigMerger) {
				invalid := configWithPort(70000)
				merger.On("Merge", mock.Anything).Return(invalid)
				merger.On("ApplyEnvVars", invalid).Return(invalid)
				merger.On("ApplyFlags", invalid, mock.Anything).Return(invalid)
				loader.On("LoadGlobal", mock.Anything).Return(invalid, nil)
				loader.On("LoadLocal", mock.Anything, mock.Anything).Return(nil, nil)
			},
			want: "final config validation",
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			loader := &MockConfigLoader{}
			merger := &MockConfigMerger{}
			tc.setup(loader, merger)

			_, err := NewConfigService(loader, merger).Resolve(context.Background(), tc.req)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestConfigService_Validate(t *testing.T) {
	svc := NewConfigService(&MockConfigLoader{}, &MockConfigMerger{})

	assert.NoError(t, svc.Validate(configWithPort(4300)))
	assert.Error(t, svc.Validate(nil))
	assert.Error(t, svc.Validate(&entities.Config{Preview: entities.PreviewConfig{Transition: "spin"}}))
}

func TestConfigService_InitGlobal(t *testing.T) {
	t.Run("writes defaults", func(t *testing.T) {
		loader := &MockConfigLoader{}
		loader.On("GetGlobalPath").Return("/home/u/.config/diapoai/config.toml")
		loader.On("CreateDefaults", mock.Anything, "/home/u/.config/diapoai/config.toml").Return(nil)

		path, err := NewConfigService(loader, &MockConfigMerger{}).InitGlobal(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/home/u/.config/diapoai/config.toml", path)
	})

	t.Run("propagates errors", func(t *testing.T) {
		loader := &MockConfigLoader{}
		loader.On("GetGlobalPath").Return("/ro/config.toml")
		loader.On("CreateDefaults", mock.Anything, mock.Anything).Return(errors.New("read-only"))

		_, err := NewConfigService(loader, &MockConfigMerger{}).InitGlobal(context.Background())
		assert.ErrorContains(t, err, "read-only")
	})
}
