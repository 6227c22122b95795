package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/forvo-grabber/internal/constants"
	"github.com/oshokin/forvo-grabber/internal/pronunciation"
)

// newValidConfig returns a configuration that passes validation.
func newValidConfig() *Config {
	return &Config{
		APIKey:                 "test_key",
		Language:               "ru",
		OutputPath:             "/tmp/pronunciations",
		FilenameTemplate:       DefaultFilenameTemplate,
		LogLevel:               "info",
		DownloadSpeedLimit:     "1MB",
		RequestTimeout:         "30s",
		MaxConcurrentDownloads: 2,
		MaxDownloadPause:       "2s",
		ContributorBonus:       2,
		BonusContributors:      []string{"Spinster", "ae5s"},
		AnkiConnectURL:         DefaultAnkiConnectURL,
		ForvoBaseURL:           ForvoBaseURL,
	}
}

// TestConstants tests the constants.
func TestConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1024*1024, DefaultMaxLogLength)
	assert.Equal(t, "https://apifree.forvo.com", ForvoBaseURL)
	assert.Equal(t, "http://localhost:8765", DefaultAnkiConnectURL)
	assert.Equal(t, ".forvo-grabber.yaml", DefaultConfigFilename)
}

// TestLoadConfig tests the LoadConfig function.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		configFilename string
		configContent  string
		expectError    bool
		expectedError  string
	}{
		{
			name:           "valid config file",
			configFilename: "valid_config.yaml",
			configContent: `
api_key: "test_key"
language: "uk"
output_path: "/tmp/pronunciations"
filename_template: "{{.normalizedWord}}"
replace_files: true
write_tags: false
log_level: "debug"
download_speed_limit: "1MB"
max_concurrent_downloads: 4
max_download_pause: "5s"
contributor_bonus: 3
bonus_contributors:
  - "Spinster"
store_in_anki: true
`,
			expectError: false,
		},
		{
			name:           "non-existent file",
			configFilename: "non_existent.yaml",
			expectError:    true,
			expectedError:  "failed to read config from file",
		},
		{
			name:           "invalid yaml",
			configFilename: "invalid.yaml",
			configContent: `
invalid: yaml: content: [unclosed
`,
			expectError:   true,
			expectedError: "failed to read config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), tt.configFilename)

			if tt.configContent != "" {
				err := os.WriteFile(configPath, []byte(tt.configContent), constants.DefaultFilePermissions)
				require.NoError(t, err)
			}

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, "test_key", cfg.APIKey)
			assert.Equal(t, "uk", cfg.Language)
			assert.Equal(t, "{{.normalizedWord}}", cfg.FilenameTemplate)
			assert.True(t, cfg.ReplaceFiles)
			assert.False(t, cfg.WriteTags)
			assert.Equal(t, int64(4), cfg.MaxConcurrentDownloads)
			assert.Equal(t, int64(3), cfg.ContributorBonus)
			assert.Equal(t, []string{"Spinster"}, cfg.BonusContributors)
			assert.True(t, cfg.StoreInAnki)
			assert.Equal(t, configPath, cfg.ConfigFilename)

			// Keys absent from the file fall back to defaults.
			assert.Equal(t, "30s", cfg.RequestTimeout)
			assert.Equal(t, DefaultAnkiConnectURL, cfg.AnkiConnectURL)
			assert.Equal(t, ForvoBaseURL, cfg.ForvoBaseURL)
		})
	}
}

// TestLoadConfig_MissingDefaultFile tests that an absent default config file yields defaults.
func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Parallel()

	// The package directory has no .forvo-grabber.yaml.
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfigFilename, cfg.ConfigFilename)
	assert.Equal(t, DefaultLanguage, cfg.Language)
	assert.Equal(t, DefaultFilenameTemplate, cfg.FilenameTemplate)
	assert.Equal(t, ".", cfg.OutputPath)
	assert.True(t, cfg.WriteTags)
	assert.Equal(t, int64(1), cfg.MaxConcurrentDownloads)
	assert.Equal(t, pronunciation.DefaultContributorBonus, cfg.ContributorBonus)
	assert.Len(t, cfg.BonusContributors, len(pronunciation.DefaultBonusContributors()))
}

// TestLoadConfig_EnvironmentOverride tests that environment variables override file values.
//
//nolint:paralleltest // t.Setenv cannot be used in parallel tests.
func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	t.Setenv("FORVO_GRABBER_API_KEY", "env_key")
	t.Setenv("FORVO_GRABBER_LANGUAGE", "de")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte("api_key: \"file_key\"\n"), constants.DefaultFilePermissions)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env_key", cfg.APIKey)
	assert.Equal(t, "de", cfg.Language)
}

// TestValidateConfig tests the ValidateConfig function.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		modify      func(cfg *Config)
		expectedErr error
		errorMsg    string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:        "empty api key",
			modify:      func(cfg *Config) { cfg.APIKey = "" },
			expectedErr: ErrEmptyAPIKey,
		},
		{
			name:        "whitespace api key",
			modify:      func(cfg *Config) { cfg.APIKey = "   " },
			expectedErr: ErrEmptyAPIKey,
		},
		{
			name:        "invalid language",
			modify:      func(cfg *Config) { cfg.Language = "russian" },
			expectedErr: ErrInvalidLanguage,
		},
		{
			name:        "empty language",
			modify:      func(cfg *Config) { cfg.Language = "" },
			expectedErr: ErrInvalidLanguage,
		},
		{
			name:        "unknown log level",
			modify:      func(cfg *Config) { cfg.LogLevel = "verbose" },
			expectedErr: ErrUnknownLogLevel,
		},
		{
			name:     "invalid download speed limit",
			modify:   func(cfg *Config) { cfg.DownloadSpeedLimit = "fast" },
			errorMsg: "failed to parse download speed limit",
		},
		{
			name:     "invalid max download pause",
			modify:   func(cfg *Config) { cfg.MaxDownloadPause = "soon" },
			errorMsg: "failed to parse max download pause",
		},
		{
			name:        "negative max download pause",
			modify:      func(cfg *Config) { cfg.MaxDownloadPause = "-1s" },
			expectedErr: ErrInvalidMaxDownloadPause,
		},
		{
			name:        "zero request timeout",
			modify:      func(cfg *Config) { cfg.RequestTimeout = "0" },
			expectedErr: ErrInvalidRequestTimeout,
		},
		{
			name:        "zero concurrent downloads",
			modify:      func(cfg *Config) { cfg.MaxConcurrentDownloads = 0 },
			expectedErr: ErrInvalidConcurrentDownloads,
		},
		{
			name:        "zero contributor bonus",
			modify:      func(cfg *Config) { cfg.ContributorBonus = 0 },
			expectedErr: ErrInvalidContributorBonus,
		},
		{
			name:        "invalid forvo url",
			modify:      func(cfg *Config) { cfg.ForvoBaseURL = "ftp://apifree.forvo.com" },
			expectedErr: ErrInvalidURL,
		},
		{
			name: "invalid anki url is ignored when anki is off",
			modify: func(cfg *Config) {
				cfg.StoreInAnki = false
				cfg.AnkiConnectURL = "not a url"
			},
		},
		{
			name: "invalid anki url",
			modify: func(cfg *Config) {
				cfg.StoreInAnki = true
				cfg.AnkiConnectURL = "localhost"
			},
			expectedErr: ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newValidConfig()
			tt.modify(cfg)

			err := ValidateConfig(cfg)

			switch {
			case tt.expectedErr != nil:
				require.ErrorIs(t, err, tt.expectedErr)
			case tt.errorMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			default:
				require.NoError(t, err)
			}
		})
	}
}

// TestValidateConfig_DerivedFields tests the fields ValidateConfig derives.
func TestValidateConfig_DerivedFields(t *testing.T) {
	t.Parallel()

	cfg := newValidConfig()
	cfg.APIKey = "  key  "
	cfg.Language = " RU "
	cfg.LogLevel = "debug"
	cfg.FilenameTemplate = ""
	cfg.OutputPath = ""
	cfg.ForvoBaseURL = ""
	cfg.BonusContributors = []string{"Spinster", " ", "ae5s "}

	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "ru", cfg.Language)
	assert.Equal(t, zapcore.DebugLevel, cfg.ParsedLogLevel)
	assert.Equal(t, DefaultFilenameTemplate, cfg.FilenameTemplate)
	assert.Equal(t, ".", cfg.OutputPath)
	assert.Equal(t, ForvoBaseURL, cfg.ForvoBaseURL)
	assert.Equal(t, int64(1000000), cfg.ParsedDownloadSpeedLimit)
	assert.Equal(t, 2*time.Second, cfg.ParsedMaxDownloadPause)
	assert.Equal(t, 30*time.Second, cfg.ParsedRequestTimeout)
	assert.Equal(t,
		[]pronunciation.ContributorID{"Spinster", "ae5s"},
		cfg.ParsedBonusPolicy.Contributors())
	assert.Equal(t, int64(2), cfg.ParsedBonusPolicy.Bonus("ae5s"))
}

// TestValidateConfig_DownloadSpeedLimit tests speed limit parsing.
func TestValidateConfig_DownloadSpeedLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		limit    string
		expected int64
	}{
		{name: "empty disables the limit", limit: "", expected: 0},
		{name: "zero disables the limit", limit: "0", expected: 0},
		{name: "kilobytes", limit: "500KB", expected: 500000},
		{name: "kibibytes", limit: "1KiB", expected: 1024},
		{name: "megabytes with spaces", limit: " 1.5 MB ", expected: 1500000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newValidConfig()
			cfg.DownloadSpeedLimit = tt.limit

			require.NoError(t, ValidateConfig(cfg))
			assert.Equal(t, tt.expected, cfg.ParsedDownloadSpeedLimit)
		})
	}
}

// TestSaveConfig_ExistingFile tests that SaveConfig updates the key and keeps comments and order.
func TestSaveConfig_ExistingFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	original := `# Forvo settings.
language: "ru"
api_key: "old_key" # personal key
output_path: "./audio"
`
	require.NoError(t, os.WriteFile(configPath, []byte(original), constants.DefaultFilePermissions))

	cfg := &Config{APIKey: "new_key", ConfigFilename: configPath}
	require.NoError(t, SaveConfig(t.Context(), cfg))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "# Forvo settings.")
	assert.Contains(t, text, `api_key: "new_key" # personal key`)
	assert.NotContains(t, text, "old_key")
	assert.Less(t, strings.Index(text, "language"), strings.Index(text, "api_key"))
	assert.Less(t, strings.Index(text, "api_key"), strings.Index(text, "output_path"))
}

// TestSaveConfig_MissingKey tests that SaveConfig appends the key when the file lacks it.
func TestSaveConfig_MissingKey(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("language: uk\n"), constants.DefaultFilePermissions))

	cfg := &Config{APIKey: "new_key", ConfigFilename: configPath}
	require.NoError(t, SaveConfig(t.Context(), cfg))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, yaml.Unmarshal(content, &values))
	assert.Equal(t, map[string]string{"language": "uk", "api_key": "new_key"}, values)
}

// TestSaveConfig_NewFile tests that SaveConfig creates a config file with defaults.
func TestSaveConfig_NewFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &Config{APIKey: "new_key", ConfigFilename: configPath}
	require.NoError(t, SaveConfig(t.Context(), cfg))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "new_key", loaded.APIKey)
	assert.Equal(t, DefaultLanguage, loaded.Language)
}

// TestSaveConfig_Locked tests that SaveConfig gives up when another holder keeps the lock.
func TestSaveConfig_Locked(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("api_key: old\n"), constants.DefaultFilePermissions))

	holder := flock.New(configPath + constants.ExtensionLock)

	isLocked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, isLocked)

	defer holder.Unlock() //nolint:errcheck // Test cleanup, error is not critical.

	ctx, cancel := context.WithTimeout(t.Context(), 300*time.Millisecond)
	defer cancel()

	err = SaveConfig(ctx, &Config{APIKey: "new_key", ConfigFilename: configPath})
	require.ErrorIs(t, err, ErrConfigLocked)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "api_key: old\n", string(content))
}
