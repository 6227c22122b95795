package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/forvo-grabber/internal/constants"
	"github.com/oshokin/forvo-grabber/internal/logger"
	"github.com/oshokin/forvo-grabber/internal/pronunciation"
	"github.com/oshokin/forvo-grabber/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// APIKey is the Forvo API key.
	APIKey string `mapstructure:"api_key"`
	// Language is the Forvo language code pronunciations are requested for.
	Language string `mapstructure:"language"`
	// OutputPath is the directory path where downloaded files will be saved.
	OutputPath string `mapstructure:"output_path"`
	// FilenameTemplate is the template for naming downloaded files.
	FilenameTemplate string `mapstructure:"filename_template"`
	// ReplaceFiles indicates whether to replace existing files.
	ReplaceFiles bool `mapstructure:"replace_files"`
	// WriteTags indicates whether to write ID3 tags into downloaded files.
	WriteTags bool `mapstructure:"write_tags"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// DownloadSpeedLimit sets the maximum download speed (e.g., "1MB", "500KB").
	DownloadSpeedLimit string `mapstructure:"download_speed_limit"`
	// RequestTimeout limits a single HTTP request (e.g., "30s").
	RequestTimeout string `mapstructure:"request_timeout"`
	// MaxConcurrentDownloads is the maximum number of words processed simultaneously.
	MaxConcurrentDownloads int64 `mapstructure:"max_concurrent_downloads"`
	// MaxDownloadPause is the maximum pause duration between downloads, "0" disables pauses.
	MaxDownloadPause string `mapstructure:"max_download_pause"`
	// ContributorBonus is the score added to recordings of trusted contributors.
	ContributorBonus int64 `mapstructure:"contributor_bonus"`
	// BonusContributors lists trusted contributors, matched exactly.
	BonusContributors []string `mapstructure:"bonus_contributors"`
	// StoreInAnki indicates whether to register downloaded files with Anki through AnkiConnect.
	StoreInAnki bool `mapstructure:"store_in_anki"`
	// AnkiConnectURL is the address of the AnkiConnect add-on.
	AnkiConnectURL string `mapstructure:"anki_connect_url"`
	// ForvoBaseURL is the base URL of the Forvo API.
	ForvoBaseURL string `mapstructure:"forvo_base_url"`
	// ConfigFilename is the file the configuration was loaded from (set automatically).
	ConfigFilename string
	// DryRun indicates whether to select recordings without downloading them.
	DryRun bool
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes.
	ParsedDownloadSpeedLimit int64
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedMaxDownloadPause is the parsed maximum download pause duration.
	ParsedMaxDownloadPause time.Duration
	// ParsedRequestTimeout is the parsed HTTP request timeout.
	ParsedRequestTimeout time.Duration
	// ParsedBonusPolicy is the contributor bonus policy built from ContributorBonus and BonusContributors.
	ParsedBonusPolicy pronunciation.BonusPolicy
}

const (
	// ForvoBaseURL is the base URL for the free Forvo API.
	ForvoBaseURL = "https://apifree.forvo.com"

	// DefaultAnkiConnectURL is the address AnkiConnect listens on by default.
	DefaultAnkiConnectURL = "http://localhost:8765"

	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".forvo-grabber.yaml"

	// DefaultLanguage is the default Forvo language code.
	DefaultLanguage = "ru"

	// DefaultFilenameTemplate is the default template for naming downloaded files.
	DefaultFilenameTemplate = "{{.word}}"

	// DefaultMaxLogLength is the default maximum size (in bytes) for logged HTTP dumps.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// envPrefix prefixes environment variables overriding config keys, e.g. FORVO_GRABBER_API_KEY.
	envPrefix = "FORVO_GRABBER"

	// apiKeyField is the YAML key of the API key.
	apiKeyField = "api_key"

	// lockRetryDelay is the delay between attempts to lock the config file.
	lockRetryDelay = 100 * time.Millisecond
	// lockTimeout is how long SaveConfig waits for another process to release the config file.
	lockTimeout = 5 * time.Second
)

//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(_[a-z]{2,3})?$`)

// Static error definitions for better error handling.
var (
	// ErrEmptyAPIKey indicates that the API key is missing.
	ErrEmptyAPIKey = errors.New("api key cannot be empty")
	// ErrInvalidLanguage indicates that the language code is not valid.
	ErrInvalidLanguage = errors.New("invalid language code")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidMaxDownloadPause indicates that the max download pause duration is invalid.
	ErrInvalidMaxDownloadPause = errors.New("max_download_pause cannot be negative")
	// ErrInvalidRequestTimeout indicates that the request timeout is invalid.
	ErrInvalidRequestTimeout = errors.New("request_timeout must be positive")
	// ErrInvalidConcurrentDownloads indicates that the concurrent downloads count is invalid.
	ErrInvalidConcurrentDownloads = errors.New("max concurrent downloads must be a positive integer")
	// ErrInvalidContributorBonus indicates that the contributor bonus is not positive.
	ErrInvalidContributorBonus = errors.New("contributor_bonus must be a positive integer")
	// ErrInvalidURL indicates that a configured URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrConfigLocked indicates that another process holds the config file lock.
	ErrConfigLocked = errors.New("config file is locked by another process")
)

// setDefaults registers default values so a missing default config file is not fatal
// and every key can be overridden from the environment.
func setDefaults(v *viper.Viper) {
	bonusContributors := make([]string, 0, len(pronunciation.DefaultBonusContributors()))
	for _, id := range pronunciation.DefaultBonusContributors() {
		bonusContributors = append(bonusContributors, id.String())
	}

	v.SetDefault(apiKeyField, "")
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("output_path", ".")
	v.SetDefault("filename_template", DefaultFilenameTemplate)
	v.SetDefault("replace_files", false)
	v.SetDefault("write_tags", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("download_speed_limit", "0")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("max_concurrent_downloads", 1)
	v.SetDefault("max_download_pause", "1s")
	v.SetDefault("contributor_bonus", pronunciation.DefaultContributorBonus)
	v.SetDefault("bonus_contributors", bonusContributors)
	v.SetDefault("store_in_anki", false)
	v.SetDefault("anki_connect_url", DefaultAnkiConnectURL)
	v.SetDefault("forvo_base_url", ForvoBaseURL)
}

// LoadConfig loads configuration settings from a YAML file.
// An empty filename means DefaultConfigFilename, which may be absent.
func LoadConfig(configFilename string) (*Config, error) {
	isDefaultFile := configFilename == ""
	if isDefaultFile {
		configFilename = DefaultConfigFilename
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetConfigFile(configFilename)

	if err := v.ReadInConfig(); err != nil && !(isDefaultFile && isConfigNotFound(err)) {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ConfigFilename = configFilename

	return &cfg, nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var (
		downloadSpeedLimit       = strings.TrimSpace(cfg.DownloadSpeedLimit)
		parsedDownloadSpeedLimit uint64
		err                      error
	)

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return ErrEmptyAPIKey
	}

	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	if !languageCodePattern.MatchString(cfg.Language) {
		return fmt.Errorf("%w: '%s'", ErrInvalidLanguage, cfg.Language)
	}

	if strings.TrimSpace(cfg.FilenameTemplate) == "" {
		cfg.FilenameTemplate = DefaultFilenameTemplate
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = "."
	}

	if cfg.ForvoBaseURL == "" {
		cfg.ForvoBaseURL = ForvoBaseURL
	}

	if err = validateHTTPURL(cfg.ForvoBaseURL); err != nil {
		return fmt.Errorf("forvo_base_url: %w", err)
	}

	if cfg.StoreInAnki {
		if cfg.AnkiConnectURL == "" {
			cfg.AnkiConnectURL = DefaultAnkiConnectURL
		}

		if err = validateHTTPURL(cfg.AnkiConnectURL); err != nil {
			return fmt.Errorf("anki_connect_url: %w", err)
		}
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !(isLogLevelCorrect) {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if downloadSpeedLimit != "" && downloadSpeedLimit != "0" {
		parsedDownloadSpeedLimit, err = humanize.ParseBytes(downloadSpeedLimit)
		if err != nil {
			return fmt.Errorf("failed to parse download speed limit: %w", err)
		}
	}

	// io.CopyN accepts only int64 so we transform it safely in order to use it later.
	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(parsedDownloadSpeedLimit)

	if cfg.ParsedMaxDownloadPause, err = parseOptionalDuration(cfg.MaxDownloadPause); err != nil {
		return fmt.Errorf("failed to parse max download pause: %w", err)
	}

	if cfg.ParsedMaxDownloadPause < 0 {
		return ErrInvalidMaxDownloadPause
	}

	if cfg.ParsedRequestTimeout, err = parseOptionalDuration(cfg.RequestTimeout); err != nil {
		return fmt.Errorf("failed to parse request timeout: %w", err)
	}

	if cfg.ParsedRequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	if cfg.MaxConcurrentDownloads <= 0 {
		return ErrInvalidConcurrentDownloads
	}

	if cfg.ContributorBonus <= 0 {
		return ErrInvalidContributorBonus
	}

	contributors := make([]pronunciation.ContributorID, 0, len(cfg.BonusContributors))
	for _, name := range cfg.BonusContributors {
		if name = strings.TrimSpace(name); name != "" {
			contributors = append(contributors, pronunciation.ContributorID(name))
		}
	}

	cfg.ParsedBonusPolicy = pronunciation.NewBonusPolicy(cfg.ContributorBonus, contributors...)

	return nil
}

// SaveConfig stores the API key in the configuration file while preserving the original format and order.
// The file is created with default settings if it does not exist.
func SaveConfig(ctx context.Context, cfg *Config) error {
	configFile := cfg.ConfigFilename
	if configFile == "" {
		configFile = DefaultConfigFilename
	}

	if dir := filepath.Dir(configFile); dir != "." {
		if err := os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	fileLock := flock.New(configFile + constants.ExtensionLock)

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	isLocked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if errors.Is(err, context.DeadlineExceeded) || (err == nil && !isLocked) {
		return fmt.Errorf("%w: '%s'", ErrConfigLocked, configFile)
	}

	if err != nil {
		return fmt.Errorf("failed to lock config file: %w", err)
	}

	defer func() {
		if unlockErr := fileLock.Unlock(); unlockErr != nil {
			logger.Warnf(ctx, "Failed to unlock config file '%s': %v", configFile, unlockErr)
		}
	}()

	// Read the original file content.
	originalContent, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		return handleMissingConfigFile(configFile, cfg.APIKey, err)
	}

	// Parse YAML while preserving order using yaml.Node.
	var node yaml.Node
	if err = yaml.Unmarshal(originalContent, &node); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setStringInNode(&node, apiKeyField, cfg.APIKey)

	// Marshal back to YAML (preserves order).
	newContent, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFile, newContent, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// handleMissingConfigFile creates a new config file with defaults if it doesn't exist.
func handleMissingConfigFile(configFile, apiKey string, err error) error {
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.Set(apiKeyField, apiKey)

	if err = v.SafeWriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}

// setStringInNode sets a top-level string value in the YAML node tree, adding the key if it is missing.
func setStringInNode(node *yaml.Node, key, value string) {
	if node.Kind == 0 {
		node.Kind = yaml.DocumentNode
	}

	// The root node is a document node, content[0] is the actual map.
	if len(node.Content) == 0 {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"})
	}

	mapNode := node.Content[0]
	if mapNode.Kind != yaml.MappingNode {
		return
	}

	// Iterate through key-value pairs (stored as alternating nodes).
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		keyNode := mapNode.Content[i]
		valueNode := mapNode.Content[i+1]

		if keyNode.Value != key {
			continue
		}

		// Update the value while preserving style.
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = value

		if valueNode.Style == 0 {
			valueNode.Style = yaml.DoubleQuotedStyle
		}

		return
	}

	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.DoubleQuotedStyle},
	)
}

// parseOptionalDuration parses a duration where an empty string or "0" mean zero.
func parseOptionalDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}

	return time.ParseDuration(value)
}

// validateHTTPURL checks that the value is an absolute http or https URL.
func validateHTTPURL(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: '%s'", ErrInvalidURL, value)
	}

	return nil
}

// isConfigNotFound reports whether viper failed because the config file does not exist.
func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError

	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
