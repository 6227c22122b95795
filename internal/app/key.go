package app

import (
	"context"
	"strings"

	"github.com/oshokin/forvo-grabber/internal/config"
	"github.com/oshokin/forvo-grabber/internal/logger"
)

// ExecuteKeySetCommand saves the Forvo API key to the configuration file.
func ExecuteKeySetCommand(ctx context.Context, cfg *config.Config, apiKey string) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		logger.Fatalf(ctx, "Failed to save API key: %v", config.ErrEmptyAPIKey)

		return
	}

	cfg.APIKey = apiKey

	if err := config.SaveConfig(ctx, cfg); err != nil {
		logger.Fatalf(ctx, "Failed to save configuration: %v", err)

		return
	}

	logger.Infof(ctx, "API key saved to '%s'", cfg.ConfigFilename)
	logger.Info(ctx, "")
	logger.Info(ctx, "Try downloading a pronunciation:")
	logger.Info(ctx, "forvo-grabber собака")
}
