package config

import (
	"fmt"
	"strings"

	"github.com/pageza/pantrychef/backend/internal/validation"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	// RequiredSecrets must be present as Docker secrets.
	RequiredSecrets []string
}

var requirements = map[Environment]ConfigRequirements{
	Development: {},
	Test:        {},
	CI:          {},
	Production: {
		RequiredSecrets: []string{"db_password"},
	},
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs []string

	if err := validation.ValidateStruct(cfg); err != nil {
		errs = append(errs, err.Error())
	}

	if env == Production && cfg.DBDriver == "postgres" {
		for _, secret := range requirements[env].RequiredSecrets {
			if readSecret(secret) == "" {
				errs = append(errs, fmt.Sprintf("required secret %s is not set", secret))
			}
		}
	}

	for _, e := range checkDependencies(cfg) {
		errs = append(errs, e.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

// checkDependencies reports settings that are individually valid but
// unusable together.
func checkDependencies(cfg *Config) []ValidationError {
	var errs []ValidationError
	if cfg.DBDriver == "postgres" && cfg.DBPassword == "" && IsCI() {
		errs = append(errs, ValidationError{"DB_PASSWORD", "required in CI environment"})
	}
	if cfg.DBDriver == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, ValidationError{"SQLITE_PATH", "required when DB_DRIVER=sqlite"})
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
		errs = append(errs, ValidationError{"EMBEDDING_API_KEY", "required when EMBEDDING_PROVIDER=openai"})
	}
	if cfg.Embedding.Cache == "redis" && !cfg.RedisEnabled() {
		errs = append(errs, ValidationError{"EMBEDDING_CACHE", "redis cache needs REDIS_URL or REDIS_HOST"})
	}
	if cfg.LLM.APIKey == "" && !cfg.ChatAllowRawFallback {
		errs = append(errs, ValidationError{"LLM_API_KEY", "required unless CHAT_ALLOW_RAW_FALLBACK=true"})
	}
	return errs
}
