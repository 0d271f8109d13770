package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ValidateConfig checks if the global configuration has valid values and
// fills in defaults for absent directives.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if cfg.Version == "" {
		cfg.Version = DefaultConfigVersion
	}
	if err := ValidateBundlescanConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: bundlescan directive is invalid: %w", err)
	}
	if err := ValidateScanConfig(&cfg.Scan); err != nil {
		return fmt.Errorf("YAML global config: scan directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateAdvisoryConfig(&cfg.Advisory); err != nil {
		return fmt.Errorf("YAML global config: advisory directive is invalid: %w", err)
	}
	return nil
}

// ValidateBundlescanConfig resolves the home and history folders, with
// environment variables taking priority over defaults.
func ValidateBundlescanConfig(cfg *Config) error {
	if cfg.Bundlescan.HomeFolder == "" {
		if env := os.Getenv("BUNDLESCAN_HOME"); env != "" {
			cfg.Bundlescan.HomeFolder = env
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to resolve user home folder: %w", err)
			}
			cfg.Bundlescan.HomeFolder = filepath.Join(home, ".bundlescan")
		}
	}
	if cfg.Bundlescan.HistoryFolder == "" {
		cfg.Bundlescan.HistoryFolder = filepath.Join(cfg.Bundlescan.HomeFolder, "history")
	}
	return nil
}

// ValidateScanConfig checks scan limits and applies defaults. Every limit is
// independently overridable.
func ValidateScanConfig(scanCfg *Scan) error {
	if scanCfg == nil {
		return fmt.Errorf("scan configuration is nil")
	}
	if scanCfg.MaxFileSizeBytes < 0 || scanCfg.MaxTotalSizeBytes < 0 || scanCfg.MaxFileCount < 0 || scanCfg.MaxMatchesPerFile < 0 {
		return fmt.Errorf("scan limits must not be negative")
	}
	if scanCfg.MaxFileSizeBytes == 0 {
		scanCfg.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if scanCfg.MaxTotalSizeBytes == 0 {
		scanCfg.MaxTotalSizeBytes = DefaultMaxTotalSizeBytes
	}
	if scanCfg.MaxFileCount == 0 {
		scanCfg.MaxFileCount = DefaultMaxFileCount
	}
	if scanCfg.MaxMatchesPerFile == 0 {
		scanCfg.MaxMatchesPerFile = DefaultMaxMatchesPerFile
	}
	if scanCfg.Workers <= 0 {
		scanCfg.Workers = DefaultWorkers
	}
	if len(scanCfg.TextExtensions) == 0 {
		scanCfg.TextExtensions = DefaultTextExtensions
	}
	if len(scanCfg.IgnoreGlobs) == 0 {
		scanCfg.IgnoreGlobs = DefaultIgnoreGlobs
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configuration has valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"retry_wait_time":     httpConfig.RetryWaitTime,
		"retry_max_wait_time": httpConfig.RetryMaxWaitTime,
		"timeout":             httpConfig.Timeout,
	}
	for name, duration := range durations {
		if duration < 0 {
			return fmt.Errorf("%s must not be negative: %v", name, duration)
		}
	}
	return nil
}

// ValidateAdvisoryConfig checks the advisory directive. The advisory service
// is optional; it is only an error to enable it without an endpoint.
func ValidateAdvisoryConfig(advCfg *Advisory) error {
	if advCfg == nil {
		return fmt.Errorf("advisory configuration is nil")
	}
	if GetBoolValue(advCfg, "Enabled", false) && advCfg.Endpoint == "" {
		return fmt.Errorf("advisory is enabled but no endpoint is configured")
	}
	return nil
}

// GetHistoryHome returns the folder where scan history is persisted.
func GetHistoryHome(cfg *Config) string {
	return cfg.Bundlescan.HistoryFolder
}
