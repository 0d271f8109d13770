package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Version    string     `yaml:"version"`
	Bundlescan Bundlescan `yaml:"bundlescan"`
	Logger     Logger     `yaml:"logger"`
	Scan       Scan       `yaml:"scan"`
	Advisory   Advisory   `yaml:"advisory"`
	HTTPClient HTTPClient `yaml:"http_client"`
}

type Bundlescan struct {
	HomeFolder    string `yaml:"home_folder"`
	HistoryFolder string `yaml:"history_folder"`
	RulesetPath   string `yaml:"ruleset_path"`
}

type Logger struct {
	Level string `yaml:"level"`
}

// Scan holds the resource limits and file classification settings for a scan
// session. Every field is independently overridable; zero values fall back to
// the defaults applied by ValidateConfig.
type Scan struct {
	MaxFileSizeBytes  int64    `yaml:"max_file_size_bytes"`
	MaxTotalSizeBytes int64    `yaml:"max_total_size_bytes"`
	MaxFileCount      int      `yaml:"max_file_count"`
	MaxMatchesPerFile int      `yaml:"max_matches_per_file"`
	TextExtensions    []string `yaml:"text_extensions"`
	IgnoreGlobs       []string `yaml:"ignore_globs"`
	Workers           int      `yaml:"workers"`
}

type Advisory struct {
	Enabled  *bool  `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the YAML configuration from configPath. A missing file is
// not an error: the returned config carries defaults only, so the tool works
// out of the box without a config file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	if configPath != "" {
		if err := LoadYAML(configPath, config); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	return config, nil
}
