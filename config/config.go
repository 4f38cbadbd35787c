/*
Package config loads server and cloud-sync configuration.

PURPOSE:
  One Config struct read from an optional YAML file plus environment
  overrides (cleanenv). The cloud block is treated as opaque credentials: the
  core only checks that the two identifying fields are present and not the
  placeholder before considering sync configured.
*/
package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// placeholderAPIKey is what a freshly pasted sample config contains; it means
// "not configured".
const placeholderAPIKey = "YOUR_API_KEY"

// Cloud identifies the shared remote document and its credentials.
type Cloud struct {
	BaseURL    string `yaml:"base_url" env:"RENTLEDGER_CLOUD_BASE_URL"`
	Collection string `yaml:"collection" env:"RENTLEDGER_CLOUD_COLLECTION" env-default:"rentledger"`
	DocKey     string `yaml:"doc_key" env:"RENTLEDGER_CLOUD_DOC_KEY" env-default:"main_data"`
	APIKey     string `yaml:"api_key" env:"RENTLEDGER_CLOUD_API_KEY"`
	ProjectID  string `yaml:"project_id" env:"RENTLEDGER_CLOUD_PROJECT_ID"`
}

// Configured reports whether a remote target is usable: both identifying
// fields present and the api key not a placeholder. Nothing else is
// validated here.
func (c Cloud) Configured() bool {
	return c.BaseURL != "" &&
		c.APIKey != "" && c.APIKey != placeholderAPIKey &&
		c.ProjectID != ""
}

// Config is the full server configuration.
type Config struct {
	Port   int    `yaml:"port" env:"RENTLEDGER_PORT" env-default:"8080"`
	DBPath string `yaml:"db_path" env:"RENTLEDGER_DB" env-default:"rentledger.db"`
	Cloud  Cloud  `yaml:"cloud"`
}

// Load reads the config file at path (when non-empty) and applies
// environment overrides. With an empty path, environment and defaults alone
// are used.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
