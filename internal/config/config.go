package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the settings sitevault reads from the environment and an
// optional YAML file. Command-line flags override these values.
type Config struct {
	// Environment selects the log format (development or production).
	Environment string `env:"SITEVAULT_ENVIRONMENT" env-default:"development" yaml:"environment"`

	// AppsRoot is the directory holding one directory per hosted application.
	AppsRoot string `env:"SITEVAULT_APPS_ROOT" env-default:"/home/master/applications" yaml:"appsRoot"`
	// WebRoot is the web-root subdirectory name inside each application.
	WebRoot string `env:"SITEVAULT_WEB_ROOT" env-default:"public_html" yaml:"webRoot"`

	// StorageMount is the preferred backup destination; "/" is used when it does not exist.
	StorageMount string `env:"SITEVAULT_STORAGE_MOUNT" env-default:"/mnt/data" yaml:"storageMount"`
	// OutputDir overrides the run directory. Empty means "<storage>/sitevault/<run>".
	OutputDir string `env:"SITEVAULT_OUTPUT_DIR" yaml:"outputDir"`
	// BaseURL is prefixed to archive file names to build download URLs.
	BaseURL string `env:"SITEVAULT_BASE_URL" yaml:"baseURL"`

	// WPCLI is the WordPress CLI binary.
	WPCLI string `env:"SITEVAULT_WP_CLI" env-default:"wp" yaml:"wpCLI"`
	// Resolver is the DNS server used by --resolve. Empty means /etc/resolv.conf.
	Resolver string `env:"SITEVAULT_RESOLVER" yaml:"resolver"`

	Cloudways struct {
		Email  string `env:"CLOUDWAYS_EMAIL" yaml:"email"`
		APIKey string `env:"CLOUDWAYS_API_KEY" yaml:"apiKey"`
		APIURL string `env:"CLOUDWAYS_API_URL" env-default:"https://api.cloudways.com/api/v1" yaml:"apiURL"`
	} `yaml:"cloudways"`

	S3 struct {
		Endpoint  string `env:"SITEVAULT_S3_ENDPOINT" yaml:"endpoint"`
		Bucket    string `env:"SITEVAULT_S3_BUCKET" yaml:"bucket"`
		Prefix    string `env:"SITEVAULT_S3_PREFIX" env-default:"sitevault" yaml:"prefix"`
		AccessKey string `env:"SITEVAULT_S3_ACCESS_KEY" yaml:"accessKey"`
		SecretKey string `env:"SITEVAULT_S3_SECRET_KEY" yaml:"secretKey"`
		UseSSL    bool   `env:"SITEVAULT_S3_USE_SSL" env-default:"true" yaml:"useSSL"`
	} `yaml:"s3"`
}

// HasCloudways reports whether provider API credentials are configured.
func (c *Config) HasCloudways() bool {
	return c.Cloudways.Email != "" && c.Cloudways.APIKey != ""
}

// HasS3 reports whether object storage upload is configured.
func (c *Config) HasS3() bool {
	return c.S3.Endpoint != "" && c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

// Load reads the YAML file at path (environment variables take precedence),
// or only the environment when path is empty.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read environment: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
