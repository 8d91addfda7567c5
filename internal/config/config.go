package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Athena   AthenaConfig   `mapstructure:"athena"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	Host string `mapstructure:"host"`
}

type AthenaConfig struct {
	Region         string `mapstructure:"region"`
	Database       string `mapstructure:"database"`
	OutputBucket   string `mapstructure:"output_bucket"`
	OutputLocation string `mapstructure:"output_location"`
	Workgroup      string `mapstructure:"workgroup"`
	MaxWaitTime    int    `mapstructure:"max_wait_time"`
	MaxRows        int    `mapstructure:"max_rows"`
}

type SecurityConfig struct {
	RateLimitPerMinute int  `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int  `mapstructure:"rate_limit_burst"`
	EnableRateLimit    bool `mapstructure:"enable_rate_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	bindEnvAliases()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults and environment
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	config.applyDerived()

	return &config, nil
}

func (c *Config) validate() error {
	if c.Athena.Database == "" {
		return fmt.Errorf("athena database name is required (set DATABASE_NAME or athena.database)")
	}
	if c.Athena.OutputBucket == "" && c.Athena.OutputLocation == "" {
		return fmt.Errorf("athena results bucket is required (set S3_BUCKET or athena.output_bucket)")
	}
	if c.Athena.MaxWaitTime < 1 || c.Athena.MaxWaitTime > 900 {
		return fmt.Errorf("athena max_wait_time must be between 1 and 900 seconds, got %d", c.Athena.MaxWaitTime)
	}
	return nil
}

func (c *Config) applyDerived() {
	if c.Athena.OutputLocation == "" {
		c.Athena.OutputLocation = fmt.Sprintf("s3://%s/athena-results/", c.Athena.OutputBucket)
	}
	if c.Athena.OutputBucket == "" {
		c.Athena.OutputBucket = bucketFromLocation(c.Athena.OutputLocation)
	}
}

// bucketFromLocation extracts the bucket name from an s3://bucket/prefix URI.
func bucketFromLocation(location string) string {
	trimmed := strings.TrimPrefix(location, "s3://")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.host", "0.0.0.0")

	// Athena defaults
	viper.SetDefault("athena.region", "us-east-1")
	viper.SetDefault("athena.database", "")
	viper.SetDefault("athena.output_bucket", "")
	viper.SetDefault("athena.output_location", "")
	viper.SetDefault("athena.workgroup", "")
	viper.SetDefault("athena.max_wait_time", 55)
	viper.SetDefault("athena.max_rows", 1000)

	// Security defaults
	viper.SetDefault("security.rate_limit_per_minute", 60)
	viper.SetDefault("security.rate_limit_burst", 10)
	viper.SetDefault("security.enable_rate_limit", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvAliases maps the deployment's flat environment variables onto the
// nested config keys.
func bindEnvAliases() {
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("athena.region", "AWS_REGION")
	viper.BindEnv("athena.database", "DATABASE_NAME")
	viper.BindEnv("athena.output_bucket", "S3_BUCKET")
	viper.BindEnv("athena.output_location", "RESULTS_PATH")
	viper.BindEnv("athena.workgroup", "ATHENA_WORKGROUP")
	viper.BindEnv("athena.max_wait_time", "MAX_WAIT_TIME")
}
