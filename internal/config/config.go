// The application's root configuration, covering logging, storage and the
// extraction pipeline itself.
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// LoggerConfig holds all the configuration for the logger.
// This is the single source of truth for this struct.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	Format      string `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// PostgresConfig holds settings for the database connection.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// PipelineConfig holds settings for extraction, resolution and serialization.
type PipelineConfig struct {
	// Workers bounds the number of concurrent page extractors.
	Workers int `mapstructure:"workers"`
	// UniversityName is the display name of the institution acting as the
	// hierarchy root, e.g. "Leuphana University".
	UniversityName string `mapstructure:"university_name"`
	// OntologyNS and ResourceNS override the builtin IRI namespaces.
	OntologyNS string `mapstructure:"ontology_namespace"`
	ResourceNS string `mapstructure:"resource_namespace"`
	// RegistryFile optionally points at a YAML schema override.
	RegistryFile string `mapstructure:"registry_file"`
}

// SetDefaults registers the default configuration values on a Viper
// instance. Called before any config file or env binding is read.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "campuskg")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	v.SetDefault("pipeline.workers", 8)
	v.SetDefault("pipeline.university_name", "Leuphana University")
	v.SetDefault("pipeline.ontology_namespace", "http://campuskg.org/ontology#")
	v.SetDefault("pipeline.resource_namespace", "http://campuskg.org/resource/")
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	var loadErr error
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			loadErr = err
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Validate checks configuration values that would otherwise fail deep
// inside the pipeline.
func (c *Config) Validate() error {
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("config: pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.UniversityName == "" {
		return fmt.Errorf("config: pipeline.university_name must not be empty")
	}
	if c.Pipeline.OntologyNS == "" || c.Pipeline.ResourceNS == "" {
		return fmt.Errorf("config: ontology and resource namespaces must not be empty")
	}
	return nil
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
