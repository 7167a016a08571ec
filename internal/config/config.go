package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lehmann314159/dictlookup/internal/models"
	"github.com/lehmann314159/dictlookup/pkg/validator"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Lookup     LookupConfig     `yaml:"lookup"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s" validate:"gt=0"`
	APIToken        string        `yaml:"api_token"        env:"API_TOKEN"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DictionaryConfig holds the remote dictionary API settings.
type DictionaryConfig struct {
	BaseURL    string        `yaml:"base_url"    env:"DICT_BASE_URL"    env-default:"https://dictionary.yandex.net/api/v1/dicservice.json" validate:"required,url"`
	APIKey     string        `yaml:"api_key"     env:"DICT_API_KEY"     env-required:"true" validate:"required"`
	Timeout    time.Duration `yaml:"timeout"     env:"DICT_TIMEOUT"     env-default:"10s" validate:"gt=0"`
	UILanguage string        `yaml:"ui_language" env:"DICT_UI_LANGUAGE" env-default:"en" validate:"required,bcp47_language_tag"`
}

// LookupConfig holds query engine settings.
type LookupConfig struct {
	Debounce             time.Duration `yaml:"debounce"              env:"LOOKUP_DEBOUNCE"              env-default:"600ms" validate:"gt=0"`
	LanguagesTTL         time.Duration `yaml:"languages_ttl"         env:"LOOKUP_LANGUAGES_TTL"         env-default:"336h"  validate:"gt=0"`
	ReverseLookup        bool          `yaml:"reverse_lookup"        env:"LOOKUP_REVERSE"`
	IncludeTranscription bool          `yaml:"include_transcription" env:"LOOKUP_INCLUDE_TRANSCRIPTION" env-default:"false"`
	Flags                int           `yaml:"flags"                 env:"LOOKUP_FLAGS"                 validate:"min=0,max=15"`
}

// defaultLookup seeds the fields whose default is not their zero value.
// env-default cannot carry them: cleanenv would overwrite an explicit false or 0 from YAML.
func defaultLookup() LookupConfig {
	d := models.DefaultSettings()
	return LookupConfig{
		ReverseLookup: d.ReverseLookup,
		Flags:         int(d.Flags),
	}
}

// Defaults returns the preferences used until the user changes them
func (c LookupConfig) Defaults() models.Settings {
	return models.Settings{
		ReverseLookup:        c.ReverseLookup,
		IncludeTranscription: c.IncludeTranscription,
		Flags:                models.FilterFlags(c.Flags),
	}
}

// StorageConfig holds the SQLite settings.
type StorageConfig struct {
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"dictlookup.db" validate:"required"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json" validate:"oneof=json console"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	MaxAge         int    `yaml:"max_age"         env:"CORS_MAX_AGE"         env-default:"300" validate:"min=0"`
}

// Origins splits the comma separated origin list
func (c CORSConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	return validator.ValidateStruct(c)
}
