package hxgrid

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the module configuration, resolved once at startup.
type Config struct {
	// Prefix is the mount point of the registry routes.
	Prefix string `env:"HXGRID_PREFIX" envDefault:"/_grid"`
	// ModuleID identifies this module in export hashes.
	ModuleID string `env:"HXGRID_MODULE_ID" envDefault:"gridview"`
	// ExportSalt keys the export integrity hash. Empty means resolve it from
	// the salt store.
	ExportSalt string `env:"HXGRID_EXPORT_SALT"`
	// EncryptionKey signs and encrypts grid state tokens. Empty derives it
	// from the export salt.
	EncryptionKey string `env:"HXGRID_ENCRYPTION_KEY"`
	// Language is the default message language.
	Language string `env:"HXGRID_LANGUAGE" envDefault:"en"`
	// I18nDir holds *.yaml catalogs overriding the embedded messages.
	I18nDir string `env:"HXGRID_I18N_DIR"`
	// RedisURL enables the shared Redis salt store.
	RedisURL string `env:"HXGRID_REDIS_URL"`
	// ExportEncoding is the default charset of exported files.
	ExportEncoding string `env:"HXGRID_EXPORT_ENCODING" envDefault:"utf-8"`
}

// DefaultConfig returns the configuration with every default applied.
func DefaultConfig() Config {
	return Config{
		Prefix:         "/_grid",
		ModuleID:       "gridview",
		Language:       "en",
		ExportEncoding: "utf-8",
	}
}

// LoadConfig reads the given .env files (".env" when none are given;
// missing files are ignored) and parses the environment into a Config.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Join(ErrInvalidConfig, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.ModuleID == "" {
		c.ModuleID = d.ModuleID
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.ExportEncoding == "" {
		c.ExportEncoding = d.ExportEncoding
	}
	return c
}
