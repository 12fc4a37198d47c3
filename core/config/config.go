package config

import (
	"reflect"
	"strings"

	"rfid-portal/core/logger"
	"rfid-portal/core/server"
	"rfid-portal/core/storage"
	"rfid-portal/core/store"
	"rfid-portal/feature/emulator"
	"rfid-portal/feature/inventory"
	"rfid-portal/feature/match"
	"rfid-portal/feature/reader"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Store holds configuration for the local snapshot database.
	Store store.Config `mapstructure:"store"`
	// Storage holds configuration for the optional upload archive (S3/Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Reader holds device and session supervision settings.
	Reader reader.Config `mapstructure:"reader"`
	// Inventory holds spreadsheet ingestion settings.
	Inventory inventory.Config `mapstructure:"inventory"`
	// Match holds match engine and notification settings.
	Match match.Config `mapstructure:"match"`
	// Emulator holds settings for the software reader driver.
	Emulator emulator.Config `mapstructure:"emulator"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. READER_IP -> reader.ip)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
