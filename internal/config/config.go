package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CasdoorConfig holds the credentials of the optional remote user directory.
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// Enabled reports whether enough credentials are present to build a client.
func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.ClientID != "" && c.ClientSecret != ""
}

type Config struct {
	Environment string
	LogLevel    slog.Level

	StoreDriver    string
	StoreKeyPrefix string
	BoltPath       string
	RedisURL       string
	DatabaseURL    string
	KafkaBrokers   []string

	Casdoor CasdoorConfig
}

// LoadConfig reads the configuration from the environment, after loading .env when present.
func LoadConfig() (*Config, error) {
	return Load(".env")
}

// Load is LoadConfig with explicit dotenv files. Missing files are ignored.
func Load(dotEnvPaths ...string) (*Config, error) {
	for _, path := range dotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("config.godotenv(%s): %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config.os.Stat(%s): %w", path, err)
		}
	}

	conf := viper.New()

	// defaults
	conf.SetDefault("ENVIRONMENT", "development")
	conf.SetDefault("LOG_LEVEL", "info")
	conf.SetDefault("STORE_DRIVER", "bolt")
	conf.SetDefault("STORE_KEY_PREFIX", "akwaba_db_")
	conf.SetDefault("BOLT_PATH", "lms-store.db")
	conf.SetDefault("REDIS_URL", "")
	conf.SetDefault("DATABASE_URL", "")
	conf.SetDefault("KAFKA_BROKERS", "")
	for _, key := range []string{
		"CASDOOR_ENDPOINT", "CASDOOR_CLIENT_ID", "CASDOOR_CLIENT_SECRET",
		"CASDOOR_CERTIFICATE", "CASDOOR_ORGANIZATION", "CASDOOR_APPLICATION",
	} {
		conf.SetDefault(key, "")
	}
	conf.AutomaticEnv()

	level, err := parseLogLevel(conf.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:    conf.GetString("ENVIRONMENT"),
		LogLevel:       level,
		StoreDriver:    strings.ToLower(conf.GetString("STORE_DRIVER")),
		StoreKeyPrefix: conf.GetString("STORE_KEY_PREFIX"),
		BoltPath:       conf.GetString("BOLT_PATH"),
		RedisURL:       conf.GetString("REDIS_URL"),
		DatabaseURL:    conf.GetString("DATABASE_URL"),
		KafkaBrokers:   splitList(conf.GetString("KAFKA_BROKERS")),
		Casdoor: CasdoorConfig{
			Endpoint:     conf.GetString("CASDOOR_ENDPOINT"),
			ClientID:     conf.GetString("CASDOOR_CLIENT_ID"),
			ClientSecret: conf.GetString("CASDOOR_CLIENT_SECRET"),
			Cert:         conf.GetString("CASDOOR_CERTIFICATE"),
			Organization: conf.GetString("CASDOOR_ORGANIZATION"),
			Application:  conf.GetString("CASDOOR_APPLICATION"),
		},
	}
	return cfg, nil
}

func parseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
	}
	return level, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
