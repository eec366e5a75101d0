package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	UI       UIConfig
	Log      LogConfig
	MQTT     MQTTConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	PageSize       int    `mapstructure:"page_size"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// LogConfig holds logger settings. The TUI owns the terminal so logs go to a file.
type LogConfig struct {
	Level string
	Path  string
}

// MQTTConfig holds change feed settings. An empty broker disables the feed.
type MQTTConfig struct {
	Broker      string
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

// Load reads configuration from file and env. Env var overrides use prefix ENTITYPAGES_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("ENTITYPAGES_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "entitypages"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ENTITYPAGES")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = 20
	}
	if c.MQTT.QoS > 2 {
		return Config{}, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	share := filepath.Join(os.Getenv("HOME"), ".local", "share", "entitypages")
	v.SetDefault("database.path", filepath.Join(share, "entitypages.db"))
	v.SetDefault("ui.page_size", 20)
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(share, "entitypages.log"))
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.topic_prefix", "entitypages")
	v.SetDefault("mqtt.qos", 1)
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("ENTITYPAGES_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "entitypages", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.path", cfg.Log.Path)
	v.Set("mqtt.broker", cfg.MQTT.Broker)
	v.Set("mqtt.client_id", cfg.MQTT.ClientID)
	v.Set("mqtt.topic_prefix", cfg.MQTT.TopicPrefix)
	v.Set("mqtt.qos", cfg.MQTT.QoS)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
