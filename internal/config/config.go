package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration. Each subcommand reads its own section.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Panel     PanelConfig     `mapstructure:"panel"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PanelConfig configures the UI sync layer and its live view server.
type PanelConfig struct {
	Port         string        `mapstructure:"port"`
	DeviceURL    string        `mapstructure:"device_url"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`
}

// SimulatorConfig configures the development controller.
type SimulatorConfig struct {
	Port      string        `mapstructure:"port"`
	DBPath    string        `mapstructure:"db_path"`
	Tick      time.Duration `mapstructure:"tick"`
	SaveDelay time.Duration `mapstructure:"save_delay"`
	Auth      bool          `mapstructure:"auth"`
	JWTKey    string        `mapstructure:"jwt_key"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

const envPrefix = "IRRIGATION"

var errEmptyDeviceURL = errors.New("panel.device_url must not be empty")

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("panel.port", "8080")
	v.SetDefault("panel.device_url", "http://localhost:8000")
	v.SetDefault("panel.poll_interval", time.Second)
	v.SetDefault("panel.call_timeout", 5*time.Second)

	v.SetDefault("simulator.port", "8000")
	v.SetDefault("simulator.db_path", "irrigation.db")
	v.SetDefault("simulator.tick", time.Second)
	v.SetDefault("simulator.save_delay", 5*time.Second)
	v.SetDefault("simulator.auth", false)
	v.SetDefault("simulator.jwt_key", "change-me")

	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "irrigation-simulator")
	v.SetDefault("mqtt.topic", "irrigation")

	v.SetDefault("tracing.service_name", "irrigation")
}

// Load reads configuration from path (or configs/config.yml when empty),
// applying defaults and IRRIGATION_* environment overrides.
// A missing config file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Panel.DeviceURL) == "" {
		return errEmptyDeviceURL
	}
	if c.Panel.PollInterval <= 0 {
		return fmt.Errorf("panel.poll_interval must be positive, got %v", c.Panel.PollInterval)
	}
	if c.Simulator.Tick <= 0 {
		return fmt.Errorf("simulator.tick must be positive, got %v", c.Simulator.Tick)
	}
	return nil
}
