package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: db.path -> CORE_DB_PATH.
const EnvPrefix = "CORE"

type Config struct {
	Port       string           `mapstructure:"port"`
	LogLevel   string           `mapstructure:"log_level"`
	DB         DBConfig         `mapstructure:"db"`
	Readings   ReadingsConfig   `mapstructure:"readings"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Outbound   OutboundConfig   `mapstructure:"outbound"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Simulator  SimulatorConfig  `mapstructure:"simulator"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Automation AutomationConfig `mapstructure:"automation"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// ReadingsConfig selects where the environment_data feed lives. "sqlite"
// uses the local database; "postgres" and "mysql" go through gorm.
type ReadingsConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Migrate         bool          `mapstructure:"migrate"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type Band struct {
	Warning  float64 `mapstructure:"warning"`
	Critical float64 `mapstructure:"critical"`
}

type ThresholdsConfig struct {
	CO2        Band `mapstructure:"co2"`
	CO         Band `mapstructure:"co"`
	AirQuality Band `mapstructure:"air_quality"`
	Smoke      Band `mapstructure:"smoke"`
}

type AlertsConfig struct {
	Room     string           `mapstructure:"room"`
	Debounce time.Duration    `mapstructure:"debounce"`
	Cooldown time.Duration    `mapstructure:"cooldown"`
	InApp    ThresholdsConfig `mapstructure:"in_app"`
	Status   ThresholdsConfig `mapstructure:"status"`
}

type LimitsConfig struct {
	HighCO2        float64 `mapstructure:"high_co2"`
	HighCO         float64 `mapstructure:"high_co"`
	HighAirQuality float64 `mapstructure:"high_air_quality"`
	HighSmoke      float64 `mapstructure:"high_smoke"`
	LowCO2         float64 `mapstructure:"low_co2"`
	LowCO          float64 `mapstructure:"low_co"`
}

// GateConfig picks the cooldown gate backend: "memory" or "redis".
type GateConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"`
}

type OutboundConfig struct {
	Email         string        `mapstructure:"email"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`
	Limits        LimitsConfig  `mapstructure:"limits"`
	Gate          GateConfig    `mapstructure:"gate"`
}

type NotifyConfig struct {
	WebhookURL string            `mapstructure:"webhook_url"`
	Headers    map[string]string `mapstructure:"headers"`
}

type MQTTConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Broker        string        `mapstructure:"broker"`
	ClientID      string        `mapstructure:"client_id"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	ReadingsTopic string        `mapstructure:"readings_topic"`
	AlertsTopic   string        `mapstructure:"alerts_topic"`
	QoS           byte          `mapstructure:"qos"`
	ConnectWait   time.Duration `mapstructure:"connect_wait"`
}

type SimulatorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Tick    time.Duration `mapstructure:"tick"`
}

type AssistantConfig struct {
	WakeWord          string `mapstructure:"wake_word"`
	Owner             string `mapstructure:"owner"`
	MinKnowledgeScore int    `mapstructure:"min_knowledge_score"`
	Timezone          string `mapstructure:"timezone"`
}

type AutomationConfig struct {
	SeedDefaults bool `mapstructure:"seed_defaults"`
}

var (
	ErrUnknownReadingsDriver = errors.New("unknown readings driver")
	ErrUnknownGateBackend    = errors.New("unknown cooldown gate backend")
)

// Load reads envFile (if present) into the process environment, then
// config.yml from dir, then CORE_* overrides. A missing file at either path
// leaves the defaults in place.
func Load(dir, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Readings.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReadingsDriver, c.Readings.Driver)
	}
	if c.Readings.Driver != "sqlite" && c.Readings.DSN == "" {
		return fmt.Errorf("readings.dsn is required for driver %q", c.Readings.Driver)
	}
	switch c.Outbound.Gate.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGateBackend, c.Outbound.Gate.Backend)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", "app.db")

	v.SetDefault("readings.driver", "sqlite")
	v.SetDefault("readings.dsn", "")
	v.SetDefault("readings.migrate", false)
	v.SetDefault("readings.max_idle_conns", 5)
	v.SetDefault("readings.max_open_conns", 20)
	v.SetDefault("readings.conn_max_lifetime", time.Hour)

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("alerts.room", "Home")
	v.SetDefault("alerts.debounce", 10*time.Second)
	v.SetDefault("alerts.cooldown", 5*time.Minute)
	setBand(v, "alerts.in_app", "co2", 800, 1000)
	setBand(v, "alerts.in_app", "co", 9, 35)
	setBand(v, "alerts.in_app", "air_quality", 35, 75)
	setBand(v, "alerts.in_app", "smoke", 300, 800)
	setBand(v, "alerts.status", "co2", 800, 1000)
	setBand(v, "alerts.status", "co", 9, 35)
	setBand(v, "alerts.status", "air_quality", 36, 75)
	setBand(v, "alerts.status", "smoke", 300, 800)

	v.SetDefault("outbound.email", "")
	v.SetDefault("outbound.cooldown", 3*time.Minute)
	v.SetDefault("outbound.notify_timeout", 10*time.Second)
	v.SetDefault("outbound.limits.high_co2", 1000)
	v.SetDefault("outbound.limits.high_co", 9)
	v.SetDefault("outbound.limits.high_air_quality", 75)
	v.SetDefault("outbound.limits.high_smoke", 150)
	v.SetDefault("outbound.limits.low_co2", 300)
	v.SetDefault("outbound.limits.low_co", 1)
	v.SetDefault("outbound.gate.backend", "memory")
	v.SetDefault("outbound.gate.redis_addr", "localhost:6379")
	v.SetDefault("outbound.gate.redis_password", "")
	v.SetDefault("outbound.gate.redis_db", 0)
	v.SetDefault("outbound.gate.prefix", "core:cooldown:")

	v.SetDefault("notify.webhook_url", "")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "core-innovators")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.readings_topic", "core/sensors/readings")
	v.SetDefault("mqtt.alerts_topic", "core/alerts")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.connect_wait", 10*time.Second)

	v.SetDefault("simulator.enabled", true)
	v.SetDefault("simulator.tick", 5*time.Second)

	v.SetDefault("assistant.wake_word", "hey core")
	v.SetDefault("assistant.owner", "Durai")
	v.SetDefault("assistant.min_knowledge_score", 40)
	v.SetDefault("assistant.timezone", "Local")

	v.SetDefault("automation.seed_defaults", true)
}

func setBand(v *viper.Viper, prefix, channel string, warning, critical float64) {
	v.SetDefault(prefix+"."+channel+".warning", warning)
	v.SetDefault(prefix+"."+channel+".critical", critical)
}
