package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultStatusAddr is used when STATUS_ADDR is not set at all. Setting it
// to the empty string disables the status server.
const DefaultStatusAddr = ":8080"

// Transport names accepted by REPLAY_TRANSPORT.
const (
	TransportMQTT = "mqtt"
	TransportLog  = "log"
)

// Payload formats accepted by REPLAY_PAYLOAD_FORMAT.
const (
	PayloadText    = "text"
	PayloadMsgpack = "msgpack"
)

// Config is the static configuration of a replay process. It is resolved
// once before startup and not changed afterwards.
type Config struct {
	SourcePath      string  `env:"REPLAY_SOURCE_PATH,notEmpty"`
	FrequencyHz     float64 `env:"REPLAY_FREQUENCY_HZ" envDefault:"10"`
	Loop            bool    `env:"REPLAY_LOOP" envDefault:"true"`
	ChannelsFile    string  `env:"REPLAY_CHANNELS_FILE"`
	TopicPrefix     string  `env:"REPLAY_TOPIC_PREFIX" envDefault:"/model/r1_pro/joint/"`
	TopicSuffix     string  `env:"REPLAY_TOPIC_SUFFIX" envDefault:"/cmd_pos"`
	Transport       string  `env:"REPLAY_TRANSPORT" envDefault:"mqtt"`
	PayloadFormat   string  `env:"REPLAY_PAYLOAD_FORMAT" envDefault:"text"`
	ExitOnLoadError bool    `env:"REPLAY_EXIT_ON_LOAD_ERROR" envDefault:"true"`

	MQTT MQTTConfig

	StatusAddr string `env:"STATUS_ADDR"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`
}

// MQTTConfig holds the broker session settings.
type MQTTConfig struct {
	Broker         string        `env:"MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	ClientID       string        `env:"MQTT_CLIENT_ID"`
	QoS            int           `env:"MQTT_QOS" envDefault:"0"`
	ConnectTimeout time.Duration `env:"MQTT_CONNECT_TIMEOUT" envDefault:"5s"`
}

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv parses and validates Config from the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	// env applies envDefault to set-but-empty variables too, so the
	// unset case is resolved here.
	if _, ok := os.LookupEnv("STATUS_ADDR"); !ok {
		cfg.StatusAddr = DefaultStatusAddr
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the values env parsing cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.FrequencyHz <= 0 || math.IsInf(c.FrequencyHz, 0) || math.IsNaN(c.FrequencyHz) {
		errs = append(errs, fmt.Errorf("REPLAY_FREQUENCY_HZ must be positive, got %v", c.FrequencyHz))
	}
	switch strings.ToLower(c.Transport) {
	case TransportMQTT, TransportLog:
	default:
		errs = append(errs, fmt.Errorf("REPLAY_TRANSPORT must be %q or %q, got %q", TransportMQTT, TransportLog, c.Transport))
	}
	switch strings.ToLower(c.PayloadFormat) {
	case PayloadText, PayloadMsgpack:
	default:
		errs = append(errs, fmt.Errorf("REPLAY_PAYLOAD_FORMAT must be %q or %q, got %q", PayloadText, PayloadMsgpack, c.PayloadFormat))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MQTT_CONNECT_TIMEOUT must be positive, got %s", c.MQTT.ConnectTimeout))
	}
	return errors.Join(errs...)
}
