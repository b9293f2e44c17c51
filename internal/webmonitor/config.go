package webmonitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines the runtime configuration for the web monitor server.
type Config struct {
	Addr             string        `yaml:"addr"`
	AssetsDir        string        `yaml:"assets_dir"`
	BrokerAddress    string        `yaml:"mqtt_broker_address"`
	BrokerPort       int           `yaml:"mqtt_broker_port"`
	DetectTopic      string        `yaml:"mqtt_detect_topic"`
	ClientID         string        `yaml:"mqtt_client_id"`
	DummyImagePath   string        `yaml:"dummy_detect_image"`
	HistorySize      int           `yaml:"history_size"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	StatusInterval   time.Duration `yaml:"status_interval"`
	MJPEGInterval    time.Duration `yaml:"mjpeg_interval"`
	ConnectTimeout   time.Duration `yaml:"mqtt_connect_timeout"`
	DisableCollector bool          `yaml:"disable_collector"`
}

// DefaultConfig returns a config aligned with the achatina monitor container.
func DefaultConfig() Config {
	return Config{
		Addr:            ":5200",
		AssetsDir:       "",
		BrokerAddress:   "mqtt",
		BrokerPort:      1883,
		DetectTopic:     "/detect",
		ClientID:        "",
		DummyImagePath:  "/dummy_detect.jpg",
		HistorySize:     8,
		RefreshInterval: 500 * time.Millisecond,
		StatusInterval:  2 * time.Second,
		MJPEGInterval:   500 * time.Millisecond,
		ConnectTimeout:  10 * time.Second,
	}
}

// envOverrides maps environment variables onto config fields.
var envOverrides = []struct {
	key   string
	apply func(*Config, string) error
}{
	{"MONITOR_ADDR", func(c *Config, v string) error { c.Addr = v; return nil }},
	{"MQTT_BROKER_ADDRESS", func(c *Config, v string) error { c.BrokerAddress = v; return nil }},
	{"MQTT_BROKER_PORT", func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MQTT_BROKER_PORT: %w", err)
		}
		c.BrokerPort = port
		return nil
	}},
	{"MQTT_SUB_TOPIC", func(c *Config, v string) error { c.DetectTopic = v; return nil }},
	{"DUMMY_DETECT_IMAGE", func(c *Config, v string) error { c.DummyImagePath = v; return nil }},
}

// LoadConfig builds a Config from defaults, an optional YAML file, an
// optional .env file and the process environment, in that order.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	for _, o := range envOverrides {
		if v := os.Getenv(o.key); v != "" {
			if err := o.apply(&cfg, v); err != nil {
				return cfg, err
			}
		}
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr required")
	}
	if !c.DisableCollector {
		if c.BrokerAddress == "" {
			return fmt.Errorf("mqtt_broker_address required")
		}
		if c.BrokerPort <= 0 || c.BrokerPort > 65535 {
			return fmt.Errorf("mqtt_broker_port out of range: %d", c.BrokerPort)
		}
		if c.DetectTopic == "" {
			return fmt.Errorf("mqtt_detect_topic required")
		}
	}
	return nil
}

// BrokerURL returns the tcp:// URL of the MQTT broker.
func (c Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.BrokerAddress, c.BrokerPort)
}

// withDefaults fills zero durations and sizes.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = d.RefreshInterval
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = d.StatusInterval
	}
	if c.MJPEGInterval <= 0 {
		c.MJPEGInterval = d.MJPEGInterval
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	return c
}
