// Package config manages fpctl configuration using koanf/v2: defaults,
// an optional YAML file, and TOUCHSTONE_-prefixed environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete fpctl configuration.
type Config struct {
	Device DeviceConfig `koanf:"device"`
	Store  StoreConfig  `koanf:"store"`
	Serve  ServeConfig  `koanf:"serve"`
}

// DeviceConfig describes the sensor and its serial link.
type DeviceConfig struct {
	// Path is the serial device, e.g. /dev/ttyUSB0 or /dev/serial0.
	Path string `koanf:"path"`
	// BaudRate is the line speed; sensors ship at 57600.
	BaudRate int `koanf:"baud_rate"`
	// Address is the 32-bit device address as a hex string, e.g. "0xFFFFFFFF".
	Address string `koanf:"address"`
	// Password is the 32-bit device password as a hex string.
	Password string `koanf:"password"`
	// ReadTimeout bounds a single frame read on the serial port.
	ReadTimeout time.Duration `koanf:"read_timeout"`
}

// StoreConfig locates the sqlite record database.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// ServeConfig holds the HTTP listener settings for fpctl serve.
type ServeConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns a Config populated with the sensor's factory settings.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Path:        "/dev/serial0",
			BaudRate:    57600,
			Address:     "0xFFFFFFFF",
			Password:    "0x00000000",
			ReadTimeout: 2 * time.Second,
		},
		Store: StoreConfig{
			Path: "touchstone.db",
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

// envPrefix is the environment variable prefix: TOUCHSTONE_DEVICE_PATH maps
// to device.path.
const envPrefix = "TOUCHSTONE_"

// Load reads configuration from the YAML file at path (skipped when path is
// empty or missing), overlays environment overrides, and merges on top of
// Default().
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k, Default()); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config from %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeyMapper transforms TOUCHSTONE_DEVICE_PATH -> device.path. Only the
// first underscore separates section from field, so
// TOUCHSTONE_DEVICE_BAUD_RATE maps to device.baud_rate.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

func loadDefaults(k *koanf.Koanf, d *Config) error {
	defaultMap := map[string]any{
		"device.path":         d.Device.Path,
		"device.baud_rate":    d.Device.BaudRate,
		"device.address":      d.Device.Address,
		"device.password":     d.Device.Password,
		"device.read_timeout": d.Device.ReadTimeout.String(),
		"store.path":          d.Store.Path,
		"serve.addr":          d.Serve.Addr,
	}
	for key, value := range defaultMap {
		if err := k.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks field ranges without touching the device.
func (c *Config) Validate() error {
	if c.Device.Path == "" {
		return fmt.Errorf("config: device.path is required")
	}
	if c.Device.BaudRate < 9600 || c.Device.BaudRate > 115200 || c.Device.BaudRate%9600 != 0 {
		return fmt.Errorf("config: device.baud_rate %d: must be a multiple of 9600 up to 115200", c.Device.BaudRate)
	}
	if _, err := c.Device.AddressValue(); err != nil {
		return err
	}
	if _, err := c.Device.PasswordValue(); err != nil {
		return err
	}
	if c.Device.ReadTimeout <= 0 {
		return fmt.Errorf("config: device.read_timeout must be positive")
	}
	return nil
}

// AddressValue parses the configured device address.
func (d DeviceConfig) AddressValue() (uint32, error) {
	return parseUint32("device.address", d.Address)
}

// PasswordValue parses the configured device password.
func (d DeviceConfig) PasswordValue() (uint32, error) {
	return parseUint32("device.password", d.Password)
}

func parseUint32(field, s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s %q: expected a 32-bit hex value", field, s)
	}
	return uint32(v), nil
}
