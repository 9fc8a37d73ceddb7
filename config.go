package cec

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DiscoveryConfig carries the per-run timing tunables plus the default
// display-name tables consulted when a device never reports a name of its
// own. Supplied to the action already parsed — the action itself performs
// no file I/O.
type DiscoveryConfig struct {
	TimeoutMS          time.Duration `yaml:"-"`
	TimeoutMSMillis    int64         `yaml:"timeout_ms"`
	TimeoutRetry       int           `yaml:"timeout_retry"`
	DevicePollingRetry int           `yaml:"device_polling_retry"`

	DefaultNames                map[uint8]string `yaml:"default_names"`
	DefaultNameByLogicalAddress map[uint8]string `yaml:"default_name_by_logical_address"`
}

// DefaultDiscoveryConfig returns the recommended defaults: poll retry 3,
// per-query retry 5, timeout 2000ms.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		TimeoutMS:          2000 * time.Millisecond,
		TimeoutMSMillis:    2000,
		TimeoutRetry:       5,
		DevicePollingRetry: 3,
	}
}

func (c DiscoveryConfig) valid() bool {
	return c.TimeoutMSMillis > 0 && c.TimeoutRetry >= 0 && c.DevicePollingRetry >= 0
}

func (c DiscoveryConfig) resolveNameForDeviceType(dt DeviceType) (string, bool) {
	if c.DefaultNames != nil {
		if name, found := c.DefaultNames[uint8(dt)]; found {
			return name, true
		}
	}
	return defaultNameForDeviceType(dt)
}

func (c DiscoveryConfig) resolveNameForLogicalAddress(addr LogicalAddress) string {
	if c.DefaultNameByLogicalAddress != nil {
		if name, found := c.DefaultNameByLogicalAddress[uint8(addr)]; found {
			return name
		}
	}
	return defaultNameForLogicalAddress(addr)
}

// LoadDiscoveryConfig reads a YAML config file at path. A missing or
// malformed file is not fatal: this function just returns the error, and
// LoadDiscoveryConfigOrDefault falls back to DefaultDiscoveryConfig without
// logging it.
func LoadDiscoveryConfig(path string) (DiscoveryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DiscoveryConfig{}, err
	}

	cfg := DefaultDiscoveryConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DiscoveryConfig{}, err
	}

	if cfg.TimeoutMSMillis > 0 {
		cfg.TimeoutMS = time.Duration(cfg.TimeoutMSMillis) * time.Millisecond
	}

	if !cfg.valid() {
		return DiscoveryConfig{}, errInvalidConfig
	}

	return cfg, nil
}

// LoadDiscoveryConfigOrDefault is the form most hosts want: never returns an
// error, always a usable config.
func LoadDiscoveryConfigOrDefault(path string) DiscoveryConfig {
	cfg, err := LoadDiscoveryConfig(path)
	if err != nil {
		return DefaultDiscoveryConfig()
	}
	return cfg
}
