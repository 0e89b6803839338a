// Package config loads the pin and relay assignment of the appliance.
//
// Cycle durations are compile-time constants (see package duration) and are
// not read from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/grprp/internal/gpio"
	"github.com/sweeney/grprp/internal/logic"
	"github.com/sweeney/grprp/internal/millis"
)

// ErrUnknownActuator is returned for an actuator key that names no output.
var ErrUnknownActuator = errors.New("config: unknown actuator")

// Backend selects how actuators are driven.
type Backend string

const (
	BackendGPIO Backend = "gpio"
	BackendMQTT Backend = "mqtt"
)

// MQTT configures the relay backend.
type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix"`
}

// Config is the on-disk configuration.
type Config struct {
	Backend Backend `yaml:"backend"`
	Chip    string  `yaml:"chip"`

	Start int `yaml:"start"`
	Stop  int `yaml:"stop"`

	// Actuators maps actuator keys (e.g. "water_pump") to BCM pins.
	Actuators map[string]int `yaml:"actuators"`

	// HeartbeatPin is the indicator LED; negative disables it.
	HeartbeatPin int `yaml:"heartbeat_pin"`

	MQTT  MQTT               `yaml:"mqtt"`
	Timer millis.TimerConfig `yaml:"timer"`
}

// Default returns the built-in pin map.
func Default() Config {
	pins := gpio.DefaultActuatorPins()
	actuators := make(map[string]int, len(pins))
	for a, pin := range pins {
		actuators[a.String()] = pin
	}
	return Config{
		Backend:      BackendGPIO,
		Chip:         gpio.DefaultChip,
		Start:        gpio.DefaultPinStart,
		Stop:         gpio.DefaultPinStop,
		Actuators:    actuators,
		HeartbeatPin: gpio.DefaultPinHeartbeat,
		MQTT: MQTT{
			Broker:   "tcp://192.168.1.200:1883",
			ClientID: "grprp",
			Prefix:   "appliance/grprp",
		},
		Timer: millis.DefaultTimerConfig,
	}
}

// Load reads and validates the file at path. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Keys left
// out of the document keep their default value; entries of the actuators
// map replace the default pin of that actuator only.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the backend, the actuator keys and pin uniqueness.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendGPIO:
	case BackendMQTT:
		if c.MQTT.Broker == "" {
			return errors.New("config: mqtt backend needs a broker")
		}
		if strings.TrimSpace(c.MQTT.Prefix) == "" {
			return errors.New("config: mqtt backend needs a topic prefix")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}

	if err := c.Timer.Validate(); err != nil {
		return err
	}

	for name := range c.Actuators {
		if _, ok := logic.ParseActuator(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownActuator, name)
		}
	}
	for _, a := range logic.Actuators() {
		if _, ok := c.Actuators[a.String()]; !ok {
			return fmt.Errorf("config: no pin for %s", a)
		}
	}

	// Actuator pins only matter on the GPIO backend. The buttons and the
	// heartbeat LED are always GPIO lines.
	used := map[int]string{}
	claim := func(name string, pin int) error {
		if pin < 0 {
			return fmt.Errorf("config: negative pin %d for %s", pin, name)
		}
		if other, ok := used[pin]; ok {
			return fmt.Errorf("config: pin %d used by both %s and %s", pin, other, name)
		}
		used[pin] = name
		return nil
	}
	if err := claim("start", c.Start); err != nil {
		return err
	}
	if err := claim("stop", c.Stop); err != nil {
		return err
	}
	if c.Backend == BackendGPIO {
		names := make([]string, 0, len(c.Actuators))
		for name := range c.Actuators {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := claim(name, c.Actuators[name]); err != nil {
				return err
			}
		}
	}
	if c.HeartbeatEnabled() {
		if err := claim("heartbeat", c.HeartbeatPin); err != nil {
			return err
		}
	}
	return nil
}

// ActuatorPins returns the actuator map keyed by actuator. Call only on a
// validated config.
func (c Config) ActuatorPins() map[logic.Actuator]int {
	out := make(map[logic.Actuator]int, len(c.Actuators))
	for name, pin := range c.Actuators {
		if a, ok := logic.ParseActuator(name); ok {
			out[a] = pin
		}
	}
	return out
}

// HeartbeatEnabled reports whether an indicator LED is configured.
func (c Config) HeartbeatEnabled() bool {
	return c.HeartbeatPin >= 0
}
