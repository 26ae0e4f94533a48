// Package config holds the tunables of the notepad state layer: simulated
// store latencies, the default toast duration and event buffering.
//
// A configuration file is YAML:
//
//	latency:
//	  list: 500ms
//	  mutate: 300ms
//	toast:
//	  duration: 3s
//	events:
//	  buffer: 16
//
// Missing keys keep their defaults. A Watcher reloads latencies and the
// toast duration while the app runs; events.buffer sizes channels at
// startup and only applies after a restart.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultListLatency   = 500 * time.Millisecond
	DefaultMutateLatency = 300 * time.Millisecond
	DefaultToastDuration = 3000 * time.Millisecond
	DefaultEventBuffer   = 16
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the full set of tunables.
type Config struct {
	Latency Latency `yaml:"latency"`
	Toast   Toast   `yaml:"toast"`
	Events  Events  `yaml:"events"`
}

// Latency is the artificial delay applied by the in-memory store.
// Zero disables the delay.
type Latency struct {
	List   time.Duration `yaml:"list" validate:"gte=0"`
	Mutate time.Duration `yaml:"mutate" validate:"gte=0"`
}

// Toast configures transient notifications.
type Toast struct {
	Duration time.Duration `yaml:"duration" validate:"gt=0"`
}

// Events configures subscriber channels.
type Events struct {
	Buffer int `yaml:"buffer" validate:"gte=0,lte=4096"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Latency: Latency{
			List:   DefaultListLatency,
			Mutate: DefaultMutateLatency,
		},
		Toast: Toast{
			Duration: DefaultToastDuration,
		},
		Events: Events{
			Buffer: DefaultEventBuffer,
		},
	}
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s%s", fieldPath(fe), fe.Tag(), paramSuffix(fe.Param())))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func fieldPath(fe validator.FieldError) string {
	// Drop the root struct name ("Config.").
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
