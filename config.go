package profilez

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// Default capacities used by New.
const (
	DefaultMaxEvents       = 1 << 20
	DefaultLabelArenaBytes = 1 << 20
	DefaultFormatLimit     = 64
)

// ErrInvalidConfig is returned when a Config cannot back a Recorder.
var ErrInvalidConfig = errors.New("profilez: invalid config")

// Config holds the fixed capacities of a Recorder.
// They cannot change for the lifetime of the recorder.
type Config struct {
	MaxEvents       int `toml:"max_events"`
	LabelArenaBytes int `toml:"label_arena_bytes"`
	FormatLimit     int `toml:"format_limit"`
}

// DefaultConfig returns the capacities used by New.
func DefaultConfig() Config {
	return Config{
		MaxEvents:       DefaultMaxEvents,
		LabelArenaBytes: DefaultLabelArenaBytes,
		FormatLimit:     DefaultFormatLimit,
	}
}

// Validate checks that every capacity is positive and fits the 32-bit
// cursors used by the recorder.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"max_events", c.MaxEvents},
		{"label_arena_bytes", c.LabelArenaBytes},
		{"format_limit", c.FormatLimit},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %d", ErrInvalidConfig, f.name, f.value)
		}
		// Keep one value of headroom above capacity in the 32-bit cursors.
		if _, err := safecast.Conv[uint32](f.value + 1); err != nil {
			return fmt.Errorf("%w: %s too large: %w", ErrInvalidConfig, f.name, err)
		}
	}
	if c.FormatLimit > c.LabelArenaBytes {
		return fmt.Errorf("%w: format_limit %d exceeds label_arena_bytes %d",
			ErrInvalidConfig, c.FormatLimit, c.LabelArenaBytes)
	}
	return nil
}

// LoadConfig decodes a TOML file over DefaultConfig and validates it.
// Keys missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load profiler config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromEnv applies PROFILEZ_MAX_EVENTS, PROFILEZ_LABEL_ARENA_BYTES and
// PROFILEZ_FORMAT_LIMIT over base. Unset or unparsable variables leave the
// corresponding field untouched.
func ConfigFromEnv(base Config) Config {
	base.MaxEvents = envInt("PROFILEZ_MAX_EVENTS", base.MaxEvents)
	base.LabelArenaBytes = envInt("PROFILEZ_LABEL_ARENA_BYTES", base.LabelArenaBytes)
	base.FormatLimit = envInt("PROFILEZ_FORMAT_LIMIT", base.FormatLimit)
	return base
}

// envInt returns the integer value of an environment variable or fallback.
func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
