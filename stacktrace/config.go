package stacktrace

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Default values applied by DefaultConfig.
const (
	// DefaultMaxFrames is the default cap on rendered frames per query.
	DefaultMaxFrames = 15

	// DefaultMinAppFrames is the default number of application frames a
	// filtered stack must retain before the fallback rendering kicks in.
	DefaultMinAppFrames = 1
)

// Config errors.
var (
	// ErrInvalidConfig is returned (wrapped) when a Config fails validation.
	ErrInvalidConfig = errors.New("stacktrace: invalid config")

	// ErrNoFrames is returned when stack capture produced nothing to render.
	ErrNoFrames = errors.New("stacktrace: no frames captured")
)

// Config controls capture, filtering, and rendering of query stack traces.
//
// The zero value is a fully disabled configuration. Use DefaultConfig for the
// documented defaults, or ConfigFromEnv to honor QUERYTRAIL_* environment
// variables.
type Config struct {
	// Enabled turns annotation on. When false every annotation entry point
	// returns its input unchanged.
	//
	// Default: true.
	Enabled bool

	// MaxFrames caps how many frames are rendered into the comment, keeping
	// the frames closest to the call site. 0 means no cap.
	//
	// Default: 15.
	MaxFrames int

	// FilterThirdParty drops frames that live under a dependency root
	// (module cache, vendor tree) as well as known database-layer internals,
	// so the trace shows application code rather than library plumbing.
	//
	// Default: true.
	FilterThirdParty bool

	// FilterTestFrameworks drops test-runner machinery (the testing package,
	// assertion-library internals). Frames from the application's own _test.go
	// files are always kept.
	//
	// Default: true.
	FilterTestFrameworks bool

	// FilterStdlib drops standard-library frames, including synthetic frames
	// such as <autogenerated>.
	//
	// Default: true.
	FilterStdlib bool

	// MinAppFrames is the minimum number of frames the filtered stack must
	// retain. When filtering leaves fewer than this, the trace falls back to
	// a short unfiltered tail so the comment is never empty of context.
	//
	// Default: 1.
	MinAppFrames int
}

// DefaultConfig returns the documented default configuration:
// annotation enabled, all filters on, 15 frames, 1 minimum app frame.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		MaxFrames:            DefaultMaxFrames,
		FilterThirdParty:     true,
		FilterTestFrameworks: true,
		FilterStdlib:         true,
		MinAppFrames:         DefaultMinAppFrames,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by environment variables:
//
//	QUERYTRAIL_ENABLED                (bool)
//	QUERYTRAIL_MAX_FRAMES             (int)
//	QUERYTRAIL_FILTER_THIRDPARTY      (bool)
//	QUERYTRAIL_FILTER_TEST_FRAMEWORKS (bool)
//	QUERYTRAIL_FILTER_STDLIB          (bool)
//	QUERYTRAIL_MIN_APP_FRAMES         (int)
//
// Unset or unparsable values keep the default. Booleans accept the forms
// understood by strconv.ParseBool ("1", "t", "true", "0", "false", ...).
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool("QUERYTRAIL_ENABLED", cfg.Enabled)
	cfg.MaxFrames = envInt("QUERYTRAIL_MAX_FRAMES", cfg.MaxFrames)
	cfg.FilterThirdParty = envBool("QUERYTRAIL_FILTER_THIRDPARTY", cfg.FilterThirdParty)
	cfg.FilterTestFrameworks = envBool("QUERYTRAIL_FILTER_TEST_FRAMEWORKS", cfg.FilterTestFrameworks)
	cfg.FilterStdlib = envBool("QUERYTRAIL_FILTER_STDLIB", cfg.FilterStdlib)
	cfg.MinAppFrames = envInt("QUERYTRAIL_MIN_APP_FRAMES", cfg.MinAppFrames)
	return cfg
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.MaxFrames < 0 {
		return fmt.Errorf("%w: MaxFrames must be >= 0, got %d", ErrInvalidConfig, c.MaxFrames)
	}
	if c.MinAppFrames < 0 {
		return fmt.Errorf("%w: MinAppFrames must be >= 0, got %d", ErrInvalidConfig, c.MinAppFrames)
	}
	return nil
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
