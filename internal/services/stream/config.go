package stream

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by NewHandler for out-of-range parameters.
var ErrInvalidConfig = errors.New("stream: invalid config")

// Config holds the processing parameters shared by every stream.
type Config struct {
	BufferSize       int     `yaml:"buffer_size" default:"500"`
	DisplayWindow    int     `yaml:"display_window" default:"100"`
	SmoothingFactor  float64 `yaml:"smoothing_factor" default:"0.15"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold" default:"3.0"`
}

// DefaultConfig returns the library defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:       500,
		DisplayWindow:    100,
		SmoothingFactor:  0.15,
		AnomalyThreshold: 3.0,
	}
}

func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer_size must be > 0, got %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.DisplayWindow < 1 || c.DisplayWindow > c.BufferSize {
		return fmt.Errorf("%w: display_window must be in [1, %d], got %d", ErrInvalidConfig, c.BufferSize, c.DisplayWindow)
	}
	if !(c.SmoothingFactor > 0 && c.SmoothingFactor <= 1) {
		return fmt.Errorf("%w: smoothing_factor must be in (0, 1], got %g", ErrInvalidConfig, c.SmoothingFactor)
	}
	if !(c.AnomalyThreshold > 0) {
		return fmt.Errorf("%w: anomaly_threshold must be > 0, got %g", ErrInvalidConfig, c.AnomalyThreshold)
	}
	return nil
}
