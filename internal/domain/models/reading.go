package models

import "time"

// Axis identifies one accelerometer axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Axes lists the axes of a composite sample in emission order.
var Axes = []Axis{AxisX, AxisY, AxisZ}

// StreamName returns the handler stream that carries the axis, e.g. "x_axis".
func (a Axis) StreamName() string { return string(a) + "_axis" }

// Valid reports whether a is one of the known axes.
func (a Axis) Valid() bool {
	switch a {
	case AxisX, AxisY, AxisZ:
		return true
	default:
		return false
	}
}

// AxisReading is a single-axis value as delivered by the device.
type AxisReading struct {
	Axis      Axis      `json:"axis"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// AxisValue is one component of a composite sample.
type AxisValue struct {
	Value     float64
	Timestamp time.Time
}

// CompositeSample holds one value for every axis.
type CompositeSample struct {
	X AxisValue
	Y AxisValue
	Z AxisValue
}

// Get returns the component for axis a.
func (c CompositeSample) Get(a Axis) AxisValue {
	switch a {
	case AxisX:
		return c.X
	case AxisY:
		return c.Y
	default:
		return c.Z
	}
}

// CollectionProgress reports how many complete samples have been assembled
// against the warm-up target.
type CollectionProgress struct {
	CompleteSamples uint64 `json:"complete_samples"`
	WarmupSamples   uint64 `json:"warmup_samples"`
	Ready           bool   `json:"ready"`
}
