package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"AccelStream/internal/domain/models"
)

// ErrUnknownAxis is returned when a reading names an axis outside x/y/z.
var ErrUnknownAxis = errors.New("unknown axis")

// AssemblyState is the phase of the composite sample under construction.
type AssemblyState int

const (
	StateEmpty AssemblyState = iota
	StatePartial
	StateComplete
)

func (s AssemblyState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartial:
		return "partial"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("AssemblyState(%d)", int(s))
	}
}

const fullMask uint8 = 0b111

func axisBit(a models.Axis) uint8 {
	switch a {
	case models.AxisX:
		return 1
	case models.AxisY:
		return 2
	case models.AxisZ:
		return 4
	default:
		return 0
	}
}

// CompositeSink receives every completed composite sample.
type CompositeSink func(ctx context.Context, s models.CompositeSample)

// Assembler joins per-axis readings into composite samples.
//
// A composite is emitted to the sink once every axis has a value, and the
// pending state is cleared in the same critical section, so a sink never
// sees a half-built sample and two completions never interleave. A second
// reading for an axis that is already set replaces the earlier value.
type Assembler struct {
	mu        sync.Mutex
	pending   models.CompositeSample
	mask      uint8
	completed uint64
	sink      CompositeSink
}

func NewAssembler(sink CompositeSink) *Assembler {
	return &Assembler{sink: sink}
}

// Offer adds r to the pending composite. It reports whether the offer
// completed and emitted a composite sample.
func (a *Assembler) Offer(ctx context.Context, r models.AxisReading) (bool, error) {
	bit := axisBit(r.Axis)
	if bit == 0 {
		return false, fmt.Errorf("%w: %q", ErrUnknownAxis, r.Axis)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	v := models.AxisValue{Value: r.Value, Timestamp: r.Timestamp}
	switch r.Axis {
	case models.AxisX:
		a.pending.X = v
	case models.AxisY:
		a.pending.Y = v
	case models.AxisZ:
		a.pending.Z = v
	}
	a.mask |= bit

	if a.stateLocked() != StateComplete {
		return false, nil
	}
	if a.sink != nil {
		a.sink(ctx, a.pending)
	}
	a.completed++
	a.pending = models.CompositeSample{}
	a.mask = 0
	return true, nil
}

func (a *Assembler) stateLocked() AssemblyState {
	switch a.mask {
	case 0:
		return StateEmpty
	case fullMask:
		return StateComplete
	default:
		return StatePartial
	}
}

// State returns the current phase and which axes are set (bit 0 = x, 1 = y, 2 = z).
func (a *Assembler) State() (AssemblyState, uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked(), a.mask
}

// Completed returns how many composites have been emitted.
func (a *Assembler) Completed() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.completed
}

// Discard drops a partially assembled sample.
func (a *Assembler) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = models.CompositeSample{}
	a.mask = 0
}
