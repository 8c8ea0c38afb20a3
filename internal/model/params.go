package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration marks malformed run parameters. It is reported at
// construction or at the start of the offending sweep, never after a partial
// application.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Placement selects where neutral agents are put on the lattice.
type Placement string

const (
	PlacementRandom      Placement = "random"
	PlacementTopLeft     Placement = "top_left"
	PlacementTopRight    Placement = "top_right"
	PlacementBottomLeft  Placement = "bottom_left"
	PlacementBottomRight Placement = "bottom_right"
	// PlacementClustered is an alias for the top-left corner block.
	PlacementClustered Placement = "clustered"
)

// FieldPolicy controls how often the global field is recomputed within a sweep.
type FieldPolicy string

const (
	// FieldPerSweep fixes the global field once before the black half-sweep,
	// matching the reference dynamics.
	FieldPerSweep FieldPolicy = "per_sweep"
	// FieldPerHalfSweep recomputes it again before the white half-sweep.
	FieldPerHalfSweep FieldPolicy = "per_half_sweep"
)

// CrashSpec forces a number of non-neutral agents to -1 (a simultaneous sell)
// immediately after the statistics of the given sweep.
type CrashSpec struct {
	Sweep  int
	Agents int
}

// Params is the immutable configuration record for one simulation run.
// Units/conventions:
// - L: lattice side, grid is L x L
// - NeighborCoupling (J), GlobalCoupling (alpha), Beta (inverse temperature): finite positives
// - NeutralFraction: 0..1, fraction of frozen agents
// - InitDownFraction: 0..1, probability a non-neutral spin starts at -1
type Params struct {
	L                int
	NeighborCoupling float64
	GlobalCoupling   float64
	Beta             float64
	NeutralFraction  float64
	InitDownFraction float64
	Placement        Placement
	FieldPolicy      FieldPolicy
	Sweeps           int
	Seed             int64
	Crash            *CrashSpec
}

// Validate rejects parameters the engine cannot run. A 1x1 lattice is refused:
// under periodic boundaries a single cell is its own four neighbors.
func (p Params) Validate() error {
	if p.L < 2 {
		return fmt.Errorf("%w: lattice size must be >= 2, got %d", ErrInvalidConfiguration, p.L)
	}
	if p.NeighborCoupling <= 0 || !isFinite(p.NeighborCoupling) {
		return fmt.Errorf("%w: neighbor coupling must be a finite positive, got %v", ErrInvalidConfiguration, p.NeighborCoupling)
	}
	if p.GlobalCoupling < 0 || !isFinite(p.GlobalCoupling) {
		return fmt.Errorf("%w: global coupling must be finite and >= 0, got %v", ErrInvalidConfiguration, p.GlobalCoupling)
	}
	if p.Beta <= 0 || !isFinite(p.Beta) {
		return fmt.Errorf("%w: inverse temperature must be a finite positive, got %v", ErrInvalidConfiguration, p.Beta)
	}
	if p.NeutralFraction < 0 || p.NeutralFraction > 1 {
		return fmt.Errorf("%w: neutral fraction must be in [0,1], got %v", ErrInvalidConfiguration, p.NeutralFraction)
	}
	if p.InitDownFraction < 0 || p.InitDownFraction > 1 {
		return fmt.Errorf("%w: init down fraction must be in [0,1], got %v", ErrInvalidConfiguration, p.InitDownFraction)
	}
	switch p.Placement {
	case PlacementRandom, PlacementClustered, PlacementTopLeft, PlacementTopRight, PlacementBottomLeft, PlacementBottomRight:
	default:
		return fmt.Errorf("%w: unknown placement %q", ErrInvalidConfiguration, p.Placement)
	}
	switch p.FieldPolicy {
	case FieldPerSweep, FieldPerHalfSweep:
	default:
		return fmt.Errorf("%w: unknown field policy %q", ErrInvalidConfiguration, p.FieldPolicy)
	}
	if p.Sweeps < 0 {
		return fmt.Errorf("%w: sweep count must be >= 0, got %d", ErrInvalidConfiguration, p.Sweeps)
	}
	if p.Crash != nil {
		if p.Crash.Sweep < 0 {
			return fmt.Errorf("%w: crash sweep must be >= 0, got %d", ErrInvalidConfiguration, p.Crash.Sweep)
		}
		if p.Crash.Agents <= 0 {
			return fmt.Errorf("%w: crash agent count must be > 0, got %d", ErrInvalidConfiguration, p.Crash.Agents)
		}
	}
	return nil
}

// DefaultParams returns the canonical Bornholdt configuration used by the demo
// and as the base for config-file overrides.
func DefaultParams() Params {
	return Params{
		L:                50,
		NeighborCoupling: 1.0,
		GlobalCoupling:   4.0,
		Beta:             1.0,
		NeutralFraction:  0,
		InitDownFraction: 0.5,
		Placement:        PlacementRandom,
		FieldPolicy:      FieldPerSweep,
		Sweeps:           1000,
		Seed:             1,
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
