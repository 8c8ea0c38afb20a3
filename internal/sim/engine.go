package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"spin-market/internal/model"
)

// ErrNumericInstability marks a non-finite field or flip probability. The run
// is aborted rather than allowed to poison the lattice with NaNs.
var ErrNumericInstability = errors.New("numeric instability")

// SweepFunc observes one completed sweep. Used by drivers that stream or
// persist rows as they are produced.
type SweepFunc func(SweepRow)

// Engine advances a lattice under the Bornholdt update rule.
//
// Each sweep is a checkerboard (sublattice) update: black cells, parity
// (i+j)%2 == 0, are updated first against the white cells' current spins, then
// white against the freshly updated black. The global field is fixed before a
// half-sweep begins; by default it is computed once per full sweep.
//
// The engine owns the run's only random stream. Draws happen in a fixed
// order (lattice initialization, then per sweep: black cells row-major, white
// cells row-major, then crash selection) so equal seeds give bit-identical
// series.
type Engine struct {
	params model.Params
	rng    *rand.Rand

	sweep    int
	logPrice float64
}

// New validates the parameters and prepares an engine seeded from them.
func New(p model.Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params: p,
		rng:    rand.New(rand.NewSource(p.Seed)),
	}, nil
}

// Params returns the run configuration.
func (e *Engine) Params() model.Params { return e.params }

// InitLattice constructs the run's lattice, consuming the engine's random
// stream so that initialization and dynamics share one seeded sequence.
func (e *Engine) InitLattice() (*model.Lattice, error) {
	lat, err := model.NewLattice(e.params, e.rng)
	if err != nil {
		return nil, err
	}
	if e.params.Crash != nil && e.params.Crash.Agents > lat.ActiveCount() {
		return nil, fmt.Errorf("%w: crash forces %d agents but only %d are non-neutral",
			model.ErrInvalidConfiguration, e.params.Crash.Agents, lat.ActiveCount())
	}
	return lat, nil
}

// Run executes the configured number of sweeps, invoking onSweep (if non-nil)
// after each one. A failed sweep invalidates the run; the dynamics are
// deterministic given the seed, so a retry would reproduce the same failure.
func (e *Engine) Run(lat *model.Lattice, onSweep SweepFunc) (*Result, error) {
	if lat == nil {
		return nil, fmt.Errorf("%w: lattice is nil", model.ErrInvalidConfiguration)
	}
	series := make([]SweepRow, 0, e.params.Sweeps)
	for i := 0; i < e.params.Sweeps; i++ {
		row, err := e.Step(lat)
		if err != nil {
			return nil, fmt.Errorf("sweep %d: %w", e.sweep, err)
		}
		series = append(series, row)
		if onSweep != nil {
			onSweep(row)
		}
	}
	return &Result{
		Series:             series,
		FinalMagnetization: lat.Magnetization(),
		ActiveAgents:       lat.ActiveCount(),
	}, nil
}

// Step advances the lattice by exactly one sweep and returns its statistics.
// The crash perturbation, when configured for this sweep index, is applied
// after the statistics are recorded; the next sweep sees the shocked lattice.
func (e *Engine) Step(lat *model.Lattice) (SweepRow, error) {
	crash := e.params.Crash
	if crash != nil && crash.Sweep == e.sweep && crash.Agents > lat.ActiveCount() {
		return SweepRow{}, fmt.Errorf("%w: crash forces %d agents but only %d are non-neutral",
			model.ErrInvalidConfiguration, crash.Agents, lat.ActiveCount())
	}

	field, err := e.globalField(lat)
	if err != nil {
		return SweepRow{}, err
	}
	if err := e.halfSweep(lat, 0, field); err != nil {
		return SweepRow{}, err
	}
	if e.params.FieldPolicy == model.FieldPerHalfSweep {
		if field, err = e.globalField(lat); err != nil {
			return SweepRow{}, err
		}
	}
	if err := e.halfSweep(lat, 1, field); err != nil {
		return SweepRow{}, err
	}

	mag := lat.Magnetization()
	e.logPrice += mag
	row := SweepRow{
		Sweep:         e.sweep,
		Magnetization: mag,
		LogPrice:      e.logPrice,
	}

	if crash != nil && crash.Sweep == e.sweep {
		if err := e.applyCrash(lat, crash.Agents); err != nil {
			return SweepRow{}, err
		}
	}
	e.sweep++
	return row, nil
}

// globalField is the strategic (contrarian) market signal: alpha times the
// magnitude of the magnetization over active agents.
func (e *Engine) globalField(lat *model.Lattice) (float64, error) {
	g := e.params.GlobalCoupling * math.Abs(lat.Magnetization())
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, fmt.Errorf("%w: global field is not finite", ErrNumericInstability)
	}
	return g, nil
}

// halfSweep updates every non-neutral cell of one sublattice color in
// row-major order. Cells of the active color never neighbor each other, so
// each update reads only the opposite color's fixed spins.
func (e *Engine) halfSweep(lat *model.Lattice, parity int, field float64) error {
	j0 := e.params.NeighborCoupling
	twoBeta := 2 * e.params.Beta
	for i := 0; i < lat.L; i++ {
		for j := (i + parity) % 2; j < lat.L; j += 2 {
			idx := lat.Index(i, j)
			if lat.IsNeutralAt(idx) {
				continue
			}
			s := float64(lat.SpinAt(idx))
			h := j0*float64(lat.NeighborSum(i, j)) - s*field
			p := flipProbability(twoBeta * s * h)
			if math.IsNaN(p) {
				return fmt.Errorf("%w: flip probability at (%d,%d) is NaN", ErrNumericInstability, i, j)
			}
			if e.rng.Float64() < p {
				lat.SetSpin(idx, -lat.SpinAt(idx))
			}
		}
	}
	return nil
}

// flipProbability evaluates the Glauber acceptance 1/(1+exp(x)) in a form
// stable for large |x|: the exponential is only ever taken of a non-positive
// argument.
func flipProbability(x float64) float64 {
	if x >= 0 {
		ex := math.Exp(-x)
		return ex / (1 + ex)
	}
	return 1 / (1 + math.Exp(x))
}

// applyCrash forces count distinct non-neutral agents, chosen uniformly
// without replacement, to -1.
func (e *Engine) applyCrash(lat *model.Lattice, count int) error {
	activeCells := make([]int, 0, lat.ActiveCount())
	for idx := 0; idx < lat.L*lat.L; idx++ {
		if !lat.IsNeutralAt(idx) {
			activeCells = append(activeCells, idx)
		}
	}
	perm := e.rng.Perm(len(activeCells))
	forced := make([]int, count)
	for k := 0; k < count; k++ {
		forced[k] = activeCells[perm[k]]
	}
	return lat.ForceSell(forced)
}
