package model

import (
	"fmt"
	"math"
	"math/rand"
)

// Lattice holds the spin configuration of one simulation run. Spins are -1 or
// +1 for strategic traders and 0 for neutral (frozen) agents; the mask marks
// neutral positions so arithmetic over the grid stays branch-free. The grid is
// row-major: index(i,j) = i*L + j.
//
// A Lattice is exclusively owned: the update engine mutates it in place and no
// other component may hold a competing reference during a sweep.
type Lattice struct {
	L       int
	spins   []int8
	neutral []bool
	active  int
}

// NewLattice builds a randomly initialized lattice from validated parameters.
// Draw order (part of the reproducibility contract): neutral placement first,
// then spin assignment row-major over non-neutral cells.
func NewLattice(p Params, rng *rand.Rand) (*Lattice, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.L * p.L
	lat := &Lattice{
		L:       p.L,
		spins:   make([]int8, n),
		neutral: make([]bool, n),
	}
	numNeutral := int(math.Round(p.NeutralFraction * float64(n)))
	if err := lat.placeNeutral(p.Placement, numNeutral, rng); err != nil {
		return nil, err
	}
	for idx := 0; idx < n; idx++ {
		if lat.neutral[idx] {
			continue
		}
		if rng.Float64() < p.InitDownFraction {
			lat.spins[idx] = -1
		} else {
			lat.spins[idx] = 1
		}
	}
	lat.active = n - numNeutral
	return lat, nil
}

func (l *Lattice) placeNeutral(placement Placement, count int, rng *rand.Rand) error {
	n := l.L * l.L
	if count > n {
		return fmt.Errorf("%w: neutral count %d exceeds %d cells", ErrInvalidConfiguration, count, n)
	}
	if count == 0 {
		return nil
	}
	switch placement {
	case PlacementRandom:
		perm := rng.Perm(n)
		for _, idx := range perm[:count] {
			l.neutral[idx] = true
		}
	default:
		// Corner block: fill row-major from the anchor corner until the target
		// count is reached, giving a contiguous bounded region.
		for k := 0; k < count; k++ {
			i, j := k/l.L, k%l.L
			switch placement {
			case PlacementTopRight:
				j = l.L - 1 - j
			case PlacementBottomLeft:
				i = l.L - 1 - i
			case PlacementBottomRight:
				i, j = l.L-1-i, l.L-1-j
			}
			l.neutral[l.Index(i, j)] = true
		}
	}
	return nil
}

// Index returns the linear slice index for cell (i, j).
func (l *Lattice) Index(i, j int) int { return i*l.L + j }

// Spin returns the spin at (i, j): -1, +1, or 0 for a neutral cell.
func (l *Lattice) Spin(i, j int) int8 { return l.spins[l.Index(i, j)] }

// SpinAt returns the spin at a linear index.
func (l *Lattice) SpinAt(idx int) int8 { return l.spins[idx] }

// SetSpin overwrites the spin at a linear index. Neutral cells are never
// written; callers gate on IsNeutralAt.
func (l *Lattice) SetSpin(idx int, s int8) { l.spins[idx] = s }

// IsNeutral reports whether cell (i, j) is frozen.
func (l *Lattice) IsNeutral(i, j int) bool { return l.neutral[l.Index(i, j)] }

// IsNeutralAt reports whether the cell at a linear index is frozen.
func (l *Lattice) IsNeutralAt(idx int) bool { return l.neutral[idx] }

// ActiveCount returns the number of non-neutral agents.
func (l *Lattice) ActiveCount() int { return l.active }

// Neighbors returns the four lattice neighbors of (i, j) under periodic
// boundary conditions, in up/down/left/right order.
func (l *Lattice) Neighbors(i, j int) [4][2]int {
	up := i - 1
	if up < 0 {
		up = l.L - 1
	}
	down := i + 1
	if down == l.L {
		down = 0
	}
	left := j - 1
	if left < 0 {
		left = l.L - 1
	}
	right := j + 1
	if right == l.L {
		right = 0
	}
	return [4][2]int{{up, j}, {down, j}, {i, left}, {i, right}}
}

// NeighborSum is the coupling sum over the four periodic neighbors of (i, j).
// Neutral neighbors hold spin 0 and so contribute nothing.
func (l *Lattice) NeighborSum(i, j int) int {
	up := i - 1
	if up < 0 {
		up = l.L - 1
	}
	down := i + 1
	if down == l.L {
		down = 0
	}
	left := j - 1
	if left < 0 {
		left = l.L - 1
	}
	right := j + 1
	if right == l.L {
		right = 0
	}
	row := i * l.L
	return int(l.spins[up*l.L+j]) + int(l.spins[down*l.L+j]) +
		int(l.spins[row+left]) + int(l.spins[row+right])
}

// Magnetization is the mean spin over non-neutral agents, the market
// sentiment proxy. Neutral agents are excluded from numerator and denominator.
func (l *Lattice) Magnetization() float64 {
	if l.active == 0 {
		return 0
	}
	sum := 0
	for _, s := range l.spins {
		sum += int(s)
	}
	// Neutral spins are 0, so the raw sum already excludes them.
	return float64(sum) / float64(l.active)
}

// ForceSell sets the given linear cell indices to -1, bypassing the update
// rule. Neutral cells in the list are an error; the crash never touches them.
func (l *Lattice) ForceSell(cells []int) error {
	for _, idx := range cells {
		if idx < 0 || idx >= len(l.spins) {
			return fmt.Errorf("%w: cell index %d out of range", ErrInvalidConfiguration, idx)
		}
		if l.neutral[idx] {
			return fmt.Errorf("%w: cell %d is neutral and cannot be forced", ErrInvalidConfiguration, idx)
		}
	}
	for _, idx := range cells {
		l.spins[idx] = -1
	}
	return nil
}

// Snapshot is a copy of the full grid for visualization collaborators.
type Snapshot struct {
	L       int    `json:"l"`
	Spins   []int8 `json:"spins"`
	Neutral []bool `json:"neutral"`
}

// Snapshot copies the current grid and mask.
func (l *Lattice) Snapshot() Snapshot {
	spins := make([]int8, len(l.spins))
	copy(spins, l.spins)
	neutral := make([]bool, len(l.neutral))
	copy(neutral, l.neutral)
	return Snapshot{L: l.L, Spins: spins, Neutral: neutral}
}
