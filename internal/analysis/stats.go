package analysis

import (
	"math"
	"sort"

	"spin-market/internal/sim"
)

// SeriesStats is a run-level summary of a magnetization/price series. It is
// what the intermittency claims of the model cash out to: fat-tailed returns
// (excess kurtosis), clustered volatility (slowly decaying autocorrelation of
// absolute returns) and repeated changes of market sentiment.
type SeriesStats struct {
	Sweeps int

	MeanMagnetization float64
	MinMagnetization  float64
	MaxMagnetization  float64
	P05Magnetization  float64
	P95Magnetization  float64

	// SignChanges counts sweeps where the magnetization crossed zero.
	SignChanges int

	// Return statistics; returns are per-sweep log-price differences, which
	// equal the magnetization by construction of the price proxy.
	ReturnVolatility float64
	ExcessKurtosis   float64

	// AbsReturnAutocorr holds the autocorrelation of |returns| at lags 1..len.
	AbsReturnAutocorr []float64
}

// Compute summarizes a sweep series. autocorrLags bounds the absolute-return
// autocorrelation depth; 0 disables it.
func Compute(series []sim.SweepRow, autocorrLags int) SeriesStats {
	s := SeriesStats{Sweeps: len(series)}
	if len(series) == 0 {
		return s
	}

	mags := make([]float64, len(series))
	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	for i, row := range series {
		v := row.Magnetization
		mags[i] = v
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	s.MeanMagnetization = sum / float64(len(mags))
	s.MinMagnetization = minv
	s.MaxMagnetization = maxv
	s.SignChanges = SignChanges(mags)

	sorted := append([]float64(nil), mags...)
	sort.Float64s(sorted)
	s.P05Magnetization = percentileSorted(sorted, 0.05)
	s.P95Magnetization = percentileSorted(sorted, 0.95)

	returns := Returns(series)
	s.ReturnVolatility = stddev(returns)
	s.ExcessKurtosis = excessKurtosis(returns)

	if autocorrLags > 0 {
		abs := make([]float64, len(returns))
		for i, r := range returns {
			abs[i] = math.Abs(r)
		}
		s.AbsReturnAutocorr = make([]float64, 0, autocorrLags)
		for lag := 1; lag <= autocorrLags; lag++ {
			s.AbsReturnAutocorr = append(s.AbsReturnAutocorr, autocorr(abs, lag))
		}
	}
	return s
}

// Returns extracts the per-sweep log-price differences.
func Returns(series []sim.SweepRow) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		out = append(out, series[i].LogPrice-series[i-1].LogPrice)
	}
	return out
}

// SignChanges counts zero crossings, skipping exact zeros so a flat stretch
// at zero is not counted as oscillation.
func SignChanges(values []float64) int {
	count := 0
	prev := 0.0
	for _, v := range values {
		if v == 0 {
			continue
		}
		if prev != 0 && (v > 0) != (prev > 0) {
			count++
		}
		prev = v
	}
	return count
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// excessKurtosis returns the sample kurtosis minus 3 (0 for a Gaussian).
func excessKurtosis(xs []float64) float64 {
	if len(xs) < 4 {
		return 0
	}
	m := mean(xs)
	m2 := 0.0
	m4 := 0.0
	for _, x := range xs {
		d := x - m
		d2 := d * d
		m2 += d2
		m4 += d2 * d2
	}
	n := float64(len(xs))
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	return m4/(m2*m2) - 3
}

// autocorr is the lag-k sample autocorrelation.
func autocorr(xs []float64, lag int) float64 {
	if lag <= 0 || lag >= len(xs) {
		return 0
	}
	m := mean(xs)
	var num, den float64
	for i := 0; i < len(xs); i++ {
		d := xs[i] - m
		den += d * d
		if i+lag < len(xs) {
			num += d * (xs[i+lag] - m)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}
