package analysis

import (
	"math"
	"testing"

	"spin-market/internal/sim"
)

func seriesFromMags(mags []float64) []sim.SweepRow {
	rows := make([]sim.SweepRow, len(mags))
	cum := 0.0
	for i, m := range mags {
		cum += m
		rows[i] = sim.SweepRow{Sweep: i, Magnetization: m, LogPrice: cum}
	}
	return rows
}

func TestSignChanges(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   int
	}{
		{"empty", nil, 0},
		{"constant sign", []float64{0.2, 0.4, 0.1}, 0},
		{"single crossing", []float64{0.2, -0.1}, 1},
		{"zeros are skipped", []float64{0.2, 0, 0, -0.1, -0.2, 0.3}, 2},
		{"alternating", []float64{1, -1, 1, -1}, 3},
	}
	for _, tc := range cases {
		if got := SignChanges(tc.values); got != tc.want {
			t.Fatalf("%s: SignChanges = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestReturnsAreMagnetizations(t *testing.T) {
	rows := seriesFromMags([]float64{0.5, -0.25, 0.75})
	rets := Returns(rows)
	want := []float64{-0.25, 0.75}
	if len(rets) != len(want) {
		t.Fatalf("Returns length = %d, want %d", len(rets), len(want))
	}
	for i := range want {
		if math.Abs(rets[i]-want[i]) > 1e-12 {
			t.Fatalf("return %d = %v, want %v", i, rets[i], want[i])
		}
	}
}

func TestComputeSummary(t *testing.T) {
	rows := seriesFromMags([]float64{0.5, -0.5, 0.5, -0.5, 0.5})
	s := Compute(rows, 2)
	if s.Sweeps != 5 {
		t.Fatalf("Sweeps = %d, want 5", s.Sweeps)
	}
	if math.Abs(s.MeanMagnetization-0.1) > 1e-12 {
		t.Fatalf("MeanMagnetization = %v, want 0.1", s.MeanMagnetization)
	}
	if s.MinMagnetization != -0.5 || s.MaxMagnetization != 0.5 {
		t.Fatalf("min/max = %v/%v, want -0.5/0.5", s.MinMagnetization, s.MaxMagnetization)
	}
	if s.SignChanges != 4 {
		t.Fatalf("SignChanges = %d, want 4", s.SignChanges)
	}
	if len(s.AbsReturnAutocorr) != 2 {
		t.Fatalf("autocorr depth = %d, want 2", len(s.AbsReturnAutocorr))
	}
	// All |returns| equal 1, so the absolute-return series is constant and the
	// autocorrelation degenerates to 0 by the zero-variance convention.
	if s.AbsReturnAutocorr[0] != 0 {
		t.Fatalf("constant |returns| autocorr = %v, want 0", s.AbsReturnAutocorr[0])
	}
}

func TestComputeEmptySeries(t *testing.T) {
	s := Compute(nil, 5)
	if s.Sweeps != 0 || s.SignChanges != 0 || s.ReturnVolatility != 0 {
		t.Fatalf("empty series produced non-zero stats: %+v", s)
	}
}

func TestExcessKurtosisGaussianLikeVsSpiky(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		if i%2 == 0 {
			flat[i] = 1
		} else {
			flat[i] = -1
		}
	}
	// Two-point symmetric distribution has kurtosis 1, excess -2.
	if k := excessKurtosis(flat); math.Abs(k-(-2)) > 1e-9 {
		t.Fatalf("two-point kurtosis = %v, want -2", k)
	}

	spiky := make([]float64, 64)
	spiky[0] = 10 // one outlier over a near-zero baseline
	for i := 1; i < len(spiky); i++ {
		if i%2 == 0 {
			spiky[i] = 0.01
		} else {
			spiky[i] = -0.01
		}
	}
	if k := excessKurtosis(spiky); k <= 0 {
		t.Fatalf("outlier series excess kurtosis = %v, want > 0", k)
	}
}

func TestPercentileSorted(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	if p := percentileSorted(sorted, 0); p != 1 {
		t.Fatalf("p0 = %v, want 1", p)
	}
	if p := percentileSorted(sorted, 1); p != 5 {
		t.Fatalf("p100 = %v, want 5", p)
	}
	if p := percentileSorted(sorted, 0.5); p != 3 {
		t.Fatalf("p50 = %v, want 3", p)
	}
	if p := percentileSorted(sorted, 0.25); p != 2 {
		t.Fatalf("p25 = %v, want 2", p)
	}
}
