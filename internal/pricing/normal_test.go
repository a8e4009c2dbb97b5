package pricing

import (
	"math"
	"testing"
)

func TestNormCdf_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"zero", 0, 0.5},
		{"one_sigma", 1, 0.8413447460685429},
		{"minus_one_sigma", -1, 0.15865525393145707},
		{"two_sigma", 2, 0.9772498680518208},
		{"ninety_five_pct", 1.959963984540054, 0.975},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormCdf(tt.x)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("NormCdf(%v) = %.15f, want %.15f", tt.x, got, tt.want)
			}
		})
	}
}

func TestNormCdf_Symmetry(t *testing.T) {
	for _, x := range []float64{0.1, 0.5, 1, 2, 3.5, 7} {
		sum := NormCdf(x) + NormCdf(-x)
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("NormCdf(%v)+NormCdf(-%v) = %.15f, want 1", x, x, sum)
		}
	}
}

func TestNormCdf_Monotone(t *testing.T) {
	prev := NormCdf(-8)
	for x := -7.5; x <= 8; x += 0.5 {
		cur := NormCdf(x)
		if cur <= prev {
			t.Fatalf("NormCdf not increasing at x=%v: %v <= %v", x, cur, prev)
		}
		prev = cur
	}
}

func TestNormInvCdf_Roundtrip(t *testing.T) {
	// Φ(Φ⁻¹(p)) must recover p tightly across the whole open interval,
	// including both tail regimes of the rational approximation.
	ps := []float64{
		1e-9, 1e-6, 0.001, 0.02425, 0.05, 0.1, 0.25, 0.5,
		0.75, 0.9, 0.95, 0.97575, 0.999, 1 - 1e-6, 1 - 1e-9,
	}

	for _, p := range ps {
		x := NormInvCdf(p)
		back := NormCdf(x)
		if math.Abs(back-p) > 1e-6 {
			t.Errorf("roundtrip p=%v: NormCdf(NormInvCdf(p)) = %v, diff %v", p, back, math.Abs(back-p))
		}
	}
}

func TestNormInvCdf_KnownValues(t *testing.T) {
	tests := []struct {
		p    float64
		want float64
		tol  float64
	}{
		{0.5, 0, 1e-9},
		{0.975, 1.959963984540054, 1e-8},
		{0.025, -1.959963984540054, 1e-8},
		{0.8413447460685429, 1, 1e-8},
	}

	for _, tt := range tests {
		got := NormInvCdf(tt.p)
		if math.Abs(got-tt.want) > tt.tol {
			t.Errorf("NormInvCdf(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestNormInvCdf_Edges(t *testing.T) {
	if !math.IsInf(NormInvCdf(0), -1) {
		t.Error("NormInvCdf(0) should be -Inf")
	}
	if !math.IsInf(NormInvCdf(1), 1) {
		t.Error("NormInvCdf(1) should be +Inf")
	}
	if !math.IsInf(NormInvCdf(-0.5), -1) {
		t.Error("NormInvCdf(-0.5) should be -Inf")
	}
	if !math.IsInf(NormInvCdf(1.5), 1) {
		t.Error("NormInvCdf(1.5) should be +Inf")
	}
}

func TestNormInvCdf_Antisymmetry(t *testing.T) {
	for _, p := range []float64{0.01, 0.1, 0.3, 0.45} {
		lo := NormInvCdf(p)
		hi := NormInvCdf(1 - p)
		if math.Abs(lo+hi) > 1e-8 {
			t.Errorf("NormInvCdf(%v) + NormInvCdf(%v) = %v, want 0", p, 1-p, lo+hi)
		}
	}
}
