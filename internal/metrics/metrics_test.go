package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/fluxsim/internal/fluxmod"
)

func scalarSeries(t *testing.T, label string, vals ...float64) *fluxmod.Series {
	t.Helper()
	s := fluxmod.NewSeries(label, nil, len(vals))
	for i, v := range vals {
		s.Set(i, []float64{v})
	}
	return s
}

func TestExtremaAndMean(t *testing.T) {
	series := scalarSeries(t, "x", 2, -1, 5, 0)
	times := []float64{0, 1, 2, 3}

	min, max, mean := NewMin(), NewMax(), NewMean()
	Walk(series, times, min, max, mean)

	if min.Value() != -1 {
		t.Errorf("min = %v, want -1", min.Value())
	}
	if max.Value() != 5 {
		t.Errorf("max = %v, want 5", max.Value())
	}
	if mean.Value() != 1.5 {
		t.Errorf("mean = %v, want 1.5", mean.Value())
	}

	min.Reset()
	min.Observe(0, []float64{7})
	if min.Value() != 7 {
		t.Errorf("min after reset = %v, want 7", min.Value())
	}
}

func TestMinHandlesAllPositive(t *testing.T) {
	// the first sample seeds the extremum; a zero start must not win
	min := NewMin()
	min.Observe(0, []float64{3, 4})
	if min.Value() != 3 {
		t.Errorf("min = %v, want 3", min.Value())
	}
}

func TestDrift(t *testing.T) {
	d := NewDrift()
	d.Observe(0, []float64{4, 6})
	d.Observe(1, []float64{5, 5})
	d.Observe(2, []float64{5, 5.2})

	if math.Abs(d.Value()-0.2) > 1e-12 {
		t.Errorf("drift = %v, want 0.2", d.Value())
	}
}

func TestBudgetDrift(t *testing.T) {
	times := []float64{0, 1, 2}
	a := scalarSeries(t, "a", 3, 2, 1)
	b := scalarSeries(t, "b", 1, 2, 3)

	if got := BudgetDrift(times, a, b); got != 0 {
		t.Errorf("conserved budget drift = %v, want 0", got)
	}

	c := scalarSeries(t, "c", 0, 0, 0.5)
	if got := BudgetDrift(times, a, b, c); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("leaky budget drift = %v, want 0.5", got)
	}
}
