package integrators

import (
	"errors"
	"math"
	"testing"
)

func oscillator(t float64, y []float64) ([]float64, error) {
	return []float64{y[1], -y[0]}, nil
}

func oscillatorEnergy(y []float64) float64 {
	return 0.5 * (y[0]*y[0] + y[1]*y[1])
}

func uniform(from, to float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func TestIntegrateAt_Oscillator(t *testing.T) {
	times := uniform(0, 2*math.Pi, 33)
	rows, stats, err := IntegrateAt(oscillator, times, []float64{1, 0}, DefaultOptions())
	if err != nil {
		t.Fatalf("IntegrateAt: %v", err)
	}
	if len(rows) != len(times) {
		t.Fatalf("got %d rows, want %d", len(rows), len(times))
	}
	if stats.Steps == 0 {
		t.Error("no steps recorded")
	}

	for i, tv := range times {
		if math.Abs(rows[i][0]-math.Cos(tv)) > 1e-6 {
			t.Errorf("x(t=%.3f) = %v, want %v", tv, rows[i][0], math.Cos(tv))
		}
		if math.Abs(rows[i][1]+math.Sin(tv)) > 1e-6 {
			t.Errorf("v(t=%.3f) = %v, want %v", tv, rows[i][1], -math.Sin(tv))
		}
	}
}

func TestIntegrateAt_EnergyConservation(t *testing.T) {
	times := uniform(0, 100, 101)
	rows, _, err := IntegrateAt(oscillator, times, []float64{1, 0}, DefaultOptions())
	if err != nil {
		t.Fatalf("IntegrateAt: %v", err)
	}

	initial := oscillatorEnergy(rows[0])
	final := oscillatorEnergy(rows[len(rows)-1])
	drift := math.Abs(final-initial) / initial
	if drift > 1e-5 {
		t.Errorf("energy drift too high: %e", drift)
	}
}

func TestIntegrateAt_FirstRowIsInitial(t *testing.T) {
	y0 := []float64{3, -2}
	rows, _, err := IntegrateAt(oscillator, []float64{0, 0.5, 1}, y0, DefaultOptions())
	if err != nil {
		t.Fatalf("IntegrateAt: %v", err)
	}
	if rows[0][0] != 3 || rows[0][1] != -2 {
		t.Errorf("rows[0] = %v, want [3 -2]", rows[0])
	}
	// the first row is a copy, not an alias
	rows[0][0] = 99
	if y0[0] != 3 {
		t.Error("rows[0] aliases the caller's initial vector")
	}
}

func TestIntegrateAt_TooFewPoints(t *testing.T) {
	if _, _, err := IntegrateAt(oscillator, []float64{0}, []float64{1}, DefaultOptions()); err == nil {
		t.Error("expected an error for a single time point")
	}
}

func TestIntegrateAt_RHSErrorPropagates(t *testing.T) {
	boom := errors.New("rhs failed")
	f := func(t float64, y []float64) ([]float64, error) {
		if t > 0.5 {
			return nil, boom
		}
		return []float64{1}, nil
	}
	_, _, err := IntegrateAt(f, []float64{0, 1}, []float64{0}, DefaultOptions())
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want the right-hand side's error", err)
	}
}

func TestRK4At_Oscillator(t *testing.T) {
	times := uniform(0, 2*math.Pi, 33)
	rows, err := RK4At(oscillator, times, []float64{1, 0}, 16)
	if err != nil {
		t.Fatalf("RK4At: %v", err)
	}
	final := rows[len(rows)-1]
	if math.Abs(final[0]-1) > 1e-6 || math.Abs(final[1]) > 1e-6 {
		t.Errorf("after one period: %v, want [1 0]", final)
	}
}

func TestRK4Step_Order(t *testing.T) {
	// one decay step: the local error of RK4 scales as dt^5
	decay := func(t float64, y []float64) ([]float64, error) {
		return []float64{-y[0]}, nil
	}
	for _, dt := range []float64{0.1, 0.05} {
		y, err := RK4Step(decay, 0, []float64{1}, dt)
		if err != nil {
			t.Fatalf("RK4Step: %v", err)
		}
		want := math.Exp(-dt)
		if math.Abs(y[0]-want) > math.Pow(dt, 5) {
			t.Errorf("dt=%v: got %v, want %v", dt, y[0], want)
		}
	}
}
