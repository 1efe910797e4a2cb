// Package integrators provides the numerical time steppers used by the
// batch solver strategy: fixed-step RK4 and adaptive RK45
// (Dormand-Prince) with step-size control.
package integrators

import (
	"errors"
	"fmt"
)

// Func is the right-hand side of an ODE system, dy/dt = f(t, y).
type Func func(t float64, y []float64) ([]float64, error)

// ErrStepTooSmall indicates the adaptive step size fell below the
// configured minimum before the local error target was met.
var ErrStepTooSmall = errors.New("integrators: adaptive step below minimum")

// Options controls adaptive integration.
type Options struct {
	Tol      float64 // local error tolerance
	InitStep float64 // first step size; 0 picks one from the interval
	MinStep  float64
	MaxStep  float64
	MaxSteps int // safety cap on accepted+rejected steps per call
}

func DefaultOptions() Options {
	return Options{
		Tol:      1e-8,
		MinStep:  1e-12,
		MaxSteps: 1_000_000,
	}
}

// Stats reports what the integrator did during one call.
type Stats struct {
	Steps    int
	Rejected int
	Evals    int
	LastStep float64
}

// IntegrateAt integrates y' = f(t, y) from times[0] across the whole
// axis, stepping adaptively inside each interval and returning one state
// row exactly at every requested time point. The first row is y0.
func IntegrateAt(f Func, times []float64, y0 []float64, opts Options) ([][]float64, Stats, error) {
	var stats Stats
	if len(times) < 2 {
		return nil, stats, fmt.Errorf("integrators: need at least two time points, got %d", len(times))
	}
	if opts.Tol <= 0 {
		opts.Tol = 1e-8
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 1_000_000
	}

	rk := newRK45()
	rows := make([][]float64, len(times))
	rows[0] = append([]float64(nil), y0...)

	y := append([]float64(nil), y0...)
	dt := opts.InitStep

	for i := 1; i < len(times); i++ {
		ta, tb := times[i-1], times[i]
		if dt <= 0 {
			dt = (tb - ta) / 10
		}
		t := ta
		for t < tb {
			if stats.Steps+stats.Rejected > opts.MaxSteps {
				return nil, stats, fmt.Errorf("integrators: step budget exhausted at t=%g", t)
			}
			h := dt
			if t+h > tb {
				h = tb - t
			}
			if opts.MaxStep > 0 && h > opts.MaxStep {
				h = opts.MaxStep
			}

			yNew, hNext, err := rk.step(f, t, y, h, opts.Tol, &stats)
			if err != nil {
				return nil, stats, err
			}
			if yNew == nil {
				// step rejected, retry with the smaller size
				if hNext < opts.MinStep {
					return nil, stats, fmt.Errorf("%w (t=%g, h=%g)", ErrStepTooSmall, t, hNext)
				}
				dt = hNext
				stats.Rejected++
				continue
			}
			y = yNew
			t += h
			dt = hNext
			stats.Steps++
			stats.LastStep = h
		}
		rows[i] = append([]float64(nil), y...)
	}
	return rows, stats, nil
}
