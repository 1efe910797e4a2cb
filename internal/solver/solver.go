package solver

import (
	"errors"
	"fmt"

	"github.com/san-kum/fluxsim/internal/fluxmod"
)

// Domain errors for solver strategies.
var (
	// ErrTimeExhausted indicates a stepwise solve past the end of the
	// declared time axis.
	ErrTimeExhausted = errors.New("solver: time axis exhausted")

	// ErrNotConverged indicates the simultaneous strategy's iteration
	// failed to reach the residual target.
	ErrNotConverged = errors.New("solver: failed to converge")

	// ErrBadOption indicates an unrecognized solver option value.
	ErrBadOption = errors.New("solver: unrecognized option")
)

// Solver is the capability set every strategy implements. Registration
// methods create strategy-owned storage; Assemble freezes shapes; Solve
// advances the model per the strategy's time-stepping discipline.
type Solver interface {
	AddVariable(m *fluxmod.Model, label string, initial fluxmod.Value) (*fluxmod.Series, error)
	AddParameter(label string, value fluxmod.Value) []float64
	RegisterFlux(m *fluxmod.Model, label string, fn fluxmod.FluxFunc, dims fluxmod.Dims) (*fluxmod.Series, error)
	AddForcing(m *fluxmod.Model, label string, fn fluxmod.ForcingFunc) ([]float64, error)
	Assemble(m *fluxmod.Model) error
	Solve(m *fluxmod.Model, dt float64) error
	Cleanup() error
}

// sampleForcing evaluates one forcing function over the full time axis,
// one sample per point.
func sampleForcing(fn fluxmod.ForcingFunc, times []float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = fn(t)
	}
	return out
}

// forcingsAt evaluates every registered forcing function at one time.
func forcingsAt(m *fluxmod.Model, t float64) fluxmod.State {
	f := make(fluxmod.State, len(m.ForcingOrder))
	for _, label := range m.ForcingOrder {
		f[label] = []float64{m.ForcingFns[label](t)}
	}
	return f
}

// inferDims sizes a flux from its first evaluation, checking any
// declared shape against what the function actually produced.
func inferDims(label string, declared fluxmod.Dims, val []float64) (fluxmod.Dims, error) {
	if declared != nil {
		if declared.Size() != len(val) {
			return nil, fmt.Errorf("%w: flux %q declared %s but produced %d elements",
				fluxmod.ErrShapeMismatch, label, declared, len(val))
		}
		return declared, nil
	}
	if len(val) <= 1 {
		return nil, nil
	}
	return fluxmod.Dims{len(val)}, nil
}

// seriesFor resolves a label to its storage, variable or flux.
func seriesFor(m *fluxmod.Model, label string) *fluxmod.Series {
	if s, ok := m.Variables[label]; ok {
		return s
	}
	return m.FluxValues[label]
}
