package solver

import (
	"fmt"

	"github.com/san-kum/fluxsim/internal/fluxmod"
)

// Stepwise is the explicit, externally clocked strategy: storage is
// pre-sized to the declared time axis, initial values frozen at index 0,
// and every Solve call advances exactly one index with an explicit Euler
// update. First-order accurate; that trade-off is the point, not a bug.
type Stepwise struct {
	modelTime float64
	timeIndex int
}

func NewStepwise() *Stepwise {
	return &Stepwise{}
}

// StepIndex returns the index of the last solved step.
func (s *Stepwise) StepIndex() int { return s.timeIndex }

func (s *Stepwise) AddVariable(m *fluxmod.Model, label string, initial fluxmod.Value) (*fluxmod.Series, error) {
	if m.Time == nil {
		return nil, fmt.Errorf("%w: set the time axis before adding variables", fluxmod.ErrTimeUnset)
	}
	series := fluxmod.NewSeries(label, initial.Dims(), len(m.Time))
	series.Set(0, initial.Data)
	return series, nil
}

func (s *Stepwise) AddParameter(label string, value fluxmod.Value) []float64 {
	return value.Data
}

func (s *Stepwise) RegisterFlux(m *fluxmod.Model, label string, fn fluxmod.FluxFunc, dims fluxmod.Dims) (*fluxmod.Series, error) {
	if m.Time == nil {
		return nil, fmt.Errorf("%w: set the time axis before registering fluxes", fluxmod.ErrTimeUnset)
	}

	// evaluate once against initial values so the storage row 0 holds
	// the flux at t0 and its shape is known
	state := make(fluxmod.State)
	for _, v := range m.VarOrder {
		state[v] = m.Variables[v].At(0)
	}
	for _, f := range m.FluxOrder {
		state[f] = m.FluxValues[f].At(0)
	}
	val := fn(state, m.Parameters, forcingsAt(m, m.Time[0]))

	d, err := inferDims(label, dims, val)
	if err != nil {
		return nil, err
	}
	series := fluxmod.NewSeries(label, d, len(m.Time))
	series.Set(0, val)
	return series, nil
}

func (s *Stepwise) AddForcing(m *fluxmod.Model, label string, fn fluxmod.ForcingFunc) ([]float64, error) {
	if m.Time == nil {
		return nil, fmt.Errorf("%w: set the time axis before adding forcings", fluxmod.ErrTimeUnset)
	}
	return sampleForcing(fn, m.Time), nil
}

func (s *Stepwise) Assemble(m *fluxmod.Model) error {
	m.FreezeDims()
	return nil
}

// Solve advances one step: sample forcings at the new index, evaluate
// the flux router against the previous step's state, then apply
// variable[t] = variable[t-1] + derivative*dt. Raw flux outputs are
// stored directly at the new index, not integrated.
func (s *Stepwise) Solve(m *fluxmod.Model, dt float64) error {
	if s.timeIndex+1 >= len(m.Time) {
		return fmt.Errorf("%w: %d steps already taken", ErrTimeExhausted, s.timeIndex)
	}
	s.modelTime += dt
	s.timeIndex++

	forcing := make(fluxmod.State, len(m.ForcingOrder))
	for _, label := range m.ForcingOrder {
		forcing[label] = []float64{m.Forcings[label][s.timeIndex]}
	}

	prev := make(fluxmod.State, len(m.DimsOrder))
	for _, label := range m.DimsOrder {
		prev[label] = seriesFor(m, label).At(s.timeIndex - 1)
	}
	flat, err := m.Flatten(prev)
	if err != nil {
		return err
	}

	out, err := m.EvalWith(forcing, flat)
	if err != nil {
		return err
	}
	d := m.Unflatten(out)

	for _, label := range m.VarOrder {
		series := m.Variables[label]
		prevRow := series.At(s.timeIndex - 1)
		row := make([]float64, len(prevRow))
		for i := range row {
			row[i] = prevRow[i] + d[label][i]*dt
		}
		series.Set(s.timeIndex, row)
	}
	for _, label := range m.FluxOrder {
		m.FluxValues[label].Set(s.timeIndex, d[label])
	}
	return nil
}

func (s *Stepwise) Cleanup() error {
	return nil
}
