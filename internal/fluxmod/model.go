package fluxmod

import (
	"fmt"
	"strings"
)

// Model holds every registered quantity of an assembled system, keyed by
// label in insertion order. It is pure bookkeeping: storage layout and
// time stepping belong to the solver strategies.
type Model struct {
	Time []float64

	VarOrder  []string
	Variables map[string]*Series
	VarInit   map[string]Value
	VarDims   map[string]Dims

	ParamOrder []string
	Parameters State

	ForcingOrder []string
	ForcingFns   map[string]ForcingFunc
	Forcings     map[string][]float64

	FluxOrder  []string
	Fluxes     map[string]FluxFunc
	FluxValues map[string]*Series
	FluxDims   map[string]Dims

	bindings     map[string][]Binding
	listBindings []Binding

	// DimsOrder and FullDims define the flat state vector layout:
	// variables first, then fluxes, each in registration order. Frozen
	// at assemble time.
	DimsOrder []string
	FullDims  map[string]Dims
}

func NewModel() *Model {
	return &Model{
		Variables:  make(map[string]*Series),
		VarInit:    make(map[string]Value),
		VarDims:    make(map[string]Dims),
		Parameters: make(State),
		ForcingFns: make(map[string]ForcingFunc),
		Forcings:   make(map[string][]float64),
		Fluxes:     make(map[string]FluxFunc),
		FluxValues: make(map[string]*Series),
		FluxDims:   make(map[string]Dims),
		bindings:   make(map[string][]Binding),
		FullDims:   make(map[string]Dims),
	}
}

// AddVariable records a variable and its solver-created storage.
func (m *Model) AddVariable(label string, init Value, store *Series) error {
	if _, ok := m.Variables[label]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	m.VarOrder = append(m.VarOrder, label)
	m.Variables[label] = store
	m.VarInit[label] = init
	m.VarDims[label] = init.Dims()
	return nil
}

// AddParameter records a parameter, normalized to at-least-1D form.
func (m *Model) AddParameter(label string, value Value) {
	if _, ok := m.Parameters[label]; !ok {
		m.ParamOrder = append(m.ParamOrder, label)
	}
	m.Parameters[label] = value.Data
}

// HasVariable reports whether a variable label is already taken.
func (m *Model) HasVariable(label string) bool {
	_, ok := m.Variables[label]
	return ok
}

// HasFlux reports whether a flux label is already taken.
func (m *Model) HasFlux(label string) bool {
	_, ok := m.Fluxes[label]
	return ok
}

// RegisterFlux records a flux function, its declared shape and its
// solver-created storage.
func (m *Model) RegisterFlux(label string, fn FluxFunc, dims Dims, store *Series) error {
	if m.HasFlux(label) {
		return fmt.Errorf("%w: %q", ErrDuplicateFlux, label)
	}
	m.FluxOrder = append(m.FluxOrder, label)
	m.Fluxes[label] = fn
	m.FluxDims[label] = dims
	m.FluxValues[label] = store
	return nil
}

// BindFlux wires a flux into a variable's derivative. No validation
// happens here: shapes may not be final yet, so consistency is checked
// at first evaluation.
func (m *Model) BindFlux(varLabel, fluxLabel string, negative bool) {
	m.bindings[varLabel] = append(m.bindings[varLabel], Binding{Flux: fluxLabel, Negative: negative})
}

// BindFluxList wires a flux's vector output across several variables,
// each receiving a slice. Validated lazily, like BindFlux.
func (m *Model) BindFluxList(varLabels []string, fluxLabel string, negative bool) {
	m.listBindings = append(m.listBindings, Binding{
		Flux:     fluxLabel,
		Negative: negative,
		ListVars: append([]string(nil), varLabels...),
	})
}

// Bindings returns the direct bindings recorded for a variable.
func (m *Model) Bindings(varLabel string) []Binding {
	return m.bindings[varLabel]
}

// ListBindings returns all list-input bindings in registration order.
func (m *Model) ListBindings() []Binding {
	return m.listBindings
}

// AddForcing records a forcing function and its solver-materialized
// values (a full time series for batch strategies, a sample table for
// the stepwise one).
func (m *Model) AddForcing(label string, fn ForcingFunc, values []float64) {
	if _, ok := m.ForcingFns[label]; !ok {
		m.ForcingOrder = append(m.ForcingOrder, label)
	}
	m.ForcingFns[label] = fn
	m.Forcings[label] = values
}

// FreezeDims computes FullDims, the label-to-shape mapping that defines
// the flat vector layout. Rebuilt from scratch on every call, so
// freezing twice yields the same layout.
func (m *Model) FreezeDims() {
	m.DimsOrder = m.DimsOrder[:0]
	m.FullDims = make(map[string]Dims, len(m.VarOrder)+len(m.FluxOrder))
	for _, label := range m.VarOrder {
		m.DimsOrder = append(m.DimsOrder, label)
		m.FullDims[label] = m.VarDims[label]
	}
	for _, label := range m.FluxOrder {
		if _, ok := m.FullDims[label]; ok {
			continue
		}
		m.DimsOrder = append(m.DimsOrder, label)
		m.FullDims[label] = m.FluxDims[label]
	}
}

// FullSize returns the length of the flat state vector.
func (m *Model) FullSize() int {
	n := 0
	for _, label := range m.DimsOrder {
		n += m.FullDims[label].Size()
	}
	return n
}

// Flatten concatenates state values into one flat vector, walking
// FullDims in registration order. Exact inverse of Unflatten.
func (m *Model) Flatten(s State) ([]float64, error) {
	out := make([]float64, 0, m.FullSize())
	for _, label := range m.DimsOrder {
		v, ok := s[label]
		if !ok {
			return nil, fmt.Errorf("%w: %q missing from state", ErrUnknownLabel, label)
		}
		if len(v) != m.FullDims[label].Size() {
			return nil, fmt.Errorf("%w: %q has %d elements, want %d",
				ErrShapeMismatch, label, len(v), m.FullDims[label].Size())
		}
		out = append(out, v...)
	}
	return out, nil
}

// Unflatten slices a flat vector back into a labeled state map. The
// vector must hold exactly FullSize elements; returned slices alias it.
func (m *Model) Unflatten(flat []float64) State {
	s := make(State, len(m.DimsOrder))
	idx := 0
	for _, label := range m.DimsOrder {
		n := m.FullDims[label].Size()
		s[label] = flat[idx : idx+n]
		idx += n
	}
	return s
}

func (m *Model) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model contains:\n")
	fmt.Fprintf(&b, "Variables: %v\n", m.VarOrder)
	fmt.Fprintf(&b, "Parameters: %v\n", m.ParamOrder)
	fmt.Fprintf(&b, "Forcings: %v\n", m.ForcingOrder)
	fmt.Fprintf(&b, "Fluxes: %v\n", m.FluxOrder)
	fmt.Fprintf(&b, "Full model dimensions:")
	for _, label := range m.DimsOrder {
		fmt.Fprintf(&b, " %s=%s", label, m.FullDims[label])
	}
	return b.String()
}
