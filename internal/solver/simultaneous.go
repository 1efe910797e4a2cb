package solver

import (
	"fmt"
	"strings"

	"github.com/san-kum/fluxsim/internal/fluxmod"
)

// Simultaneous solution modes.
const ModeDynamic = "dynamic"

// SimOptions tunes the simultaneous strategy.
type SimOptions struct {
	// Reduce is the Jacobian refresh interval: 1 is full Newton, larger
	// values reuse the factorization (modified Newton).
	Reduce int
	// Nodes selects the collocation rule per interval: 2 is backward
	// Euler, 3 adds the trapezoidal average of both endpoints.
	Nodes int
	// Mode is the solution mode; only ModeDynamic is implemented.
	Mode string

	Tol     float64
	MaxIter int
}

func DefaultSimOptions() SimOptions {
	return SimOptions{
		Reduce:  3,
		Nodes:   3,
		Mode:    ModeDynamic,
		Tol:     1e-9,
		MaxIter: 50,
	}
}

// Simultaneous builds one governing equality per variable element per
// time node, d(variable)/dt == sum of signed flux contributions, plus
// one algebraic equality per flux element, and solves the whole
// discretized system at once with a damped Newton iteration. There is
// no per-step interface: Solve makes exactly one solver call.
type Simultaneous struct {
	Opts SimOptions

	varInit  map[string][]float64
	fluxInit map[string][]float64

	symbols   map[string]string
	equations []string
}

// Labels that collide with reserved mathematical function names in the
// equation symbol table and must be disambiguated.
var reservedLabels = []string{
	"abs", "exp", "log10", "log",
	"sqrt", "sinh", "cosh", "tanh",
	"sin", "cos", "tan", "asin",
	"acos", "atan", "erf", "erfc",
}

func NewSimultaneous() *Simultaneous {
	return &Simultaneous{
		Opts:     DefaultSimOptions(),
		varInit:  make(map[string][]float64),
		fluxInit: make(map[string][]float64),
		symbols:  make(map[string]string),
	}
}

// checkLabel prefixes labels that shadow reserved function names. This
// is a symbol-table concern of this backend, not core behavior.
func checkLabel(label string) string {
	lower := strings.ToLower(label)
	for _, r := range reservedLabels {
		if lower == r {
			return "x" + label
		}
	}
	return label
}

// Equations returns the rendered governing equations, available after
// Assemble. Intended for diagnostics.
func (s *Simultaneous) Equations() []string {
	return s.equations
}

func (s *Simultaneous) AddVariable(m *fluxmod.Model, label string, initial fluxmod.Value) (*fluxmod.Series, error) {
	if m.Time == nil {
		return nil, fmt.Errorf("%w: set the time axis before adding variables", fluxmod.ErrTimeUnset)
	}
	s.symbols[label] = checkLabel(label)
	s.varInit[label] = append([]float64(nil), initial.Data...)
	series := fluxmod.NewSeries(label, initial.Dims(), len(m.Time))
	series.Set(0, initial.Data)
	return series, nil
}

func (s *Simultaneous) AddParameter(label string, value fluxmod.Value) []float64 {
	s.symbols[label] = checkLabel(label)
	return value.Data
}

func (s *Simultaneous) RegisterFlux(m *fluxmod.Model, label string, fn fluxmod.FluxFunc, dims fluxmod.Dims) (*fluxmod.Series, error) {
	if m.Time == nil {
		return nil, fmt.Errorf("%w: set the time axis before registering fluxes", fluxmod.ErrTimeUnset)
	}
	s.symbols[label] = checkLabel(label)

	state := make(fluxmod.State)
	for _, v := range m.VarOrder {
		state[v] = s.varInit[v]
	}
	for _, f := range m.FluxOrder {
		state[f] = s.fluxInit[f]
	}
	val := fn(state, m.Parameters, forcingsAt(m, m.Time[0]))

	d, err := inferDims(label, dims, val)
	if err != nil {
		return nil, err
	}
	s.fluxInit[label] = append([]float64(nil), val...)
	series := fluxmod.NewSeries(label, d, len(m.Time))
	series.Set(0, val)
	return series, nil
}

func (s *Simultaneous) AddForcing(m *fluxmod.Model, label string, fn fluxmod.ForcingFunc) ([]float64, error) {
	if m.Time == nil {
		return nil, fmt.Errorf("%w: set the time axis before adding forcings", fluxmod.ErrTimeUnset)
	}
	s.symbols[label] = checkLabel(label)
	return sampleForcing(fn, m.Time), nil
}

// Assemble freezes shapes and renders one governing equation per
// variable from the recorded bindings.
func (s *Simultaneous) Assemble(m *fluxmod.Model) error {
	m.FreezeDims()

	s.equations = s.equations[:0]
	for _, label := range m.VarOrder {
		var terms []string
		for _, b := range m.Bindings(label) {
			sign := "+"
			if b.Negative {
				sign = "-"
			}
			terms = append(terms, sign+s.sym(b.Flux))
		}
		for _, b := range m.ListBindings() {
			for i, v := range b.ListVars {
				if v != label {
					continue
				}
				sign := "+"
				if b.Negative {
					sign = "-"
				}
				terms = append(terms, fmt.Sprintf("%s%s[%d]", sign, s.sym(b.Flux), i))
			}
		}
		if terms == nil {
			terms = []string{"0"}
		}
		s.equations = append(s.equations,
			fmt.Sprintf("d(%s)/dt = %s", s.sym(label), strings.Join(terms, " ")))
	}
	return nil
}

func (s *Simultaneous) sym(label string) string {
	if sym, ok := s.symbols[label]; ok {
		return sym
	}
	return label
}

// Solve discretizes every equation over the whole time axis and hands
// the resulting algebraic system to the Newton solver in one call.
// Variables enter as differential unknowns, fluxes as algebraic ones.
func (s *Simultaneous) Solve(m *fluxmod.Model, dt float64) error {
	switch s.Opts.Mode {
	case ModeDynamic, "":
	default:
		return fmt.Errorf("%w: simultaneous mode %q", ErrBadOption, s.Opts.Mode)
	}
	if s.Opts.Nodes < 2 || s.Opts.Nodes > 3 {
		return fmt.Errorf("%w: simultaneous nodes %d (want 2 or 3)", ErrBadOption, s.Opts.Nodes)
	}

	tAxis := m.Time
	steps := len(tAxis)
	n := m.FullSize()

	y0 := make([]float64, 0, n)
	for _, label := range m.VarOrder {
		y0 = append(y0, s.varInit[label]...)
	}
	nVar := len(y0)
	for _, label := range m.FluxOrder {
		y0 = append(y0, s.fluxInit[label]...)
	}

	rhs0, err := m.EvalAt(tAxis[0], y0)
	if err != nil {
		return err
	}

	trapezoid := s.Opts.Nodes >= 3
	resid := func(u []float64) ([]float64, error) {
		res := make([]float64, len(u))
		prevY, prevRHS := y0, rhs0
		for k := 1; k < steps; k++ {
			base := (k - 1) * n
			yk := u[base : base+n]
			rhsK, err := m.EvalAt(tAxis[k], yk)
			if err != nil {
				return nil, err
			}
			h := tAxis[k] - tAxis[k-1]
			for j := 0; j < nVar; j++ {
				if trapezoid {
					res[base+j] = yk[j] - prevY[j] - h*0.5*(rhsK[j]+prevRHS[j])
				} else {
					res[base+j] = yk[j] - prevY[j] - h*rhsK[j]
				}
			}
			for j := nVar; j < n; j++ {
				res[base+j] = yk[j] - rhsK[j]
			}
			prevY, prevRHS = yk, rhsK
		}
		return res, nil
	}

	// constant extrapolation of the initial state as starting guess
	u := make([]float64, n*(steps-1))
	for k := 0; k < steps-1; k++ {
		copy(u[k*n:(k+1)*n], y0)
	}

	err = newtonSolve(resid, u, newtonOpts{
		Tol:          s.Opts.Tol,
		MaxIter:      s.Opts.MaxIter,
		RefreshEvery: s.Opts.Reduce,
	})
	if err != nil {
		return err
	}

	for k := 1; k < steps; k++ {
		state := m.Unflatten(u[(k-1)*n : k*n])
		for _, label := range m.VarOrder {
			m.Variables[label].Set(k, state[label])
		}
		for _, label := range m.FluxOrder {
			m.FluxValues[label].Set(k, state[label])
		}
	}
	return nil
}

func (s *Simultaneous) Cleanup() error {
	s.varInit = make(map[string][]float64)
	s.fluxInit = make(map[string][]float64)
	return nil
}
