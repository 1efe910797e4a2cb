package fluxmod

import "fmt"

// EvalAt computes the flat derivative at time t, sampling every forcing
// function at t. This is the right-hand side handed to batch solvers.
func (m *Model) EvalAt(t float64, flat []float64) ([]float64, error) {
	forcing := make(State, len(m.ForcingOrder))
	for _, label := range m.ForcingOrder {
		forcing[label] = []float64{m.ForcingFns[label](t)}
	}
	return m.eval(flat, forcing)
}

// EvalWith computes the flat derivative against a caller-supplied
// forcing map, as the stepwise solver does with its precomputed tables.
func (m *Model) EvalWith(forcing State, flat []float64) ([]float64, error) {
	if forcing == nil {
		forcing = make(State)
	}
	return m.eval(flat, forcing)
}

// eval is the flux router: one call evaluates every registered flux once
// and redistributes the outputs to the variables they are bound to. The
// returned vector holds variable derivatives followed by raw flux
// outputs, symmetric with Flatten.
func (m *Model) eval(flat []float64, forcing State) ([]float64, error) {
	state := m.Unflatten(flat)

	// Evaluate fluxes in registration order. A flux's output replaces
	// its own entry in the working state map before later fluxes run,
	// so one flux's output can feed another flux's input within the
	// same step. That ordering is a contract.
	fluxVals := make(State, len(m.FluxOrder))
	for _, label := range m.FluxOrder {
		val := m.Fluxes[label](state, m.Parameters, forcing)
		want := m.FullDims[label].Size()
		if len(val) != want {
			return nil, fmt.Errorf("%w: flux %q produced %d elements, declared %s",
				ErrShapeMismatch, label, len(val), m.FullDims[label])
		}
		fluxVals[label] = val
		if _, ok := state[label]; ok {
			state[label] = val
		}
	}

	// Scatter list-input fluxes: one vectorized output split across the
	// bound variables, either one element per variable or contiguous
	// slices sized by each variable's shape.
	listContrib := make(map[string][][]float64)
	for _, b := range m.listBindings {
		val, ok := fluxVals[b.Flux]
		if !ok {
			return nil, fmt.Errorf("%w: list-input binding references flux %q", ErrUnknownLabel, b.Flux)
		}
		sizes := make([]int, len(b.ListVars))
		total := 0
		for i, v := range b.ListVars {
			sizes[i] = m.FullDims[v].Size()
			total += sizes[i]
		}
		sign := 1.0
		if b.Negative {
			sign = -1.0
		}
		switch {
		case len(b.ListVars) == len(val):
			for i, v := range b.ListVars {
				listContrib[v] = append(listContrib[v], []float64{sign * val[i]})
			}
		case total == len(val):
			idx := 0
			for i, v := range b.ListVars {
				part := make([]float64, sizes[i])
				for j := range part {
					part[j] = sign * val[idx+j]
				}
				idx += sizes[i]
				listContrib[v] = append(listContrib[v], part)
			}
		default:
			return nil, fmt.Errorf("%w: flux %q output length %d matches neither %d list variables nor their summed size %d",
				ErrShapeMismatch, b.Flux, len(val), len(b.ListVars), total)
		}
	}

	// Accumulate signed contributions per variable. A variable with no
	// bindings at all gets an exact zero derivative of matching shape.
	out := make([]float64, 0, m.FullSize())
	for _, label := range m.VarOrder {
		dims := m.VarDims[label]
		deriv := make([]float64, dims.Size())
		for _, b := range m.bindings[label] {
			val, ok := fluxVals[b.Flux]
			if !ok {
				return nil, fmt.Errorf("%w: binding on %q references flux %q", ErrUnknownLabel, label, b.Flux)
			}
			sign := 1.0
			if b.Negative {
				sign = -1.0
			}
			if err := accumulate(deriv, val, sign, dims); err != nil {
				return nil, fmt.Errorf("%v (flux %q bound to %q)", err, b.Flux, label)
			}
		}
		for _, part := range listContrib[label] {
			if err := accumulate(deriv, part, 1.0, dims); err != nil {
				return nil, fmt.Errorf("%v (list-input slice for %q)", err, label)
			}
		}
		out = append(out, deriv...)
	}

	for _, label := range m.FluxOrder {
		out = append(out, fluxVals[label]...)
	}
	return out, nil
}

// accumulate adds a signed flux contribution into a derivative buffer.
// Scalar variables collapse vector contributions to a sum; single-element
// contributions broadcast across vector variables; anything else must
// match the variable's size exactly.
func accumulate(deriv, val []float64, sign float64, dims Dims) error {
	if dims.Scalar() {
		s := 0.0
		for _, v := range val {
			s += v
		}
		deriv[0] += sign * s
		return nil
	}
	switch len(val) {
	case len(deriv):
		for i, v := range val {
			deriv[i] += sign * v
		}
	case 1:
		for i := range deriv {
			deriv[i] += sign * val[0]
		}
	default:
		return fmt.Errorf("%w: contribution has %d elements, variable has %d",
			ErrShapeMismatch, len(val), len(deriv))
	}
	return nil
}
