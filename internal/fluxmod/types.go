package fluxmod

import "fmt"

// Dims describes the shape of a model quantity: nil is a scalar,
// a single entry is a 1-D vector, more entries an n-D array stored flat.
type Dims []int

// Size returns the number of elements a quantity of this shape holds.
func (d Dims) Size() int {
	n := 1
	for _, v := range d {
		n *= v
	}
	return n
}

// Scalar reports whether the shape is a plain scalar.
func (d Dims) Scalar() bool { return len(d) == 0 }

func (d Dims) String() string {
	if d.Scalar() {
		return "scalar"
	}
	return fmt.Sprint([]int(d))
}

// Value is a numeric quantity with a shape tag, stored flat.
type Value struct {
	Data  []float64
	Shape Dims
}

// Scalar wraps a single number as a Value.
func Scalar(x float64) Value {
	return Value{Data: []float64{x}}
}

// Vector wraps a 1-D value. A single element is treated as a scalar,
// matching how shapes are inferred everywhere else.
func Vector(xs ...float64) Value {
	data := make([]float64, len(xs))
	copy(data, xs)
	if len(data) == 1 {
		return Value{Data: data}
	}
	return Value{Data: data, Shape: Dims{len(data)}}
}

// Array wraps an n-D value stored flat in row-major order.
// It panics if the data length does not match the shape.
func Array(shape Dims, data ...float64) Value {
	if len(data) != shape.Size() {
		panic(fmt.Sprintf("fluxmod: array data length %d does not match shape %v", len(data), shape))
	}
	d := make([]float64, len(data))
	copy(d, data)
	return Value{Data: d, Shape: append(Dims(nil), shape...)}
}

// Dims returns the effective shape of the value: the explicit shape if
// set, otherwise inferred from the data (one element is a scalar).
func (v Value) Dims() Dims {
	if v.Shape != nil {
		return v.Shape
	}
	if len(v.Data) <= 1 {
		return nil
	}
	return Dims{len(v.Data)}
}

// State maps quantity labels to flat values. The same type carries
// variables, parameters and forcings into flux evaluations.
type State map[string][]float64

// FluxFunc is a pure function producing one derivative term from the
// current state, parameters and forcings. It must return the same number
// of elements on every call.
type FluxFunc func(state, params, forcings State) []float64

// ForcingFunc samples an external input at a point in time.
type ForcingFunc func(t float64) float64

// Binding wires a flux to the variable(s) it contributes to. ListVars is
// non-empty for list-input bindings, where the flux output is scattered
// across several variables.
type Binding struct {
	Flux     string
	Negative bool
	ListVars []string
}
