package fluxmod

import (
	"errors"
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func TestConservationAcrossSign(t *testing.T) {
	m := NewModel()
	addVar(t, m, "a", Scalar(3))
	addVar(t, m, "b", Scalar(1))
	transfer := func(s, p, f State) []float64 {
		return []float64{0.7 * s["a"][0] * s["b"][0]}
	}
	addFlux(t, m, "transfer", transfer, nil)
	m.BindFlux("a", "transfer", true)
	m.BindFlux("b", "transfer", false)
	m.FreezeDims()

	for _, vals := range [][2]float64{{3, 1}, {0.1, 5}, {-2, 4}} {
		flat, _ := m.Flatten(State{"a": {vals[0]}, "b": {vals[1]}, "transfer": {0}})
		out, err := m.EvalWith(nil, flat)
		if err != nil {
			t.Fatalf("eval: %v", err)
		}
		d := m.Unflatten(out)
		if !almost(d["a"][0], -d["b"][0]) {
			t.Errorf("state %v: dA = %v, dB = %v, want opposite", vals, d["a"][0], d["b"][0])
		}
	}
}

func TestListInputCountMatch(t *testing.T) {
	m := NewModel()
	addVar(t, m, "x", Scalar(0))
	addVar(t, m, "y", Scalar(0))
	addVar(t, m, "z", Scalar(0))
	addFlux(t, m, "spread", func(s, p, f State) []float64 {
		return []float64{1, 2, 3}
	}, Dims{3})
	m.BindFluxList([]string{"x", "y", "z"}, "spread", false)
	m.FreezeDims()

	flat, _ := m.Flatten(State{"x": {0}, "y": {0}, "z": {0}, "spread": {0, 0, 0}})
	out, err := m.EvalWith(nil, flat)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	d := m.Unflatten(out)
	if !almost(d["x"][0], 1) || !almost(d["y"][0], 2) || !almost(d["z"][0], 3) {
		t.Errorf("slices out of declaration order: x=%v y=%v z=%v", d["x"][0], d["y"][0], d["z"][0])
	}
}

func TestListInputSizeSumMatch(t *testing.T) {
	m := NewModel()
	addVar(t, m, "s", Scalar(0))
	addVar(t, m, "v", Vector(0, 0, 0, 0))
	addFlux(t, m, "spread", func(s, p, f State) []float64 {
		return []float64{10, 1, 2, 3, 4}
	}, Dims{5})
	m.BindFluxList([]string{"s", "v"}, "spread", false)
	m.FreezeDims()

	flat, _ := m.Flatten(State{"s": {0}, "v": {0, 0, 0, 0}, "spread": {0, 0, 0, 0, 0}})
	out, err := m.EvalWith(nil, flat)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	d := m.Unflatten(out)
	if !almost(d["s"][0], 10) {
		t.Errorf("scalar slice: got %v, want 10", d["s"][0])
	}
	for i, want := range []float64{1, 2, 3, 4} {
		if !almost(d["v"][i], want) {
			t.Errorf("vector slice [%d]: got %v, want %v", i, d["v"][i], want)
		}
	}
}

func TestListInputMismatchFails(t *testing.T) {
	m := NewModel()
	addVar(t, m, "x", Scalar(0))
	addVar(t, m, "y", Scalar(0))
	addFlux(t, m, "spread", func(s, p, f State) []float64 {
		return []float64{1, 2, 3}
	}, Dims{3})
	m.BindFluxList([]string{"x", "y"}, "spread", false)
	m.FreezeDims()

	flat, _ := m.Flatten(State{"x": {0}, "y": {0}, "spread": {0, 0, 0}})
	if _, err := m.EvalWith(nil, flat); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestUnboundVariableHasZeroDerivative(t *testing.T) {
	m := NewModel()
	addVar(t, m, "idle", Vector(1, 2, 3))
	addVar(t, m, "driven", Scalar(1))
	addFlux(t, m, "pump", func(s, p, f State) []float64 { return []float64{2} }, nil)
	m.BindFlux("driven", "pump", false)
	m.FreezeDims()

	flat, _ := m.Flatten(State{"idle": {1, 2, 3}, "driven": {1}, "pump": {0}})
	out, err := m.EvalWith(nil, flat)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	d := m.Unflatten(out)
	if len(d["idle"]) != 3 {
		t.Fatalf("idle derivative has %d elements, want 3", len(d["idle"]))
	}
	for i, v := range d["idle"] {
		if v != 0 {
			t.Errorf("idle[%d] = %v, want exactly 0", i, v)
		}
	}
}

func TestScalarVariableSumsVectorFlux(t *testing.T) {
	m := NewModel()
	addVar(t, m, "total", Scalar(0))
	addFlux(t, m, "parts", func(s, p, f State) []float64 {
		return []float64{1, 2, 3}
	}, Dims{3})
	m.BindFlux("total", "parts", false)
	m.FreezeDims()

	flat, _ := m.Flatten(State{"total": {0}, "parts": {0, 0, 0}})
	out, err := m.EvalWith(nil, flat)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	d := m.Unflatten(out)
	if !almost(d["total"][0], 6) {
		t.Errorf("got %v, want 6", d["total"][0])
	}
}

func TestFluxChainingWithinStep(t *testing.T) {
	// the second flux consumes the first flux's output from the same
	// evaluation, via the working state map overwrite
	m := NewModel()
	addVar(t, m, "x", Scalar(5))
	addFlux(t, m, "base", func(s, p, f State) []float64 {
		return []float64{0.5 * s["x"][0]}
	}, nil)
	addFlux(t, m, "doubled", func(s, p, f State) []float64 {
		return []float64{2 * s["base"][0]}
	}, nil)
	m.BindFlux("x", "doubled", false)
	m.FreezeDims()

	// stale value for "base" in the input state must not be used
	flat, _ := m.Flatten(State{"x": {5}, "base": {999}, "doubled": {0}})
	out, err := m.EvalWith(nil, flat)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	d := m.Unflatten(out)
	if !almost(d["doubled"][0], 5) {
		t.Errorf("chained flux: got %v, want 5", d["doubled"][0])
	}
	if !almost(d["x"][0], 5) {
		t.Errorf("x derivative: got %v, want 5", d["x"][0])
	}
}

func TestFluxOutputSizeChecked(t *testing.T) {
	m := NewModel()
	addVar(t, m, "x", Scalar(0))
	calls := 0
	addFlux(t, m, "wobbly", func(s, p, f State) []float64 {
		calls++
		if calls > 1 {
			return []float64{1, 2}
		}
		return []float64{1}
	}, nil)
	m.BindFlux("x", "wobbly", false)
	m.FreezeDims()

	flat, _ := m.Flatten(State{"x": {0}, "wobbly": {0}})
	if _, err := m.EvalWith(nil, flat); err != nil {
		t.Fatalf("first eval: %v", err)
	}
	if _, err := m.EvalWith(nil, flat); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("second eval: got %v, want ErrShapeMismatch", err)
	}
}

func TestForcingResolution(t *testing.T) {
	m := NewModel()
	addVar(t, m, "x", Scalar(0))
	m.AddForcing("wind", func(t float64) float64 { return 2 * t }, nil)
	addFlux(t, m, "drag", func(s, p, f State) []float64 {
		return []float64{f["wind"][0]}
	}, nil)
	m.BindFlux("x", "drag", false)
	m.FreezeDims()

	flat, _ := m.Flatten(State{"x": {0}, "drag": {0}})

	out, err := m.EvalAt(3, flat)
	if err != nil {
		t.Fatalf("eval at time: %v", err)
	}
	if d := m.Unflatten(out); !almost(d["x"][0], 6) {
		t.Errorf("time-resolved forcing: got %v, want 6", d["x"][0])
	}

	out, err = m.EvalWith(State{"wind": {10}}, flat)
	if err != nil {
		t.Fatalf("eval with map: %v", err)
	}
	if d := m.Unflatten(out); !almost(d["x"][0], 10) {
		t.Errorf("supplied forcing: got %v, want 10", d["x"][0])
	}
}
