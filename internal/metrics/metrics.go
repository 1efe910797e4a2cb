// Package metrics computes summary diagnostics over solved
// trajectories. Observers consume one row per time point and reduce it
// to a single number, so the run summary stays independent of how the
// trajectory was produced.
package metrics

import (
	"math"

	"github.com/san-kum/fluxsim/internal/fluxmod"
)

type Observer interface {
	Name() string
	Observe(t float64, values []float64)
	Value() float64
	Reset()
}

// Walk feeds every row of a series to the given observers.
func Walk(series *fluxmod.Series, times []float64, obs ...Observer) {
	for i, t := range times {
		row := series.At(i)
		for _, o := range obs {
			o.Observe(t, row)
		}
	}
}

type Min struct {
	min     float64
	samples int
}

func NewMin() *Min { return &Min{} }

func (m *Min) Name() string { return "min" }

func (m *Min) Observe(t float64, values []float64) {
	for _, v := range values {
		if m.samples == 0 || v < m.min {
			m.min = v
		}
		m.samples++
	}
}

func (m *Min) Value() float64 { return m.min }

func (m *Min) Reset() { m.min, m.samples = 0, 0 }

type Max struct {
	max     float64
	samples int
}

func NewMax() *Max { return &Max{} }

func (m *Max) Name() string { return "max" }

func (m *Max) Observe(t float64, values []float64) {
	for _, v := range values {
		if m.samples == 0 || v > m.max {
			m.max = v
		}
		m.samples++
	}
}

func (m *Max) Value() float64 { return m.max }

func (m *Max) Reset() { m.max, m.samples = 0, 0 }

// Mean is the time average over every observed element.
type Mean struct {
	sum     float64
	samples int
}

func NewMean() *Mean { return &Mean{} }

func (m *Mean) Name() string { return "mean" }

func (m *Mean) Observe(t float64, values []float64) {
	for _, v := range values {
		m.sum += v
		m.samples++
	}
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() { m.sum, m.samples = 0, 0 }

// Drift tracks how far the summed row wanders from its first observed
// value. Zero for a perfectly conserved budget.
type Drift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift() *Drift { return &Drift{} }

func (d *Drift) Name() string { return "drift" }

func (d *Drift) Observe(t float64, values []float64) {
	total := 0.0
	for _, v := range values {
		total += v
	}
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++
	if dev := math.Abs(total - d.initial); dev > d.maxDrift {
		d.maxDrift = dev
	}
}

func (d *Drift) Value() float64 { return d.maxDrift }

func (d *Drift) Reset() { d.initial, d.maxDrift, d.samples = 0, 0, 0 }

// BudgetDrift sums the given scalar series pointwise and reports the
// worst deviation of that total from its initial value.
func BudgetDrift(times []float64, series ...*fluxmod.Series) float64 {
	d := NewDrift()
	for i := range times {
		total := 0.0
		for _, s := range series {
			for _, v := range s.At(i) {
				total += v
			}
		}
		d.Observe(times[i], []float64{total})
	}
	return d.Value()
}
