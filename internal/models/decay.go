package models

import (
	"github.com/san-kum/fluxsim/internal/core"
	"github.com/san-kum/fluxsim/internal/fluxmod"
)

var decayDefaults = map[string]float64{
	"biomass0": 2.0,
	"rate":     0.5,
}

// BuildDecay assembles d(biomass)/dt = -rate * biomass.
func BuildDecay(c *core.Core, params map[string]float64) error {
	p := merged(decayDefaults, params)

	if _, err := c.AddVariable("biomass", fluxmod.Scalar(p["biomass0"])); err != nil {
		return err
	}
	if _, err := c.AddParameter("rate", fluxmod.Scalar(p["rate"])); err != nil {
		return err
	}

	decay := func(s, p, f fluxmod.State) []float64 {
		return []float64{p["rate"][0] * s["biomass"][0]}
	}
	if _, err := c.RegisterFlux("decay", decay, nil); err != nil {
		return err
	}
	return c.BindFlux("biomass", "decay", true)
}
