package models

import (
	"math"

	"github.com/san-kum/fluxsim/internal/core"
	"github.com/san-kum/fluxsim/internal/fluxmod"
)

var npzDefaults = map[string]float64{
	"nutrient0":      8.0,
	"phytoplankton0": 1.0,
	"zooplankton0":   0.5,
	"mu":             1.0,  // max phytoplankton growth
	"k_n":            0.7,  // nutrient half-saturation
	"g":              0.6,  // max grazing
	"k_p":            1.0,  // grazing half-saturation
	"m_z":            0.2,  // zooplankton mortality
	"mix":            0.05, // exchange with the deep layer
	"n_deep":         10.0, // deep nutrient concentration
}

// BuildNPZ assembles a nutrient-phytoplankton-zooplankton chain with a
// seasonal light forcing and a vectorized mixing flux that scatters
// across all three pools via a list-input binding. The closed uptake
// and grazing transfers conserve total mass between pools.
func BuildNPZ(c *core.Core, params map[string]float64) error {
	p := merged(npzDefaults, params)

	for _, v := range []struct {
		label string
		init  float64
	}{
		{"nutrient", p["nutrient0"]},
		{"phytoplankton", p["phytoplankton0"]},
		{"zooplankton", p["zooplankton0"]},
	} {
		if _, err := c.AddVariable(v.label, fluxmod.Scalar(v.init)); err != nil {
			return err
		}
	}
	for _, label := range []string{"mu", "k_n", "g", "k_p", "m_z", "mix", "n_deep"} {
		if _, err := c.AddParameter(label, fluxmod.Scalar(p[label])); err != nil {
			return err
		}
	}

	// seasonal light cycle, period 365 time units
	light := func(t float64) float64 {
		return 0.6 + 0.4*math.Sin(2*math.Pi*t/365.0)
	}
	if _, err := c.AddForcing("light", light); err != nil {
		return err
	}

	uptake := func(s, p, f fluxmod.State) []float64 {
		n := s["nutrient"][0]
		monod := n / (n + p["k_n"][0])
		return []float64{p["mu"][0] * f["light"][0] * monod * s["phytoplankton"][0]}
	}
	grazing := func(s, p, f fluxmod.State) []float64 {
		ph := s["phytoplankton"][0]
		return []float64{p["g"][0] * ph / (ph + p["k_p"][0]) * s["zooplankton"][0]}
	}
	remineralization := func(s, p, f fluxmod.State) []float64 {
		return []float64{p["m_z"][0] * s["zooplankton"][0]}
	}
	// one vectorized output, one slice per pool
	mixing := func(s, p, f fluxmod.State) []float64 {
		mix := p["mix"][0]
		return []float64{
			mix * (p["n_deep"][0] - s["nutrient"][0]),
			-mix * s["phytoplankton"][0],
			-mix * s["zooplankton"][0],
		}
	}

	if _, err := c.RegisterFlux("uptake", uptake, nil); err != nil {
		return err
	}
	if _, err := c.RegisterFlux("grazing", grazing, nil); err != nil {
		return err
	}
	if _, err := c.RegisterFlux("remineralization", remineralization, nil); err != nil {
		return err
	}
	if _, err := c.RegisterFlux("mixing", mixing, fluxmod.Dims{3}); err != nil {
		return err
	}

	if err := c.BindFlux("nutrient", "uptake", true); err != nil {
		return err
	}
	if err := c.BindFlux("phytoplankton", "uptake", false); err != nil {
		return err
	}
	if err := c.BindFlux("phytoplankton", "grazing", true); err != nil {
		return err
	}
	if err := c.BindFlux("zooplankton", "grazing", false); err != nil {
		return err
	}
	if err := c.BindFlux("zooplankton", "remineralization", true); err != nil {
		return err
	}
	if err := c.BindFlux("nutrient", "remineralization", false); err != nil {
		return err
	}
	return c.BindFluxList([]string{"nutrient", "phytoplankton", "zooplankton"}, "mixing", false)
}
