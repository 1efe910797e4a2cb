package models

import (
	"github.com/san-kum/fluxsim/internal/core"
	"github.com/san-kum/fluxsim/internal/fluxmod"
)

var lotkaVolterraDefaults = map[string]float64{
	"prey0":     10.0,
	"predator0": 5.0,
	"alpha":     1.1, // prey growth
	"beta":      0.4, // predation rate
	"delta":     0.1, // conversion efficiency
	"gamma":     0.4, // predator mortality
}

// BuildLotkaVolterra assembles the classic predator-prey pair. The
// predation flux fans out with opposite signs, so prey losses and
// predator food supply stay consistent by construction.
func BuildLotkaVolterra(c *core.Core, params map[string]float64) error {
	p := merged(lotkaVolterraDefaults, params)

	if _, err := c.AddVariable("prey", fluxmod.Scalar(p["prey0"])); err != nil {
		return err
	}
	if _, err := c.AddVariable("predator", fluxmod.Scalar(p["predator0"])); err != nil {
		return err
	}
	for _, label := range []string{"alpha", "beta", "delta", "gamma"} {
		if _, err := c.AddParameter(label, fluxmod.Scalar(p[label])); err != nil {
			return err
		}
	}

	growth := func(s, p, f fluxmod.State) []float64 {
		return []float64{p["alpha"][0] * s["prey"][0]}
	}
	predation := func(s, p, f fluxmod.State) []float64 {
		return []float64{p["beta"][0] * s["prey"][0] * s["predator"][0]}
	}
	conversion := func(s, p, f fluxmod.State) []float64 {
		// feeds on the predation flux computed earlier this step
		return []float64{p["delta"][0] * s["predation"][0]}
	}
	mortality := func(s, p, f fluxmod.State) []float64 {
		return []float64{p["gamma"][0] * s["predator"][0]}
	}

	for _, flx := range []struct {
		label string
		fn    fluxmod.FluxFunc
	}{
		{"growth", growth},
		{"predation", predation},
		{"conversion", conversion},
		{"mortality", mortality},
	} {
		if _, err := c.RegisterFlux(flx.label, flx.fn, nil); err != nil {
			return err
		}
	}

	if err := c.BindFlux("prey", "growth", false); err != nil {
		return err
	}
	if err := c.BindFlux("prey", "predation", true); err != nil {
		return err
	}
	if err := c.BindFlux("predator", "conversion", false); err != nil {
		return err
	}
	return c.BindFlux("predator", "mortality", true)
}
