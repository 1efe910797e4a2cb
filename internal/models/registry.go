// Package models provides built-in demonstration models assembled
// through the core registration API. Each model is a set of variables,
// parameters, forcings and fluxes wired together by bindings; none of
// them knows which solver strategy will run it.
package models

import (
	"fmt"
	"sort"

	"github.com/san-kum/fluxsim/internal/core"
)

// Builder assembles one model into a core, with parameter overrides
// merged over the model's defaults.
type Builder func(c *core.Core, params map[string]float64) error

// Spec describes one built-in model.
type Spec struct {
	Build    Builder
	Defaults map[string]float64
	Primary  string // label worth plotting by default
	Info     string
}

type Registry struct {
	specs map[string]Spec
}

func NewRegistry() *Registry {
	r := &Registry{specs: make(map[string]Spec)}

	r.specs["decay"] = Spec{
		Build:    BuildDecay,
		Defaults: decayDefaults,
		Primary:  "biomass",
		Info:     "first-order exponential decay",
	}
	r.specs["lotkavolterra"] = Spec{
		Build:    BuildLotkaVolterra,
		Defaults: lotkaVolterraDefaults,
		Primary:  "prey",
		Info:     "predator-prey oscillations",
	}
	r.specs["npz"] = Spec{
		Build:    BuildNPZ,
		Defaults: npzDefaults,
		Primary:  "phytoplankton",
		Info:     "nutrient-phytoplankton-zooplankton with seasonal forcing",
	}

	return r
}

func (r *Registry) Get(name string) (Spec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("models: unknown model %q", name)
	}
	return spec, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// merged returns defaults overlaid with caller overrides.
func merged(defaults, overrides map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
