package config

var Presets = map[string]map[string]*Config{
	"decay": {
		"slow": {
			Model: "decay", Solver: "stepwise", Dt: 0.1, Steps: 200,
			Params: map[string]float64{"rate": 0.1},
		},
		"fast": {
			Model: "decay", Solver: "adaptive", Dt: 0.05, Steps: 100,
			Params: map[string]float64{"rate": 2.0},
		},
	},
	"lotkavolterra": {
		"cycles": {
			Model: "lotkavolterra", Solver: "adaptive", Dt: 0.02, Steps: 2000,
		},
		"coarse": {
			Model: "lotkavolterra", Solver: "stepwise", Dt: 0.005, Steps: 8000,
		},
	},
	"npz": {
		"seasonal": {
			Model: "npz", Solver: "adaptive", Dt: 1.0, Steps: 730,
		},
		"bloom": {
			Model: "npz", Solver: "stepwise", Dt: 0.25, Steps: 1460,
			Params: map[string]float64{"mu": 1.4, "mix": 0.02},
		},
	},
}

// Preset resolves a model/preset pair, or nil if unknown.
func Preset(model, name string) *Config {
	group, ok := Presets[model]
	if !ok {
		return nil
	}
	return group[name]
}
