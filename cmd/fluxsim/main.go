package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/fluxsim/internal/config"
	"github.com/san-kum/fluxsim/internal/core"
	"github.com/san-kum/fluxsim/internal/metrics"
	"github.com/san-kum/fluxsim/internal/models"
	"github.com/san-kum/fluxsim/internal/storage"
	"github.com/san-kum/fluxsim/internal/tui"
)

var (
	dataDir    string
	verbose    bool
	solverName string
	dt         float64
	steps      int
	paramFlags []string
	plotLabel  string
	save       bool
	configFile string
	presetName string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fluxsim",
		Short: "flux-routed ODE model assembly and solving",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fluxsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "assemble and solve a model",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runModel,
	}
	runCmd.Flags().StringVar(&solverName, "solver", "stepwise", "solver strategy: stepwise, adaptive, simultaneous")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "parameter override, name=value")
	runCmd.Flags().StringVar(&plotLabel, "plot", "", "plot this label after the run")
	runCmd.Flags().BoolVar(&save, "save", false, "save run to the data directory")
	runCmd.Flags().StringVar(&configFile, "config", "", "load run configuration from YAML")
	runCmd.Flags().StringVar(&presetName, "preset", "", "named preset for the model")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "watch a stepwise solve as it runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	liveCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	liveCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "parameter override, name=value")
	liveCmd.Flags().StringVar(&plotLabel, "plot", "", "label to plot (defaults to the model's primary)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models",
		Run: func(cmd *cobra.Command, args []string) {
			registry := models.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, name := range registry.List() {
				spec, _ := registry.Get(name)
				fmt.Fprintf(w, "%s\t%s\n", name, spec.Info)
			}
			w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named presets",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			modelNames := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				modelNames = append(modelNames, name)
			}
			sort.Strings(modelNames)
			for _, model := range modelNames {
				group := config.Presets[model]
				names := make([]string, 0, len(group))
				for name := range group {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					cfg := group[name]
					fmt.Fprintf(w, "%s/%s\tsolver=%s dt=%g steps=%d\n", model, name, cfg.Solver, cfg.Dt, cfg.Steps)
				}
			}
			w.Flush()
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.New(dataDir)
			runs, err := store.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "run\tsolver\tdt\tsteps\tsaved")
			for _, meta := range runs {
				fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%s\n",
					meta.ID, meta.Solver, meta.Dt, meta.Steps,
					meta.Timestamp.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, modelsCmd, presetsCmd, runsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig merges config file, preset, flags and positional model
// name into one run configuration.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if presetName != "" {
		preset := config.Preset(cfg.Model, presetName)
		if preset == nil {
			return nil, fmt.Errorf("unknown preset %q for model %q", presetName, cfg.Model)
		}
		cfg = preset
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver = solverName
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}
	for _, raw := range paramFlags {
		name, valueStr, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("bad --param %q, want name=value", raw)
		}
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("bad --param %q: %v", raw, err)
		}
		cfg.Params[name] = value
	}
	return cfg, cfg.Validate()
}

// plotTarget picks the label to plot: the --plot flag wins, then the
// config file's plot entry, then the model's primary label.
func plotTarget(cfg *config.Config, spec models.Spec) string {
	if plotLabel != "" {
		return plotLabel
	}
	if cfg.Plot != "" {
		return cfg.Plot
	}
	return spec.Primary
}

// buildCore assembles the chosen model on the chosen solver.
func buildCore(cfg *config.Config) (*core.Core, models.Spec, error) {
	registry := models.NewRegistry()
	spec, err := registry.Get(cfg.Model)
	if err != nil {
		return nil, models.Spec{}, err
	}
	c, err := core.New(cfg.Solver)
	if err != nil {
		return nil, models.Spec{}, err
	}
	if err := c.SetTime(cfg.TimeAxis()); err != nil {
		return nil, models.Spec{}, err
	}
	if err := spec.Build(c, cfg.Params); err != nil {
		return nil, models.Spec{}, err
	}
	if err := c.Assemble(); err != nil {
		return nil, models.Spec{}, err
	}
	return c, spec, nil
}

func runModel(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	c, spec, err := buildCore(cfg)
	if err != nil {
		return err
	}

	slog.Info("solving", "model", cfg.Model, "solver", cfg.Solver, "dt", cfg.Dt, "steps", cfg.Steps)

	if cfg.Solver == core.SolverStepwise {
		for i := 0; i < cfg.Steps; i++ {
			if err := c.Solve(cfg.Dt); err != nil {
				return err
			}
		}
	} else {
		if err := c.Solve(cfg.Dt); err != nil {
			return err
		}
	}
	if err := c.Cleanup(); err != nil {
		return err
	}
	slog.Info("done", "elapsed", c.SolveTime())

	last := len(c.Model.Time) - 1
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "label\tinitial\tfinal\tmin\tmax\tmean")
	for _, label := range c.Model.VarOrder {
		series := c.Model.Variables[label]
		min, max, mean := metrics.NewMin(), metrics.NewMax(), metrics.NewMean()
		metrics.Walk(series, c.Model.Time, min, max, mean)
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\n",
			label, series.Get(0), series.Get(last), min.Value(), max.Value(), mean.Value())
	}
	w.Flush()

	label := plotTarget(cfg, spec)
	if label != "" {
		series, err := c.Series(label)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(series.Col(0),
			asciigraph.Height(14),
			asciigraph.Width(72),
			asciigraph.Caption(label),
		))
	}

	if save {
		store := storage.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
		runID, err := store.Save(cfg.Model, cfg.Solver, cfg.Dt, c.Model)
		if err != nil {
			return err
		}
		slog.Info("saved", "run", runID)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Solver = core.SolverStepwise // live view steps the model itself
	c, spec, err := buildCore(cfg)
	if err != nil {
		return err
	}
	view, err := tui.NewLive(c, cfg.Model, plotTarget(cfg, spec), cfg.Dt, cfg.Steps)
	if err != nil {
		return err
	}
	return tui.Run(view)
}
