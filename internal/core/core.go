// Package core provides the single entry point external collaborators
// use to build and run a model: registration calls during setup, one
// Assemble, then Solve per the chosen strategy's discipline, and a
// final Cleanup.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/fluxsim/internal/fluxmod"
	"github.com/san-kum/fluxsim/internal/solver"
)

// Built-in solver strategy names.
const (
	SolverStepwise     = "stepwise"
	SolverAdaptive     = "adaptive"
	SolverSimultaneous = "simultaneous"
)

// Lifecycle errors. All of them mark programming mistakes in the
// calling layer and are never retried.
var (
	ErrUnknownSolver    = errors.New("core: unknown solver")
	ErrNotAssembled     = errors.New("core: model not assembled")
	ErrAlreadyAssembled = errors.New("core: model already assembled")
)

// Core owns one Model and one Solver for their whole lifetime. The
// solver is chosen once at construction and never swapped mid-run.
type Core struct {
	Model  *fluxmod.Model
	Solver solver.Solver

	log        *slog.Logger
	assembled  bool
	solveStart time.Time
	solveTime  time.Duration
}

// New builds a Core around a built-in strategy name or a caller-supplied
// solver.Solver value. Anything else is a fatal configuration error.
func New(choice any) (*Core, error) {
	c := &Core{
		Model: fluxmod.NewModel(),
		log:   slog.Default(),
	}
	switch v := choice.(type) {
	case string:
		switch v {
		case SolverStepwise:
			c.Solver = solver.NewStepwise()
		case SolverAdaptive:
			c.Solver = solver.NewBatch()
		case SolverSimultaneous:
			c.Solver = solver.NewSimultaneous()
		default:
			return nil, fmt.Errorf("%w: %q (choose %q, %q or %q)",
				ErrUnknownSolver, v, SolverStepwise, SolverAdaptive, SolverSimultaneous)
		}
	case solver.Solver:
		c.Solver = v
	default:
		return nil, fmt.Errorf("%w: argument of type %T", ErrUnknownSolver, choice)
	}
	return c, nil
}

// SetLogger replaces the logger used for lifecycle diagnostics.
func (c *Core) SetLogger(l *slog.Logger) { c.log = l }

// SetTime declares the ordered time axis. Must happen before
// registering time-dependent quantities.
func (c *Core) SetTime(times []float64) error {
	if c.assembled {
		return ErrAlreadyAssembled
	}
	c.Model.Time = append([]float64(nil), times...)
	return nil
}

// AddVariable registers a variable and returns its storage, sized to
// the full time axis by the active strategy.
func (c *Core) AddVariable(label string, initial fluxmod.Value) (*fluxmod.Series, error) {
	if c.assembled {
		return nil, ErrAlreadyAssembled
	}
	if c.Model.HasVariable(label) {
		return nil, fmt.Errorf("%w: %q", fluxmod.ErrDuplicateLabel, label)
	}
	store, err := c.Solver.AddVariable(c.Model, label, initial)
	if err != nil {
		return nil, err
	}
	if err := c.Model.AddVariable(label, initial, store); err != nil {
		return nil, err
	}
	return store, nil
}

// AddParameter registers a constant, normalized to at-least-1D form.
func (c *Core) AddParameter(label string, value fluxmod.Value) ([]float64, error) {
	if c.assembled {
		return nil, ErrAlreadyAssembled
	}
	normalized := c.Solver.AddParameter(label, value)
	c.Model.AddParameter(label, fluxmod.Value{Data: normalized, Shape: value.Dims()})
	return normalized, nil
}

// RegisterFlux registers a flux function. A reused label fails here,
// before any evaluation happens.
func (c *Core) RegisterFlux(label string, fn fluxmod.FluxFunc, dims fluxmod.Dims) (*fluxmod.Series, error) {
	if c.assembled {
		return nil, ErrAlreadyAssembled
	}
	if c.Model.HasFlux(label) {
		return nil, fmt.Errorf("%w: %q", fluxmod.ErrDuplicateFlux, label)
	}
	store, err := c.Solver.RegisterFlux(c.Model, label, fn, dims)
	if err != nil {
		return nil, err
	}
	if err := c.Model.RegisterFlux(label, fn, store.Dims, store); err != nil {
		return nil, err
	}
	return store, nil
}

// BindFlux wires a registered flux into a variable's derivative.
// Consistency is validated lazily at first evaluation, since shapes may
// not be final yet.
func (c *Core) BindFlux(varLabel, fluxLabel string, negative bool) error {
	if c.assembled {
		return ErrAlreadyAssembled
	}
	c.Model.BindFlux(varLabel, fluxLabel, negative)
	return nil
}

// BindFluxList scatters a flux's vector output across several
// variables, each receiving a slice in declaration order.
func (c *Core) BindFluxList(varLabels []string, fluxLabel string, negative bool) error {
	if c.assembled {
		return ErrAlreadyAssembled
	}
	c.Model.BindFluxList(varLabels, fluxLabel, negative)
	return nil
}

// AddForcing registers an external input, materialized per strategy.
func (c *Core) AddForcing(label string, fn fluxmod.ForcingFunc) ([]float64, error) {
	if c.assembled {
		return nil, ErrAlreadyAssembled
	}
	values, err := c.Solver.AddForcing(c.Model, label, fn)
	if err != nil {
		return nil, err
	}
	c.Model.AddForcing(label, fn, values)
	return values, nil
}

// Assemble freezes shapes and prepares solver-specific structures.
// Registration is closed afterwards.
func (c *Core) Assemble() error {
	if c.assembled {
		return ErrAlreadyAssembled
	}
	if c.Model.Time == nil {
		return fmt.Errorf("%w: assemble requires a time axis", fluxmod.ErrTimeUnset)
	}
	if err := c.Solver.Assemble(c.Model); err != nil {
		return err
	}
	c.assembled = true
	c.solveStart = time.Now()
	c.log.Debug("model assembled",
		"variables", len(c.Model.VarOrder),
		"parameters", len(c.Model.ParamOrder),
		"forcings", len(c.Model.ForcingOrder),
		"fluxes", len(c.Model.FluxOrder),
		"flat_size", c.Model.FullSize())
	if s, ok := c.Solver.(*solver.Simultaneous); ok {
		for _, eq := range s.Equations() {
			c.log.Debug("equation", "eq", eq)
		}
	}
	return nil
}

// Solve advances the model per the active strategy: one step for the
// stepwise solver, the whole trajectory for the batch ones.
func (c *Core) Solve(dt float64) error {
	if !c.assembled {
		return ErrNotAssembled
	}
	return c.Solver.Solve(c.Model, dt)
}

// Series returns the storage for a registered variable or flux.
func (c *Core) Series(label string) (*fluxmod.Series, error) {
	if s, ok := c.Model.Variables[label]; ok {
		return s, nil
	}
	if s, ok := c.Model.FluxValues[label]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", fluxmod.ErrUnknownLabel, label)
}

// Cleanup releases solver-owned temporaries and logs solve wall time.
func (c *Core) Cleanup() error {
	if c.assembled {
		c.solveTime = time.Since(c.solveStart)
		c.log.Debug("model solved", "elapsed", c.solveTime)
	}
	return c.Solver.Cleanup()
}

// SolveTime reports wall time between Assemble and Cleanup.
func (c *Core) SolveTime() time.Duration { return c.solveTime }
