// Package solver implements the interchangeable numerical strategies
// that turn an assembled fluxmod.Model into trajectories:
//
//   - [Stepwise]: explicit Euler, externally clocked one step per call
//   - [Batch]: hands the whole time axis to an adaptive RK45 run
//   - [Simultaneous]: discretizes every governing equation over the
//     whole axis and solves the resulting algebraic system at once
//
// A strategy is selected once, at core.Core construction, and never
// swapped mid-run. Strategies own storage layout: registration calls
// delegate series creation here because different disciplines need
// different layouts.
package solver
