// Package fluxmod holds the assembled state of a flux-routed ODE model.
//
// A model is built out of independently registered quantities:
//
//   - variables: the differential state, one storage series each
//   - parameters: constants, normalized to at-least-1D form
//   - forcings: external time-dependent inputs
//   - fluxes: pure functions producing one derivative term each
//
// Fluxes are wired to variables through bindings, which carry a sign and
// an optional list-scatter mode. The package owns the shape bookkeeping
// ([Dims], [Model.FullDims]), the flat state vector layout
// ([Model.Flatten], [Model.Unflatten]) and the per-step flux routing
// ([Model.EvalAt], [Model.EvalWith]).
//
// Registration order is a contract, not an accident: the flat vector
// layout and flux evaluation order are defined entirely by the order in
// which quantities were registered.
//
// # Thread Safety
//
// Model instances are NOT thread-safe. A model is exclusively owned by
// one core.Core instance and mutated only through registration and
// evaluation calls.
package fluxmod
