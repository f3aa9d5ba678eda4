// Package sweep drives parameter sweeps of a federated workflow-execution
// strategy against an external simulation engine.
//
// # Reading Guide
//
//   - site.go, topologies.go: sites, connections and the four fixed topologies
//   - capacity.go: per-site storage budgets derived from the workflow size
//   - distribution.go: randomized greedy placement of input files onto sites
//   - controller.go: the Cartesian-product sweep loop (grid and evaluation)
//   - executor.go, engine.go: one trial against the out-of-process engine
//   - aggregate.go: one master-table row per trial
//
// # Determinism
//
// A single *rand.Rand, seeded once from a SweepKey, is threaded through the
// planner and the controller. Trials run strictly one after another, so the
// stream advances in enumeration order and a sweep is reproducible from its
// seed alone.
package sweep
