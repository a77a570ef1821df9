// Package diagnostics derives health, fatigue and balancing advice from a
// battery snapshot. Everything here is a pure function of its input:
//
//   - SOH: a 0-100 heuristic score from charge cycles and cell spread
//   - Fatigue: a coarse wear level from the same two inputs
//   - Balance: per-cell charge/discharge advice around the pack average
//
// Compute evaluates all of them from a single snapshot value so a caller
// never observes results derived from two different snapshots.
package diagnostics
