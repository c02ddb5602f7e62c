// Package dataprocessing implements the merge-and-derive pipeline at the
// heart of RTU Pulse. It takes one rooftop unit's three telemetry sheets
// (flow/amperage, zone temperatures, energy meter), aligns them on a common
// timeline, computes the derived thermal columns, and reduces the result to
// a per-unit efficiency summary.
//
// # Data Flow
//
// The typical flow through this package:
//
//	SheetRefs → Loader → RawSheets → Merger → MergedTable →
//	Derive → DerivedRows → Aggregate → UnitKPI
//
// # Time alignment
//
// Merging is a nearest-neighbor left join on the flow sheet's timeline:
// each flow-sheet timestamp is matched to the closest row of the other
// sheet within a bounded tolerance (1 minute by default). Unmatched rows
// keep empty values for the joined side rather than being dropped.
//
// # Row-order dependence
//
// Interval and energy-increment columns depend on the previous row, so
// derivation is an explicit fold over the ordered merged rows carrying the
// previous timestamp and meter reading as accumulator state.
//
// # Error Handling
//
// A unit whose sheet group does not contain exactly three sheets is
// rejected with a structure error and skipped; errors never abort the
// surrounding batch. A mode with no qualifying samples yields a ratio of
// 0, never a division error.
package dataprocessing
