// Package scenario loads and runs event bus scenarios.
//
// A scenario describes a type lattice, a bus variant, a set of scripted
// handlers and a stream of events to post. Scenarios are written in TOML or
// YAML:
//
//	name = "hierarchy ordering"
//	bus = "hierarchy"
//	root = "Event"
//
//	[[types]]
//	name = "Event"
//	interface = true
//
//	[[types]]
//	name = "Child"
//	implements = ["Event"]
//
//	[[handlers]]
//	name = "audit"
//	type = "Event"
//	priority = 1
//
//	[[events]]
//	type = "Child"
//	repeat = 10
//
// Run builds the bus, posts every event across the configured number of
// workers and returns a Report. An optional expect block turns a run into a
// check: mismatches are listed on the report.
package scenario
