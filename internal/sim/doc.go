// Package sim implements the rule-driven behavioral simulation engine.
//
// The engine turns an immutable rules.RuleSet and a taxonomy into a
// deterministic-given-seed stream of per-user analytics records: track
// events plus the user-profile updates they cause.
//
// ARCHITECTURE:
//
// Per-User Sequential Simulation:
// A user's timeline is causal - a later event's property resolution and
// scheduling may depend on state mutated by an earlier event - so one
// logical thread of control owns a user from join date to end of range.
// Users are independent of each other, which makes the run data-parallel:
// the Runner fans users out to a bounded worker pool, and the only shared
// objects are read-only (RuleSet, taxonomy, behavior tables).
//
// Determinism:
// Every random draw comes from a per-user PRNG seeded from (run seed,
// account id). Worker scheduling therefore cannot change any user's
// timeline, and the final stream is merged in a fixed order, so two runs
// with the same inputs are byte-identical. Records are encoded with
// canonical JSON (sorted keys, NFC strings) for the same reason.
//
// Pipeline per user per day:
//
//	Scheduler.DailySessions -> Sequencer.SelectEvents
//	  -> Resolver.ResolveEventProperties -> UpdateEngine.Apply
//	  -> track record + optional user_* record
//
// All engine errors are recoverable locally: a malformed rule section, an
// unresolvable template reference, or a dependency cycle degrades to the
// next fallback strategy and logs a diagnostic. Nothing in this package
// aborts a run.
package sim
