// Package rules defines the RuleSet: the immutable snapshot of one
// taxonomy-analysis pass that every generation component consults.
//
// A RuleSet arrives as already-validated JSON from the analysis collaborator
// (or from the cache) and is never mutated after Decode. All lookups are
// read-only, so a single RuleSet is safely shared by any number of
// concurrent simulation workers.
//
// Decoding is section-tolerant: each top-level section (constraints,
// relationships, value ranges, segment profiles, update patterns) decodes
// independently, and a malformed section is dropped with a warning rather
// than failing the whole rule set. A missing section simply pushes property
// resolution down to the next fallback strategy.
package rules
