// Package rulecache stores analyzed rule sets in SQLite, keyed by the
// cache identity derived from (taxonomy hash, provider, product tuple).
//
// Analysis is expensive (one provider round-trip per taxonomy), so the
// result is cached durably and reused across runs until the taxonomy, the
// provider, or the product identity changes. The cache stores the raw
// rule-set JSON; decoding and section-tolerance live in package rules.
package rulecache
