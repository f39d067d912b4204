// Package taxonomy models a product's tracking plan: the ordered list of
// events a product emits and the property schemas attached to them.
//
// The taxonomy is the input contract for the simulation core. It is loaded
// once from a YAML document (exported upstream from the tracking-plan
// spreadsheet), validated, and then treated as read-only for the lifetime
// of a generation run.
//
// The package also owns the taxonomy content hash used for rule-set cache
// identity: any change to the declared events or properties produces a
// different hash and therefore a different cache key.
package taxonomy
