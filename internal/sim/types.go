package sim

import (
	"log/slog"
	"sync"

	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

// TypeRegistry enforces the output type-stability invariant: once a
// property name has carried a value of a given JSON type anywhere in the
// run, every later value for that name must be of the same type. A
// conflicting value is dropped to null rather than emitted.
//
// The registry is seeded from the taxonomy's declared types at
// construction, so for declared properties the outcome does not depend on
// which worker emits a name first. Undeclared names (engine-synthesized
// state) register lazily under a lock.
type TypeRegistry struct {
	mu    sync.Mutex
	kinds map[string]taxonomy.PropertyType
}

// NewTypeRegistry builds a registry pre-seeded with every declared
// property type in the taxonomy.
func NewTypeRegistry(tax *taxonomy.Taxonomy) *TypeRegistry {
	kinds := make(map[string]taxonomy.PropertyType)
	if tax != nil {
		for _, ev := range tax.Events {
			for _, p := range ev.Properties {
				kinds[p.Name] = p.Type
			}
		}
		for _, p := range tax.CommonProperties {
			kinds[p.Name] = p.Type
		}
		for _, p := range tax.UserProperties {
			kinds[p.Name] = p.Type
		}
	}
	return &TypeRegistry{kinds: kinds}
}

// Conform checks a value against the property's registered type. The
// returned value is v unchanged when compatible, or nil when the value
// would violate type stability. Nil values always pass through.
func (r *TypeRegistry) Conform(name string, v any) any {
	if v == nil {
		return nil
	}
	kind, ok := kindOf(v)
	if !ok {
		slog.Warn("dropping value of unsupported type", "property", name)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	registered, seen := r.kinds[name]
	if !seen {
		r.kinds[name] = kind
		return v
	}
	if compatible(registered, kind) {
		return v
	}
	slog.Warn("dropping type-conflicting value",
		"property", name,
		"registered", string(registered),
		"got", string(kind),
	)
	return nil
}

// DeclaredType returns the registered type for a property, if any.
func (r *TypeRegistry) DeclaredType(name string) (taxonomy.PropertyType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.kinds[name]
	return t, ok
}

// kindOf maps a Go value onto the taxonomy type system.
func kindOf(v any) (taxonomy.PropertyType, bool) {
	switch v.(type) {
	case string:
		return taxonomy.TypeString, true
	case bool:
		return taxonomy.TypeBool, true
	case int, int64, float64, float32:
		return taxonomy.TypeNumber, true
	case []any, []string:
		return taxonomy.TypeList, true
	case map[string]any:
		return taxonomy.TypeObject, true
	default:
		return "", false
	}
}

// compatible reports whether a value kind satisfies a registered type.
// Time properties are serialized as formatted strings, so string values
// satisfy them.
func compatible(registered, kind taxonomy.PropertyType) bool {
	if registered == kind {
		return true
	}
	return registered == taxonomy.TypeTime && kind == taxonomy.TypeString
}
