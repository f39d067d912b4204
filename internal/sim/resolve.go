package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/thinkingdata-korea/demo-data-generator/internal/rules"
	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

// Resolver produces property values for one event occurrence. Each
// property runs through a fixed strategy chain; the first strategy that
// yields a value wins:
//
//  1. constraint mapping keyed by an already-resolved dependency
//  2. relationship derivation (ratio, offset, jitter, range clip)
//  3. segment-specific value range
//  4. generic value range
//  5. semantic match on the property name
//  6. opaque default for the declared type
//
// Strategies 1 and 2 consult dependencies, so properties are resolved in
// dependency order (see resolveOrder).
type Resolver struct {
	rs            *rules.RuleSet
	types         *TypeRegistry
	defaultLocale string
}

// NewResolver builds a resolver over a rule set and the run's type
// registry.
func NewResolver(rs *rules.RuleSet, types *TypeRegistry, defaultLocale string) *Resolver {
	return &Resolver{rs: rs, types: types, defaultLocale: defaultLocale}
}

// ResolveEvent produces values for all of an event's declared properties
// plus any extra (common) properties passed in. Values are conformed to
// the registry's declared types before being returned.
func (r *Resolver) ResolveEvent(u *User, props []taxonomy.Property, now time.Time, rng *rand.Rand, faker *gofakeit.Faker) map[string]any {
	ctx := &synthContext{
		faker:  faker,
		rng:    rng,
		locale: localeForUser(u, r.defaultLocale),
		now:    now,
	}

	order, derivable := r.resolveOrder(props)
	resolved := make(map[string]any, len(props))
	for _, p := range order {
		ctx.property = p.Name
		v := r.resolveOne(u, p, resolved, derivable[p.Name], ctx)
		resolved[p.Name] = r.types.Conform(p.Name, v)
	}
	return resolved
}

// resolveOrder sorts an event's properties so dependencies resolve
// before dependents. Declared order is kept wherever the dependency
// graph permits. On a cycle the first remaining property in declared
// order is forced through with its derivation strategies disabled,
// which breaks the cycle deterministically.
func (r *Resolver) resolveOrder(props []taxonomy.Property) ([]taxonomy.Property, map[string]bool) {
	local := make(map[string]int, len(props))
	for i, p := range props {
		local[p.Name] = i
	}

	deps := make(map[string][]string, len(props))
	for _, p := range props {
		if c, ok := r.rs.ConstraintFor(p.Name); ok {
			for _, d := range c.DependsOn {
				if _, here := local[d]; here {
					deps[p.Name] = append(deps[p.Name], d)
				}
			}
		}
		if rel, ok := r.rs.RelationshipFor(p.Name); ok {
			if _, here := local[rel.DependsOn]; here {
				deps[p.Name] = append(deps[p.Name], rel.DependsOn)
			}
		}
	}

	// Completion is tracked by index, not name: a taxonomy can carry
	// duplicate property names (sanitization may collapse distinct
	// declared names), and name-keyed tracking would strand the
	// duplicate and never terminate.
	derivable := make(map[string]bool, len(props))
	done := make([]bool, len(props))
	doneName := make(map[string]bool, len(props))
	order := make([]taxonomy.Property, 0, len(props))
	for len(order) < len(props) {
		progressed := false
		for i, p := range props {
			if done[i] {
				continue
			}
			ready := true
			for _, d := range deps[p.Name] {
				if !doneName[d] {
					ready = false
					break
				}
			}
			if ready {
				done[i] = true
				doneName[p.Name] = true
				derivable[p.Name] = true
				order = append(order, p)
				progressed = true
			}
		}
		if !progressed {
			for i, p := range props {
				if !done[i] {
					slog.Warn("breaking property dependency cycle",
						"property", p.Name)
					done[i] = true
					doneName[p.Name] = true
					derivable[p.Name] = false
					order = append(order, p)
					break
				}
			}
		}
	}
	return order, derivable
}

func (r *Resolver) resolveOne(u *User, p taxonomy.Property, resolved map[string]any, derivable bool, ctx *synthContext) any {
	if derivable {
		if v, ok := r.fromConstraint(u, p.Name, resolved, ctx.rng); ok {
			return v
		}
		if v, ok := r.fromRelationship(u, p, resolved, ctx.rng); ok {
			return v
		}
	}
	if profile, ok := r.rs.ProfileFor(string(u.Segment)); ok {
		if rng, ok := profile.PropertyRanges[p.Name]; ok {
			return sampleRange(rng, p.Type, ctx.rng)
		}
	}
	if rng, ok := r.rs.RangeFor(p.Name); ok {
		return sampleRange(rng, p.Type, ctx.rng)
	}
	if cat, ok := matchSemantic(p.Name); ok && typeMatches(cat.typ, p.Type) {
		return cat.gen(ctx)
	}
	return opaqueValue(p, ctx)
}

// fromConstraint applies strategy 1: look up the dependency's current
// value in the constraint mapping and pick uniformly from the allowed
// set.
func (r *Resolver) fromConstraint(u *User, name string, resolved map[string]any, rng *rand.Rand) (any, bool) {
	c, ok := r.rs.ConstraintFor(name)
	if !ok {
		return nil, false
	}
	for _, dep := range c.DependsOn {
		v, ok := dependencyValue(dep, resolved, u)
		if !ok {
			continue
		}
		allowed, ok := c.Mapping[mappingKey(v)]
		if !ok || len(allowed) == 0 {
			continue
		}
		return allowed[rng.Intn(len(allowed))], true
	}
	return nil, false
}

// fromRelationship applies strategy 2: derive from a resolved numeric
// dependency, jitter, and clip to the property's declared range.
func (r *Resolver) fromRelationship(u *User, p taxonomy.Property, resolved map[string]any, rng *rand.Rand) (any, bool) {
	rel, ok := r.rs.RelationshipFor(p.Name)
	if !ok {
		return nil, false
	}
	dv, ok := dependencyValue(rel.DependsOn, resolved, u)
	if !ok {
		return nil, false
	}
	base, ok := toNumber(dv)
	if !ok {
		return nil, false
	}

	v := base*rel.Ratio + rel.Offset
	if rel.Jitter > 0 {
		v *= 1 + (rng.Float64()*2-1)*rel.Jitter
	}
	if bounds, ok := r.rs.RangeFor(p.Name); ok {
		v = math.Min(math.Max(v, bounds.Min), bounds.Max)
	}
	return numberValue(v, p.Type, wholeNumber(base)), true
}

// dependencyValue looks a dependency up in the event's already-resolved
// properties, then the user's profile state, then the preset block.
func dependencyValue(name string, resolved map[string]any, u *User) (any, bool) {
	if v, ok := resolved[name]; ok && v != nil {
		return v, true
	}
	if v, ok := u.StateValue(name); ok {
		return v, true
	}
	if v, ok := u.Preset[name]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// mappingKey renders a dependency value the way constraint mappings key
// it: strings as-is, numbers without a fractional tail when whole.
func mappingKey(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	default:
		if f, ok := toNumber(v); ok {
			if wholeNumber(f) {
				return strconv.FormatInt(int64(f), 10)
			}
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return fmt.Sprint(v)
}

// sampleRange draws from a triangular distribution peaked at the range's
// center. Integral bounds on a number property produce an integer.
func sampleRange(r rules.Range, typ taxonomy.PropertyType, rng *rand.Rand) any {
	if r.Max <= r.Min {
		return numberValue(r.Min, typ, wholeNumber(r.Min))
	}
	v := triangular(rng, r.Min, r.Max, r.Center())
	return numberValue(v, typ, wholeNumber(r.Min) && wholeNumber(r.Max))
}

func triangular(rng *rand.Rand, min, max, mode float64) float64 {
	u := rng.Float64()
	c := (mode - min) / (max - min)
	if u < c {
		return min + math.Sqrt(u*(max-min)*(mode-min))
	}
	return max - math.Sqrt((1-u)*(max-min)*(max-mode))
}

func wholeNumber(f float64) bool {
	return f == math.Trunc(f)
}

// numberValue shapes a sampled float for the declared type: integers
// where the bounds were integral, two-decimal floats otherwise, strings
// for string-typed properties that carry numeric rules.
func numberValue(v float64, typ taxonomy.PropertyType, integral bool) any {
	switch typ {
	case taxonomy.TypeString:
		if integral {
			return strconv.FormatInt(int64(math.Round(v)), 10)
		}
		return strconv.FormatFloat(round2(v), 'f', -1, 64)
	case taxonomy.TypeBool:
		return v >= 0.5
	default:
		if integral {
			return int64(math.Round(v))
		}
		return round2(v)
	}
}

// typeMatches reports whether a semantic category's output type can
// serve a property's declared type.
func typeMatches(got, want taxonomy.PropertyType) bool {
	if got == want {
		return true
	}
	// Time categories format as strings, which string properties accept.
	return got == taxonomy.TypeTime && want == taxonomy.TypeString
}

// opaqueValue is the last resort: a type-correct placeholder that keeps
// the stream well-formed when nothing else applied.
func opaqueValue(p taxonomy.Property, ctx *synthContext) any {
	switch p.Type {
	case taxonomy.TypeNumber:
		return int64(1 + ctx.rng.Intn(100))
	case taxonomy.TypeBool:
		return ctx.rng.Intn(2) == 1
	case taxonomy.TypeTime:
		return ctx.now.Format(TimeLayout)
	case taxonomy.TypeList:
		n := 1 + ctx.rng.Intn(3)
		items := make([]string, n)
		for i := range items {
			items[i] = ctx.faker.Word()
		}
		return items
	case taxonomy.TypeObject:
		return map[string]any{"value": ctx.faker.Word()}
	default:
		return fmt.Sprintf("%s_%03d", p.Name, 1+ctx.rng.Intn(999))
	}
}
