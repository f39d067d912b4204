package sim

import (
	"log/slog"
	"sort"

	"github.com/thinkingdata-korea/demo-data-generator/internal/rules"
)

// maxListLength caps append-target lists in user state; the oldest
// element is evicted first.
const maxListLength = 20

// UpdateEngine applies an event's update pattern to a user's profile
// state and folds the mutations into a single state-update record.
//
// Folding picks the record type from the operation mix: a homogeneous
// mix keeps its native type (increments become user_add, set_once
// becomes user_set_once, and so on), a heterogeneous mix materializes
// final values into one user_set, and a delete wins over everything.
// State is always mutated to match, so the profile snapshot stamped on
// later events agrees with the update stream.
type UpdateEngine struct {
	// FloorCounters clamps decremented counters at zero, adjusting the
	// emitted delta so replaying the stream yields the same state.
	FloorCounters bool
}

// NewUpdateEngine returns an engine with counter flooring on.
func NewUpdateEngine() *UpdateEngine {
	return &UpdateEngine{FloorCounters: true}
}

// Apply runs one event's update rules against the user. It returns the
// folded record type and payload; ok is false when the event mutates
// nothing.
func (e *UpdateEngine) Apply(u *User, ev EventRecord, pattern map[string]rules.UpdateRule) (string, map[string]any, bool) {
	if len(pattern) == 0 || u.Deleted {
		return "", nil, false
	}

	names := make([]string, 0, len(pattern))
	for name := range pattern {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if pattern[name].Op == rules.OpDelete {
			u.Deleted = true
			u.State = map[string]any{}
			return TypeUserDel, map[string]any{}, true
		}
	}

	var typ string
	var payload map[string]any
	kinds := opKinds(pattern)
	switch {
	case kinds == kindAdd:
		typ, payload = TypeUserAdd, e.applyAdds(u, ev, pattern, names)
	case kinds == kindSetOnce:
		typ, payload = TypeUserSetOnce, e.applySetOnce(u, ev, pattern, names)
	case kinds == kindUnset:
		typ, payload = TypeUserUnset, e.applyUnsets(u, pattern, names)
	case kinds == kindAppend:
		typ, payload = TypeUserAppend, e.applyAppends(u, ev, pattern, names)
	default:
		typ, payload = TypeUserSet, e.applyMixed(u, ev, pattern, names)
	}
	// The payload is exactly the set of changed properties; an event
	// whose rules all turned out to be no-ops emits no record.
	if len(payload) == 0 {
		return "", nil, false
	}
	return typ, payload, true
}

type opKind int

const (
	kindSet opKind = 1 << iota
	kindSetOnce
	kindAdd
	kindAppend
	kindUnset
)

func opKinds(pattern map[string]rules.UpdateRule) opKind {
	var kinds opKind
	for _, rule := range pattern {
		switch rule.Op {
		case rules.OpIncrement, rules.OpDecrement:
			kinds |= kindAdd
		case rules.OpSetOnce:
			kinds |= kindSetOnce
		case rules.OpAppend:
			kinds |= kindAppend
		case rules.OpUnset:
			kinds |= kindUnset
		default:
			kinds |= kindSet
		}
	}
	return kinds
}

// applyAdds accumulates numeric deltas. The emitted delta is clamped
// when flooring would stop the counter at zero, keeping the stream
// replayable.
func (e *UpdateEngine) applyAdds(u *User, ev EventRecord, pattern map[string]rules.UpdateRule, names []string) map[string]any {
	payload := make(map[string]any, len(names))
	for _, name := range names {
		rule := pattern[name]
		delta, ok := toNumber(e.resolveValue(ev, rule))
		if !ok {
			slog.Warn("non-numeric delta in update pattern",
				"event", ev.Name, "property", name)
			continue
		}
		if rule.Op == rules.OpDecrement {
			delta = -delta
		}
		current := u.StateNumber(name, 0)
		next := current + delta
		if e.FloorCounters && next < 0 {
			next = 0
			delta = -current
		}
		u.State[name] = storeNumber(next)
		payload[name] = storeNumber(delta)
	}
	return payload
}

// applySetOnce writes only properties that are still absent; targets
// that already hold a value stay out of the payload.
func (e *UpdateEngine) applySetOnce(u *User, ev EventRecord, pattern map[string]rules.UpdateRule, names []string) map[string]any {
	payload := make(map[string]any, len(names))
	for _, name := range names {
		if _, set := u.StateValue(name); set {
			continue
		}
		v := e.resolveValue(ev, pattern[name])
		u.State[name] = v
		payload[name] = v
	}
	return payload
}

// applyUnsets removes properties that are actually present; unsetting
// an absent property changes nothing and emits nothing.
func (e *UpdateEngine) applyUnsets(u *User, pattern map[string]rules.UpdateRule, names []string) map[string]any {
	payload := make(map[string]any, len(names))
	for _, name := range names {
		if _, present := u.State[name]; !present {
			continue
		}
		delete(u.State, name)
		payload[name] = int64(0)
	}
	return payload
}

func (e *UpdateEngine) applyAppends(u *User, ev EventRecord, pattern map[string]rules.UpdateRule, names []string) map[string]any {
	payload := make(map[string]any, len(names))
	for _, name := range names {
		v := e.resolveValue(ev, pattern[name])
		items, ok := v.([]any)
		if !ok {
			items = []any{v}
		}
		current, _ := u.State[name].([]any)
		current = append(current, items...)
		if len(current) > maxListLength {
			current = current[len(current)-maxListLength:]
		}
		u.State[name] = current
		payload[name] = items
	}
	return payload
}

// applyMixed materializes every mutation into the state first and emits
// the final values as one user_set.
func (e *UpdateEngine) applyMixed(u *User, ev EventRecord, pattern map[string]rules.UpdateRule, names []string) map[string]any {
	payload := make(map[string]any, len(names))
	for _, name := range names {
		rule := pattern[name]
		switch rule.Op {
		case rules.OpIncrement, rules.OpDecrement:
			delta, ok := toNumber(e.resolveValue(ev, rule))
			if !ok {
				continue
			}
			if rule.Op == rules.OpDecrement {
				delta = -delta
			}
			next := u.StateNumber(name, 0) + delta
			if e.FloorCounters && next < 0 {
				next = 0
			}
			u.State[name] = storeNumber(next)
			payload[name] = u.State[name]
		case rules.OpSetOnce:
			if _, set := u.StateValue(name); !set {
				u.State[name] = e.resolveValue(ev, rule)
			}
			payload[name] = u.State[name]
		case rules.OpUnset:
			delete(u.State, name)
			payload[name] = nil
		case rules.OpAppend:
			v := e.resolveValue(ev, rule)
			items, ok := v.([]any)
			if !ok {
				items = []any{v}
			}
			current, _ := u.State[name].([]any)
			current = append(current, items...)
			if len(current) > maxListLength {
				current = current[len(current)-maxListLength:]
			}
			u.State[name] = current
			payload[name] = current
		default:
			v := e.resolveValue(ev, rule)
			u.State[name] = v
			payload[name] = v
		}
	}
	return payload
}

// resolveValue materializes a rule's value, dereferencing "{{property}}"
// templates against the triggering event's resolved properties. An
// unresolvable reference degrades to zero so generation keeps going.
func (e *UpdateEngine) resolveValue(ev EventRecord, rule rules.UpdateRule) any {
	ref, ok := rule.TemplateRef()
	if !ok {
		return rule.Value
	}
	if v, found := ev.Properties[ref]; found && v != nil {
		return v
	}
	slog.Warn("unresolvable template reference in update pattern",
		"event", ev.Name, "ref", ref)
	return int64(0)
}

// storeNumber keeps counters integral when they are whole, matching how
// the canonical encoder renders them.
func storeNumber(f float64) any {
	if wholeNumber(f) {
		return int64(f)
	}
	return round2(f)
}
