package rules

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Range bounds numeric sampling for one property. Mean is optional; a zero
// Mean with nonzero bounds is interpreted as "use the midpoint".
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean,omitempty"`
}

// Center returns the sampling center: the declared mean when it lies inside
// the bounds, otherwise the midpoint.
func (r Range) Center() float64 {
	if r.Mean > r.Min && r.Mean < r.Max {
		return r.Mean
	}
	return (r.Min + r.Max) / 2
}

// Constraint maps a dependency property's value to the allowed value set
// for the constrained property. Example: carrier depends on country, and
// mapping["KR"] lists only Korean carriers.
type Constraint struct {
	DependsOn []string         `json:"depends_on"`
	Mapping   map[string][]any `json:"mapping"`
}

// Relationship derives one property's value from another already-resolved
// property: value = dependency*Ratio + Offset, jittered by ±Jitter (a
// fraction of the computed value) and clipped to any declared value range.
type Relationship struct {
	DependsOn string  `json:"depends_on"`
	Ratio     float64 `json:"ratio"`
	Offset    float64 `json:"offset,omitempty"`
	Jitter    float64 `json:"jitter,omitempty"`
}

// SegmentProfile carries the per-segment analysis output.
type SegmentProfile struct {
	PropertyRanges     map[string]Range   `json:"property_ranges,omitempty"`
	EventSequence      []string           `json:"event_sequence,omitempty"`
	EventProbabilities map[string]float64 `json:"event_probabilities,omitempty"`
}

// UpdateOp enumerates the declarative state-mutation operations.
type UpdateOp string

const (
	OpSet       UpdateOp = "set"
	OpSetOnce   UpdateOp = "set_once"
	OpIncrement UpdateOp = "increment"
	OpDecrement UpdateOp = "decrement"
	OpAppend    UpdateOp = "append"
	OpUnset     UpdateOp = "unset"
	OpDelete    UpdateOp = "delete"
)

// UpdateRule describes one state mutation an event causes. Value may be a
// literal, or a "{{property}}" reference into the triggering event's own
// resolved properties.
type UpdateRule struct {
	Op    UpdateOp `json:"type"`
	Value any      `json:"value,omitempty"`
}

// TemplateRef returns the referenced event-property name if Value is a
// "{{name}}" template, and whether it is one.
func (r UpdateRule) TemplateRef() (string, bool) {
	s, ok := r.Value.(string)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") && len(s) > 4 {
		return strings.TrimSpace(s[2 : len(s)-2]), true
	}
	return "", false
}

// RuleSet is the immutable output of one taxonomy analysis pass.
type RuleSet struct {
	PropertyConstraints   map[string]Constraint            `json:"property_constraints,omitempty"`
	PropertyRelationships map[string]Relationship          `json:"property_relationships,omitempty"`
	ValueRanges           map[string]Range                 `json:"value_ranges,omitempty"`
	SegmentProfiles       map[string]SegmentProfile        `json:"segment_analysis,omitempty"`
	UpdatePatterns        map[string]map[string]UpdateRule `json:"update_patterns,omitempty"`
}

// Empty returns a RuleSet with no analysis sections. Every lookup misses,
// so generation runs entirely on built-in defaults.
func Empty() *RuleSet {
	return &RuleSet{}
}

// Decode parses a RuleSet JSON document section by section. A section that
// fails to decode is logged and left nil; only a document that is not a
// JSON object at all is an error.
func Decode(data []byte) (*RuleSet, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}

	rs := &RuleSet{}
	decodeSection(raw, "property_constraints", &rs.PropertyConstraints)
	decodeSection(raw, "property_relationships", &rs.PropertyRelationships)
	decodeSection(raw, "value_ranges", &rs.ValueRanges)
	decodeSection(raw, "segment_analysis", &rs.SegmentProfiles)
	decodeSection(raw, "update_patterns", &rs.UpdatePatterns)
	return rs, nil
}

func decodeSection[T any](raw map[string]json.RawMessage, key string, dst *T) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		var zero T
		*dst = zero
		slog.Warn("rule set section malformed, falling back to defaults",
			"section", key,
			"error", err,
		)
	}
}

// ConstraintFor returns the constraint declared for a property, if any.
func (rs *RuleSet) ConstraintFor(property string) (Constraint, bool) {
	c, ok := rs.PropertyConstraints[property]
	return c, ok && len(c.DependsOn) > 0 && len(c.Mapping) > 0
}

// RelationshipFor returns the relationship declared for a property, if any.
func (rs *RuleSet) RelationshipFor(property string) (Relationship, bool) {
	r, ok := rs.PropertyRelationships[property]
	return r, ok && r.DependsOn != "" && r.Ratio != 0
}

// RangeFor returns the un-segmented value range for a property, if any.
// A point range (Min == Max) is a valid declaration; only an inverted
// range is rejected.
func (rs *RuleSet) RangeFor(property string) (Range, bool) {
	r, ok := rs.ValueRanges[property]
	return r, ok && r.Max >= r.Min
}

// ProfileFor returns the analysis profile for a segment key, if any.
func (rs *RuleSet) ProfileFor(segment string) (SegmentProfile, bool) {
	p, ok := rs.SegmentProfiles[segment]
	return p, ok
}

// UpdatesFor returns the update pattern for an event. Exact name match
// wins; otherwise the lexicographically first pattern key that is a
// substring of the event name (or vice versa) matches, so "tutorial"
// covers "tutorial_step_1". The sorted scan keeps pattern selection
// deterministic when several keys could match.
func (rs *RuleSet) UpdatesFor(event string) (map[string]UpdateRule, bool) {
	if p, ok := rs.UpdatePatterns[event]; ok {
		return p, true
	}
	lower := strings.ToLower(event)
	keys := make([]string, 0, len(rs.UpdatePatterns))
	for pattern := range rs.UpdatePatterns {
		keys = append(keys, pattern)
	}
	sort.Strings(keys)
	for _, pattern := range keys {
		lp := strings.ToLower(pattern)
		if strings.Contains(lower, lp) || strings.Contains(lp, lower) {
			return rs.UpdatePatterns[pattern], true
		}
	}
	return nil, false
}
