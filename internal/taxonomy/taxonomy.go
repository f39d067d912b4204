package taxonomy

import (
	"fmt"
)

// PropertyType enumerates the value types ThinkingEngine accepts.
type PropertyType string

const (
	TypeString PropertyType = "string"
	TypeNumber PropertyType = "number"
	TypeBool   PropertyType = "boolean"
	TypeTime   PropertyType = "time"
	TypeList   PropertyType = "list"
	TypeObject PropertyType = "object"
)

// UpdateMethod is the declared write mode for a user profile property.
type UpdateMethod string

const (
	UserSet        UpdateMethod = "user_set"
	UserSetOnce    UpdateMethod = "user_set_once"
	UserAdd        UpdateMethod = "user_add"
	UserAppend     UpdateMethod = "user_append"
	UserUniqAppend UpdateMethod = "user_uniq_append"
	UserUnset      UpdateMethod = "user_unset"
	UserDel        UpdateMethod = "user_del"
)

// Property is a single declared property schema.
type Property struct {
	Name        string       `yaml:"name"`
	Alias       string       `yaml:"alias,omitempty"`
	Type        PropertyType `yaml:"type"`
	Description string       `yaml:"description,omitempty"`
}

// UserProperty is a user-profile property with its declared update mode.
type UserProperty struct {
	Property     `yaml:",inline"`
	UpdateMethod UpdateMethod `yaml:"update_method,omitempty"`
	Tag          string       `yaml:"tag,omitempty"`
}

// Event is one declared event with its event-specific properties.
type Event struct {
	Name        string     `yaml:"name"`
	Alias       string     `yaml:"alias,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Tag         string     `yaml:"tag,omitempty"`
	Properties  []Property `yaml:"properties,omitempty"`
}

// Taxonomy is the complete tracking plan for one product.
//
// Events and the two property lists preserve declaration order. Declaration
// order matters: the resolver breaks dependency cycles in declared order,
// and the content hash must be order-insensitive, so both concerns are
// handled explicitly rather than by map iteration.
type Taxonomy struct {
	Events           []Event        `yaml:"events"`
	CommonProperties []Property     `yaml:"common_properties,omitempty"`
	UserProperties   []UserProperty `yaml:"user_properties,omitempty"`
}

// EventByName returns the event with the given name, or nil.
func (t *Taxonomy) EventByName(name string) *Event {
	for i := range t.Events {
		if t.Events[i].Name == name {
			return &t.Events[i]
		}
	}
	return nil
}

// EventNames returns all event names in declaration order.
func (t *Taxonomy) EventNames() []string {
	names := make([]string, len(t.Events))
	for i, ev := range t.Events {
		names[i] = ev.Name
	}
	return names
}

// PropertyTypeOf reports the declared type of a property name, searching
// event-specific, common, and user property lists in that order.
func (t *Taxonomy) PropertyTypeOf(name string) (PropertyType, bool) {
	for _, ev := range t.Events {
		for _, p := range ev.Properties {
			if p.Name == name {
				return p.Type, true
			}
		}
	}
	for _, p := range t.CommonProperties {
		if p.Name == name {
			return p.Type, true
		}
	}
	for _, p := range t.UserProperties {
		if p.Name == name {
			return p.Type, true
		}
	}
	return "", false
}

// Validate checks that the taxonomy is usable for simulation.
//
// An empty taxonomy (no events or no properties at all) is the only setup
// error the core treats as fatal; everything downstream degrades locally.
func (t *Taxonomy) Validate() error {
	if len(t.Events) == 0 {
		return fmt.Errorf("taxonomy declares no events")
	}
	seen := make(map[string]bool, len(t.Events))
	for _, ev := range t.Events {
		if ev.Name == "" {
			return fmt.Errorf("taxonomy contains an event with an empty name")
		}
		if seen[ev.Name] {
			return fmt.Errorf("duplicate event name %q", ev.Name)
		}
		seen[ev.Name] = true
	}
	return nil
}
