package sim

import (
	"math"
	"math/rand"

	"github.com/thinkingdata-korea/demo-data-generator/internal/rules"
	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

// defaultEventWeight is the selection weight for events missing from a
// segment's event_probabilities. Small but never zero, so the whole
// catalog stays reachable.
const defaultEventWeight = 0.05

// minutesPerEvent is the rough pacing estimate used to bound how many
// events fit in a session.
const minutesPerEvent = 2.5

// Sequencer produces the ordered list of event names for one session.
type Sequencer struct {
	rs           *rules.RuleSet
	catalog      []string
	eventsPerDay float64
}

// NewSequencer builds a sequencer over the taxonomy's event catalog.
// eventsPerDay is the configured average event volume per active user-day.
func NewSequencer(rs *rules.RuleSet, tax *taxonomy.Taxonomy, eventsPerDay float64) *Sequencer {
	if eventsPerDay <= 0 {
		eventsPerDay = 20
	}
	return &Sequencer{
		rs:           rs,
		catalog:      tax.EventNames(),
		eventsPerDay: eventsPerDay,
	}
}

// SelectEvents picks the events for one session.
//
// If the user's segment profile declares an event_sequence, the sequence
// is consumed as an ordered template from the user's persisted position,
// filtered by the lifecycle allow-list; the position survives across
// sessions and wraps when the template is exhausted. Otherwise (or when
// the template cannot fill the session) selection falls back to weighted
// random draws over the events legal at the user's current stage.
func (s *Sequencer) SelectEvents(u *User, sess Session, sessionsToday int, rng *rand.Rand) []string {
	count := s.sessionEventCount(u, sess, sessionsToday)
	if count == 0 {
		return nil
	}

	events := make([]string, 0, count)
	if profile, ok := s.rs.ProfileFor(string(u.Segment)); ok && len(profile.EventSequence) > 0 {
		events = s.consumeSequence(u, profile.EventSequence, count)
	}
	if len(events) < count {
		events = append(events, s.weightedDraws(u, count-len(events), rng)...)
	}
	return events
}

// sessionEventCount apportions the daily event budget across the day's
// sessions, scaled by the segment's engagement and capped by what fits
// in the session window.
func (s *Sequencer) sessionEventCount(u *User, sess Session, sessionsToday int) int {
	if sessionsToday < 1 {
		sessionsToday = 1
	}
	behavior := BehaviorFor(u.Segment)
	count := int(math.Round(s.eventsPerDay / float64(sessionsToday) * behavior.Engagement))

	if limit := int(sess.Minutes() / minutesPerEvent); count > limit {
		count = limit
	}
	if count < 1 {
		count = 1
	}
	return count
}

// consumeSequence takes up to n allowed events from the segment's
// declared sequence, advancing the user's cursor. The cursor moves past
// entries that are illegal at the current stage (they will recur on the
// next wrap, by which time the stage may have advanced), and makes at
// most one full pass per session.
func (s *Sequencer) consumeSequence(u *User, sequence []string, n int) []string {
	out := make([]string, 0, n)
	for scanned := 0; scanned < len(sequence) && len(out) < n; scanned++ {
		name := sequence[u.SequencePos%len(sequence)]
		u.SequencePos = (u.SequencePos + 1) % len(sequence)
		if IsAllowed(name, u.Stage) {
			out = append(out, name)
		}
	}
	return out
}

// weightedDraws samples n events (with replacement) from the stage-legal
// catalog, weighted by the segment's event_probabilities.
func (s *Sequencer) weightedDraws(u *User, n int, rng *rand.Rand) []string {
	var probs map[string]float64
	if profile, ok := s.rs.ProfileFor(string(u.Segment)); ok {
		probs = profile.EventProbabilities
	}

	legal := make([]string, 0, len(s.catalog))
	weights := make([]float64, 0, len(s.catalog))
	total := 0.0
	for _, name := range s.catalog {
		if !IsAllowed(name, u.Stage) {
			continue
		}
		w := defaultEventWeight
		if p, ok := probs[name]; ok && p > 0 {
			w = p
		}
		legal = append(legal, name)
		weights = append(weights, w)
		total += w
	}
	if len(legal) == 0 {
		return nil
	}

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		r := rng.Float64() * total
		pick := len(legal) - 1
		for j, w := range weights {
			r -= w
			if r < 0 {
				pick = j
				break
			}
		}
		out = append(out, legal[pick])
	}
	return out
}
