package sim

import (
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/thinkingdata-korea/demo-data-generator/internal/rules"
	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

// Assembler turns one user into their full record timeline. It owns no
// mutable state of its own; all mutation happens on the user, so one
// assembler is safely shared across workers.
type Assembler struct {
	tax       *taxonomy.Taxonomy
	rs        *rules.RuleSet
	scheduler Scheduler
	sequencer *Sequencer
	resolver  *Resolver
	updates   *UpdateEngine
	runSeed   int64
}

// NewAssembler wires the per-user pipeline.
func NewAssembler(tax *taxonomy.Taxonomy, rs *rules.RuleSet, types *TypeRegistry, runSeed int64, eventsPerDay float64, locale string) *Assembler {
	return &Assembler{
		tax:       tax,
		rs:        rs,
		sequencer: NewSequencer(rs, tax, eventsPerDay),
		resolver:  NewResolver(rs, types, locale),
		updates:   NewUpdateEngine(),
		runSeed:   runSeed,
	}
}

// SimulateUser produces every record the user emits across [start, end]
// (both inclusive, whole days). Deterministic given (runSeed, user):
// all draws come from a PRNG derived from the run seed and the user's
// account identity, never from shared state.
func (a *Assembler) SimulateUser(u *User, userIdx int, start, end time.Time) []Record {
	rng := newRand(UserSeed(a.runSeed, u.AccountID))
	faker := gofakeit.New(UserSeed(a.runSeed, u.AccountID))

	var records []Record
	seq := 0
	emit := func(r Record) {
		r.userIdx = userIdx
		r.seq = seq
		seq++
		records = append(records, r)
	}

	joinDay := dayOf(u.JoinDate)
	for day := dayOf(start); !day.After(dayOf(end)); day = day.AddDate(0, 0, 1) {
		if u.Deleted {
			break
		}
		if day.Before(joinDay) {
			continue
		}
		elapsed := int(day.Sub(joinDay).Hours() / 24)
		AdvanceStage(u, elapsed)
		u.State["days_since_install"] = int64(elapsed)

		sessions := a.scheduler.DailySessions(u, day, rng)
		for _, sess := range sessions {
			a.simulateSession(u, sess, len(sessions), rng, faker, emit)
			if u.Deleted {
				break
			}
		}
	}
	return records
}

func (a *Assembler) simulateSession(u *User, sess Session, sessionsToday int, rng *rand.Rand, faker *gofakeit.Faker, emit func(Record)) {
	names := a.sequencer.SelectEvents(u, sess, sessionsToday, rng)
	if len(names) == 0 {
		return
	}
	u.State["session_count"] = int64(u.StateNumber("session_count", 0)) + 1

	times := spreadTimes(sess, len(names), rng)
	for i, name := range names {
		if u.Deleted {
			return
		}
		ev := a.tax.EventByName(name)
		if ev == nil {
			continue
		}
		// The stage may have advanced mid-session; re-check at emission.
		if !IsAllowed(name, u.Stage) {
			continue
		}

		event := EventRecord{
			Name:       name,
			Time:       times[i],
			Properties: a.eventProperties(u, ev, times[i], rng, faker),
		}
		emit(Record{
			Type:       TypeTrack,
			AccountID:  u.AccountID,
			DistinctID: u.DistinctID(),
			EventName:  event.Name,
			Time:       event.Time,
			Properties: event.Properties,
		})
		TransitionOn(u, name)

		if pattern, ok := a.rs.UpdatesFor(name); ok {
			if typ, payload, changed := a.updates.Apply(u, event, pattern); changed {
				emit(Record{
					Type:       typ,
					AccountID:  u.AccountID,
					Time:       event.Time,
					Properties: payload,
				})
			}
		}
	}
}

// eventProperties builds the track record's property block: presets,
// then common properties (resolved once and then pinned in user state),
// then the event's own properties resolved fresh per occurrence.
func (a *Assembler) eventProperties(u *User, ev *taxonomy.Event, at time.Time, rng *rand.Rand, faker *gofakeit.Faker) map[string]any {
	props := make(map[string]any, len(u.Preset)+len(a.tax.CommonProperties)+len(ev.Properties))
	for k, v := range u.Preset {
		props[k] = v
	}

	var missing []taxonomy.Property
	for _, p := range a.tax.CommonProperties {
		if v, ok := u.StateValue(p.Name); ok {
			props[p.Name] = v
		} else {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		for name, v := range a.resolver.ResolveEvent(u, missing, at, rng, faker) {
			u.State[name] = v
			props[name] = v
		}
	}

	for name, v := range a.resolver.ResolveEvent(u, ev.Properties, at, rng, faker) {
		props[name] = v
	}
	return props
}

// spreadTimes places n event timestamps inside a session: even slots
// with per-event jitter, strictly increasing, clamped to the window.
func spreadTimes(sess Session, n int, rng *rand.Rand) []time.Time {
	out := make([]time.Time, n)
	slot := sess.End.Sub(sess.Start) / time.Duration(n)
	prev := sess.Start
	for i := range out {
		t := sess.Start.Add(time.Duration(i)*slot +
			time.Duration(rng.Int63n(int64(slot)+1)))
		if !t.After(prev) {
			t = prev.Add(time.Millisecond)
		}
		if t.After(sess.End) {
			t = sess.End
		}
		out[i] = t
		prev = t
	}
	return out
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
