package sim

import (
	"math/rand"
	"time"
)

// Session is one contiguous window of user activity within a day.
// Ephemeral: produced and consumed inside a single simulated day.
type Session struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the session duration in minutes.
func (s Session) Minutes() float64 {
	return s.End.Sub(s.Start).Minutes()
}

// hourlyWeights maps a time-pattern name to 24 relative weights for
// session start hours. Shapes follow observed product traffic: commute
// and evening peaks for most users, flatter curves for heavy users.
var hourlyWeights = map[string][24]float64{
	"normal": {
		0.5, 0.3, 0.2, 0.1, 0.1, 0.2,
		1.0, 3.0, 5.5, 6.0, 5.5, 5.0,
		6.5, 5.0, 4.5, 4.0, 4.0, 5.0,
		7.0, 8.5, 9.0, 8.5, 6.5, 3.0,
	},
	"power_user": {
		1.5, 1.0, 0.5, 0.3, 0.3, 0.5,
		2.0, 4.0, 6.0, 6.5, 6.0, 5.5,
		6.0, 5.5, 5.0, 5.0, 5.0, 5.5,
		6.5, 7.5, 8.5, 8.0, 6.5, 4.5,
	},
	"night_owl": {
		5.0, 4.5, 4.0, 3.0, 2.0, 1.5,
		1.0, 1.5, 2.0, 2.5, 3.0, 3.5,
		4.0, 4.0, 4.0, 4.5, 5.0, 5.5,
		6.5, 7.5, 8.5, 9.0, 8.5, 7.0,
	},
	"morning_person": {
		0.5, 0.2, 0.1, 0.1, 0.2, 1.0,
		4.0, 8.0, 9.5, 8.5, 7.5, 6.5,
		6.0, 5.0, 4.5, 4.0, 4.0, 4.5,
		5.5, 6.0, 5.5, 4.5, 3.0, 1.5,
	},
}

// weekdayMultipliers modulates daily activity by day of week
// (time.Weekday: Sunday = 0).
var weekdayMultipliers = [7]float64{
	1.15, // Sunday
	0.9,  // Monday
	1.0,  // Tuesday
	1.0,  // Wednesday
	1.0,  // Thursday
	1.1,  // Friday
	1.2,  // Saturday
}

// Scheduler decides, per user per calendar day, whether the user is
// active and what the session windows are. Pure given (user, day, rng).
type Scheduler struct{}

// DailySessions returns the user's session windows for one calendar day,
// or nil when the user stays inactive. Sessions never overlap; colliding
// draws are nudged to the next free slot.
func (Scheduler) DailySessions(u *User, day time.Time, rng *rand.Rand) []Session {
	behavior := BehaviorFor(u.Segment)

	p := behavior.ActivityProbability
	if behavior.ActivityDecayPerDay > 0 {
		elapsed := day.Sub(u.JoinDate).Hours() / 24
		if elapsed > 0 {
			p /= 1 + behavior.ActivityDecayPerDay*elapsed
		}
	}
	p *= weekdayMultipliers[int(day.Weekday())]
	if p > 1 {
		p = 1
	}
	if rng.Float64() >= p {
		return nil
	}

	count := behavior.SessionsPerDay[0]
	if span := behavior.SessionsPerDay[1] - behavior.SessionsPerDay[0]; span > 0 {
		count += rng.Intn(span + 1)
	}
	if count <= 0 {
		return nil
	}

	weights, ok := hourlyWeights[behavior.TimePattern]
	if !ok {
		weights = hourlyWeights["normal"]
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	sessions := make([]Session, 0, count)
	for i := 0; i < count; i++ {
		hour := drawHour(weights, rng)
		start := midnight.Add(
			time.Duration(hour)*time.Hour +
				time.Duration(rng.Intn(60))*time.Minute +
				time.Duration(rng.Intn(60))*time.Second)

		minutes := behavior.SessionMinutes[0] +
			rng.Float64()*(behavior.SessionMinutes[1]-behavior.SessionMinutes[0])
		// ±30% duration variance around the drawn length.
		minutes *= 0.7 + rng.Float64()*0.6
		sessions = append(sessions, Session{
			Start: start,
			End:   start.Add(time.Duration(minutes * float64(time.Minute))),
		})
	}

	return resolveOverlaps(sessions, midnight.Add(24*time.Hour))
}

func drawHour(weights [24]float64, rng *rand.Rand) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for h, w := range weights {
		r -= w
		if r < 0 {
			return h
		}
	}
	return 23
}

// resolveOverlaps sorts sessions by start and pushes any session that
// begins inside its predecessor to one minute past the predecessor's
// end. Sessions that would spill past midnight are clamped to the day
// boundary and dropped if nothing remains.
func resolveOverlaps(sessions []Session, dayEnd time.Time) []Session {
	sortSessions(sessions)
	out := sessions[:0]
	var prevEnd time.Time
	for _, s := range sessions {
		if !prevEnd.IsZero() && s.Start.Before(prevEnd) {
			d := s.End.Sub(s.Start)
			s.Start = prevEnd.Add(time.Minute)
			s.End = s.Start.Add(d)
		}
		if !s.Start.Before(dayEnd) {
			continue
		}
		if s.End.After(dayEnd) {
			s.End = dayEnd
		}
		if !s.End.After(s.Start) {
			continue
		}
		out = append(out, s)
		prevEnd = s.End
	}
	return out
}

func sortSessions(sessions []Session) {
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && sessions[j].Start.Before(sessions[j-1].Start); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
}
