package sim

// Segment is a coarse behavioral cohort. Segments are assigned at user
// creation and never change during a run; within a segment, account
// maturity is tracked separately by the lifecycle stage.
type Segment string

const (
	NewUser       Segment = "NEW_USER"
	ActiveUser    Segment = "ACTIVE_USER"
	PowerUser     Segment = "POWER_USER"
	ChurningUser  Segment = "CHURNING_USER"
	ChurnedUser   Segment = "CHURNED_USER"
	ReturningUser Segment = "RETURNING_USER"
)

// segmentOrder fixes iteration order wherever segments are enumerated.
var segmentOrder = []Segment{
	NewUser, ActiveUser, PowerUser, ChurningUser, ChurnedUser, ReturningUser,
}

// DefaultSegmentRatios is the population mix used when the config does not
// override it.
var DefaultSegmentRatios = map[Segment]float64{
	NewUser:       0.30,
	ActiveUser:    0.40,
	PowerUser:     0.10,
	ChurningUser:  0.15,
	ChurnedUser:   0.00,
	ReturningUser: 0.05,
}

// Behavior captures the built-in per-segment behavior profile: how often
// the segment shows up, how long it stays, and how densely it emits
// events. Used directly for scheduling and as the fallback when a segment
// key is missing from the rule set's segment_analysis.
type Behavior struct {
	// SessionsPerDay is the [min,max] session count on an active day.
	SessionsPerDay [2]int
	// SessionMinutes is the [min,max] session duration.
	SessionMinutes [2]float64
	// ActivityProbability is the base chance of any activity on a day.
	ActivityProbability float64
	// Engagement scales the events-per-session estimate.
	Engagement float64
	// TimePattern names the hourly weight table for session starts.
	TimePattern string
	// ActivityDecayPerDay shrinks ActivityProbability as days elapse,
	// modelling disengagement. Zero means stable engagement.
	ActivityDecayPerDay float64
	// JoinedDaysAgo is the [min,max] days before the range start that the
	// user first appeared.
	JoinedDaysAgo [2]int
}

var segmentBehaviors = map[Segment]Behavior{
	NewUser: {
		SessionsPerDay:      [2]int{2, 5},
		SessionMinutes:      [2]float64{10, 25},
		ActivityProbability: 0.9,
		Engagement:          1.5,
		TimePattern:         "normal",
		JoinedDaysAgo:       [2]int{0, 3},
	},
	ActiveUser: {
		SessionsPerDay:      [2]int{1, 3},
		SessionMinutes:      [2]float64{5, 15},
		ActivityProbability: 0.7,
		Engagement:          1.0,
		TimePattern:         "normal",
		JoinedDaysAgo:       [2]int{7, 90},
	},
	PowerUser: {
		SessionsPerDay:      [2]int{5, 15},
		SessionMinutes:      [2]float64{20, 60},
		ActivityProbability: 0.95,
		Engagement:          2.0,
		TimePattern:         "power_user",
		JoinedDaysAgo:       [2]int{30, 180},
	},
	ChurningUser: {
		SessionsPerDay:      [2]int{0, 2},
		SessionMinutes:      [2]float64{2, 8},
		ActivityProbability: 0.3,
		Engagement:          0.5,
		TimePattern:         "normal",
		ActivityDecayPerDay: 0.05,
		JoinedDaysAgo:       [2]int{14, 60},
	},
	ChurnedUser: {
		SessionsPerDay:      [2]int{0, 1},
		SessionMinutes:      [2]float64{1, 5},
		ActivityProbability: 0.05,
		Engagement:          0.2,
		TimePattern:         "normal",
		JoinedDaysAgo:       [2]int{30, 180},
	},
	ReturningUser: {
		SessionsPerDay:      [2]int{2, 6},
		SessionMinutes:      [2]float64{10, 30},
		ActivityProbability: 0.8,
		Engagement:          1.3,
		TimePattern:         "normal",
		JoinedDaysAgo:       [2]int{60, 365},
	},
}

// BehaviorFor returns the built-in behavior profile for a segment,
// falling back to the ACTIVE_USER profile for unknown keys.
func BehaviorFor(seg Segment) Behavior {
	if b, ok := segmentBehaviors[seg]; ok {
		return b
	}
	return segmentBehaviors[ActiveUser]
}
