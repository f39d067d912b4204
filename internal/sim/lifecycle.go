package sim

import "strings"

// Stage is a user's account-maturity phase. Stages only ever advance
// within a run; there is no regression path.
type Stage int

const (
	StageInstalled Stage = iota
	StageFirstSession
	StageRegistered
	StageOnboardingStarted
	StageOnboardingCompleted
	StageActive
	StageAdvanced
)

var stageNames = [...]string{
	"installed",
	"first_session",
	"registered",
	"onboarding_started",
	"onboarding_completed",
	"active",
	"advanced",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// stageAllowlist maps each stage to its allowed event-name patterns. A
// pattern is either an exact name, a prefix with a single trailing '*',
// or the universal "*". Events not matching any pattern are illegal at
// that stage.
var stageAllowlist = map[Stage][]string{
	StageInstalled: {
		"app_install",
		"ta_app_start",
		"ta_app_*",
	},
	StageFirstSession: {
		"ta_app_*",
		"app_*",
		"signup",
		"register",
		"login",
		"onboarding_*",
		"tutorial_*",
		"intro_*",
	},
	StageRegistered: {
		"ta_app_*",
		"app_*",
		"login",
		"logout",
		"onboarding_*",
		"tutorial_*",
		"intro_*",
		"guide_*",
		"beginner_*",
		"purchase*",
		"view_*",
	},
	StageOnboardingStarted: {
		"ta_app_*",
		"app_*",
		"onboarding_*",
		"tutorial_*",
		"intro_*",
		"guide_*",
		"beginner_*",
	},
	StageOnboardingCompleted: {"*"},
	StageActive:              {"*"},
	StageAdvanced:            {"*"},
}

// IsAllowed reports whether an event is legal at a lifecycle stage,
// using prefix matching against the stage's pattern list.
func IsAllowed(event string, stage Stage) bool {
	for _, pattern := range stageAllowlist[stage] {
		if matchPattern(event, pattern) {
			return true
		}
	}
	return false
}

// matchPattern implements the restricted glob: "*" matches everything, a
// single trailing '*' makes the rest a prefix, anything else is exact.
func matchPattern(event, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(event, prefix)
	}
	return event == pattern
}

// stageThreshold is the elapsed-days schedule for one segment: entry i
// holds the minimum elapsed days since join for stage i. A negative entry
// means the segment never reaches that stage by time alone.
type stageThreshold [StageAdvanced + 1]int

var stageThresholds = map[Segment]stageThreshold{
	// New users walk the whole funnel over their first week.
	NewUser: {0, 0, 1, 1, 2, 4, -1},
	// Established segments joined long before the range; they matured on
	// a compressed schedule and reach ACTIVE quickly.
	ActiveUser:    {0, 0, 0, 0, 1, 2, 45},
	PowerUser:     {0, 0, 0, 0, 0, 0, 14},
	ChurningUser:  {0, 0, 0, 0, 1, 2, -1},
	ChurnedUser:   {0, 0, 0, 0, 1, 2, -1},
	ReturningUser: {0, 0, 0, 0, 0, 0, 30},
}

// initialStage seeds a user's stage at creation. Mature segments start
// past the funnel; only genuinely new users begin at INSTALLED.
func initialStage(seg Segment) Stage {
	switch seg {
	case NewUser:
		return StageInstalled
	case PowerUser:
		return StageAdvanced
	case ReturningUser:
		return StageActive
	default:
		return StageActive
	}
}

// StageFor returns the stage a segment has reached after elapsedDays
// since join, before considering event-driven transitions.
func StageFor(seg Segment, elapsedDays int) Stage {
	thresholds, ok := stageThresholds[seg]
	if !ok {
		thresholds = stageThresholds[ActiveUser]
	}
	stage := StageInstalled
	for s := StageInstalled; s <= StageAdvanced; s++ {
		min := thresholds[s]
		if min >= 0 && elapsedDays >= min {
			stage = s
		}
	}
	return stage
}

// AdvanceStage moves a user's stage forward to match elapsed time since
// join. The stage never regresses: an event-driven transition that ran
// ahead of the schedule stays where it is.
func AdvanceStage(u *User, elapsedDays int) {
	if s := StageFor(u.Segment, elapsedDays); s > u.Stage {
		u.Stage = s
	}
	if init := initialStage(u.Segment); init > u.Stage {
		u.Stage = init
	}
}

// stageTransitions maps event-name patterns to the stage the event pushes
// a user into, evaluated in order. Emitting signup while in FIRST_SESSION
// advances to REGISTERED immediately rather than waiting out the day
// threshold.
var stageTransitions = []struct {
	pattern string
	to      Stage
}{
	{"ta_app_start", StageFirstSession},
	{"signup", StageRegistered},
	{"register", StageRegistered},
	{"login", StageRegistered},
	{"onboarding_start", StageOnboardingStarted},
	{"tutorial_start", StageOnboardingStarted},
	{"tutorial_begin", StageOnboardingStarted},
	{"onboarding_complete*", StageOnboardingCompleted},
	{"tutorial_complete*", StageOnboardingCompleted},
	{"tutorial_finish*", StageOnboardingCompleted},
}

// TransitionOn applies any event-driven stage advancement. Returns true
// if the stage changed.
func TransitionOn(u *User, event string) bool {
	for _, t := range stageTransitions {
		if matchPattern(event, t.pattern) && t.to > u.Stage {
			u.Stage = t.to
			return true
		}
	}
	return false
}
