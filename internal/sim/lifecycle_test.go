package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		event   string
		stage   Stage
		allowed bool
	}{
		{"app_install", StageInstalled, true},
		{"ta_app_start", StageInstalled, true},
		{"ta_app_end", StageInstalled, true},
		{"purchase_gem_pack", StageInstalled, false},
		{"signup", StageInstalled, false},
		{"signup", StageFirstSession, true},
		{"purchase_gem_pack", StageRegistered, true},
		{"view_shop", StageRegistered, true},
		{"guild_join", StageRegistered, false},
		{"tutorial_step", StageOnboardingStarted, true},
		{"purchase_gem_pack", StageOnboardingStarted, false},
		{"guild_join", StageOnboardingCompleted, true},
		{"anything_at_all", StageActive, true},
		{"anything_at_all", StageAdvanced, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, IsAllowed(tt.event, tt.stage),
			"event %s at stage %s", tt.event, tt.stage)
	}
}

func TestMatchPattern(t *testing.T) {
	assert.True(t, matchPattern("anything", "*"))
	assert.True(t, matchPattern("tutorial_step_3", "tutorial_*"))
	assert.True(t, matchPattern("login", "login"))
	assert.False(t, matchPattern("relogin", "login"))
	assert.False(t, matchPattern("tutoria", "tutorial_*"))
}

func TestStageForSchedule(t *testing.T) {
	// New users walk the funnel day by day and never reach ADVANCED by
	// time alone.
	assert.Equal(t, StageFirstSession, StageFor(NewUser, 0))
	assert.Equal(t, StageOnboardingStarted, StageFor(NewUser, 1))
	assert.Equal(t, StageOnboardingCompleted, StageFor(NewUser, 2))
	assert.Equal(t, StageActive, StageFor(NewUser, 4))
	assert.Equal(t, StageActive, StageFor(NewUser, 365))

	assert.Equal(t, StageAdvanced, StageFor(PowerUser, 14))
	assert.Equal(t, StageAdvanced, StageFor(ActiveUser, 45))
	assert.Equal(t, StageActive, StageFor(ActiveUser, 44))

	// Unknown segments borrow the ACTIVE_USER schedule.
	assert.Equal(t, StageFor(ActiveUser, 10), StageFor(Segment("MYSTERY"), 10))
}

func TestAdvanceStageMonotonic(t *testing.T) {
	u := &User{Segment: NewUser, Stage: StageInstalled}

	AdvanceStage(u, 2)
	assert.Equal(t, StageOnboardingCompleted, u.Stage)

	// An event-driven transition that ran ahead never regresses.
	u.Stage = StageActive
	AdvanceStage(u, 2)
	assert.Equal(t, StageActive, u.Stage)
}

func TestAdvanceStageRespectsInitialStage(t *testing.T) {
	u := &User{Segment: PowerUser, Stage: StageInstalled}
	AdvanceStage(u, 0)
	assert.Equal(t, StageAdvanced, u.Stage)
}

func TestTransitionOn(t *testing.T) {
	u := &User{Segment: NewUser, Stage: StageFirstSession}

	assert.True(t, TransitionOn(u, "signup"))
	assert.Equal(t, StageRegistered, u.Stage)

	// Already there: no change.
	assert.False(t, TransitionOn(u, "login"))

	assert.True(t, TransitionOn(u, "tutorial_complete_all"))
	assert.Equal(t, StageOnboardingCompleted, u.Stage)

	// Transitions never regress.
	u.Stage = StageActive
	assert.False(t, TransitionOn(u, "ta_app_start"))
	assert.Equal(t, StageActive, u.Stage)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "installed", StageInstalled.String())
	assert.Equal(t, "advanced", StageAdvanced.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
