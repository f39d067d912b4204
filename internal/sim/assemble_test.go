package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkingdata-korea/demo-data-generator/internal/rules"
	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

func assembleTestTaxonomy() *taxonomy.Taxonomy {
	return &taxonomy.Taxonomy{
		Events: []taxonomy.Event{
			{Name: "ta_app_start"},
			{Name: "view_home", Properties: []taxonomy.Property{
				{Name: "screen_load_ms", Type: taxonomy.TypeNumber},
			}},
			{Name: "battle_start", Properties: []taxonomy.Property{
				{Name: "battle_power", Type: taxonomy.TypeNumber},
			}},
		},
		CommonProperties: []taxonomy.Property{
			{Name: "server_region", Type: taxonomy.TypeString},
		},
	}
}

func assembleTestRules() *rules.RuleSet {
	return &rules.RuleSet{
		ValueRanges: map[string]rules.Range{
			"screen_load_ms": {Min: 50, Max: 900},
			"battle_power":   {Min: 100, Max: 99999},
		},
		UpdatePatterns: map[string]map[string]rules.UpdateRule{
			"battle_start": {
				"battle_count": {Op: rules.OpIncrement, Value: float64(1)},
			},
		},
	}
}

func marshalAll(t *testing.T, records []Record) []byte {
	t.Helper()
	var out []byte
	for _, rec := range records {
		line, err := rec.MarshalLine()
		require.NoError(t, err)
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

func simulateOnce(t *testing.T, seed int64) []Record {
	t.Helper()
	tax := assembleTestTaxonomy()
	users := NewPool(PoolConfig{
		Size:      5,
		StartDate: poolStart,
		Platform:  "mobile_app",
		Seed:      seed,
	})
	asm := NewAssembler(tax, assembleTestRules(), NewTypeRegistry(tax), seed, 10, "en")

	var all []Record
	for i, u := range users {
		all = append(all, asm.SimulateUser(u, i, poolStart, poolStart.AddDate(0, 0, 2))...)
	}
	return all
}

func TestSimulateUserDeterministic(t *testing.T) {
	first := simulateOnce(t, 42)
	second := simulateOnce(t, 42)
	assert.Equal(t, marshalAll(t, first), marshalAll(t, second))
}

func TestSimulateUserSeedChangesOutput(t *testing.T) {
	first := simulateOnce(t, 42)
	second := simulateOnce(t, 43)
	assert.NotEqual(t, marshalAll(t, first), marshalAll(t, second))
}

func TestSimulateUserRecordShape(t *testing.T) {
	records := simulateOnce(t, 7)
	require.NotEmpty(t, records)

	end := poolStart.AddDate(0, 0, 3)
	for _, rec := range records {
		assert.NotEmpty(t, rec.AccountID)
		assert.False(t, rec.Time.Before(poolStart), "record before range start")
		assert.False(t, rec.Time.After(end), "record past range end")

		switch rec.Type {
		case TypeTrack:
			assert.NotEmpty(t, rec.DistinctID)
			assert.NotEmpty(t, rec.EventName)
			// Every track record carries the preset device context and the
			// common properties.
			assert.Contains(t, rec.Properties, "#device_id")
			assert.Contains(t, rec.Properties, "server_region")
		case TypeUserAdd:
			assert.Equal(t, map[string]any{"battle_count": int64(1)}, rec.Properties)
		default:
			t.Fatalf("unexpected record type %s", rec.Type)
		}
	}
}

func TestSimulateUserUpdateFollowsTrigger(t *testing.T) {
	records := simulateOnce(t, 21)

	for i, rec := range records {
		if rec.Type != TypeUserAdd {
			continue
		}
		require.Greater(t, i, 0)
		trigger := records[i-1]
		assert.Equal(t, TypeTrack, trigger.Type)
		assert.Equal(t, "battle_start", trigger.EventName)
		assert.Equal(t, trigger.Time, rec.Time)
		assert.Equal(t, trigger.AccountID, rec.AccountID)
	}
}

func TestSimulateUserRespectsStageAllowlist(t *testing.T) {
	tax := assembleTestTaxonomy()
	users := NewPool(PoolConfig{
		Size:      8,
		Ratios:    map[Segment]float64{NewUser: 1},
		StartDate: poolStart,
		Platform:  "mobile_app",
		Seed:      11,
	})
	asm := NewAssembler(tax, assembleTestRules(), NewTypeRegistry(tax), 11, 10, "en")

	checked := 0
	for i, u := range users {
		join := u.JoinDate
		records := asm.SimulateUser(u, i, poolStart, poolStart.AddDate(0, 0, 2))

		// Replay the stage machine alongside the stream: every track
		// record must be legal at the stage in force when it was emitted.
		shadow := &User{Segment: NewUser}
		for _, rec := range records {
			if rec.Type != TypeTrack {
				continue
			}
			elapsed := int(dayOf(rec.Time).Sub(dayOf(join)).Hours() / 24)
			AdvanceStage(shadow, elapsed)
			assert.True(t, IsAllowed(rec.EventName, shadow.Stage),
				"%s emitted at stage %s on day %d", rec.EventName, shadow.Stage, elapsed)
			TransitionOn(shadow, rec.EventName)
			checked++
		}
	}
	require.NotZero(t, checked, "expected track records to verify")
}

func TestSimulateUserSkipsPreJoinDays(t *testing.T) {
	tax := assembleTestTaxonomy()
	u := &User{
		AccountID:   "user_future",
		DistinctIDs: []string{"device_future"},
		Segment:     PowerUser,
		Stage:       StageAdvanced,
		JoinDate:    poolStart.AddDate(0, 0, 10),
		State:       map[string]any{},
		Preset:      map[string]any{},
	}
	asm := NewAssembler(tax, rules.Empty(), NewTypeRegistry(tax), 1, 10, "en")

	records := asm.SimulateUser(u, 0, poolStart, poolStart.AddDate(0, 0, 5))
	assert.Empty(t, records)
}

func TestSimulateUserCommonPropertyPinned(t *testing.T) {
	records := simulateOnce(t, 99)

	regions := make(map[string]map[any]bool)
	for _, rec := range records {
		if rec.Type != TypeTrack {
			continue
		}
		if regions[rec.AccountID] == nil {
			regions[rec.AccountID] = make(map[any]bool)
		}
		regions[rec.AccountID][rec.Properties["server_region"]] = true
	}
	for account, seen := range regions {
		assert.Len(t, seen, 1, "server_region must stay stable for %s", account)
	}
}
