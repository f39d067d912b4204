package sim

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalLineTrackRecord(t *testing.T) {
	rec := Record{
		Type:       TypeTrack,
		AccountID:  "user_0000000000000001",
		DistinctID: "device_0000000000000001",
		EventName:  "app_install",
		Time:       time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC),
		Properties: map[string]any{
			"#country_code": "KR",
			"level":         int64(3),
		},
	}

	line, err := rec.MarshalLine()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "track_record", line)
}

func TestMarshalLineUserRecord(t *testing.T) {
	rec := Record{
		Type:      TypeUserAdd,
		AccountID: "user_0000000000000001",
		Time:      time.Date(2025, 7, 1, 9, 30, 0, 500_000_000, time.UTC),
		Properties: map[string]any{
			"total_spent": int64(1000),
			"gold":        int64(-500),
		},
	}

	line, err := rec.MarshalLine()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "user_add_record", line)
}

func TestMarshalLineUserRecordOmitsDeviceIdentity(t *testing.T) {
	rec := Record{
		Type:       TypeUserSet,
		AccountID:  "acc",
		DistinctID: "dev",
		EventName:  "should_not_appear",
		Time:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Properties: map[string]any{"vip_level": int64(2)},
	}

	line, err := rec.MarshalLine()
	require.NoError(t, err)
	assert.NotContains(t, string(line), "#distinct_id")
	assert.NotContains(t, string(line), "#event_name")
	assert.Contains(t, string(line), `"#account_id":"acc"`)
}

func TestMarshalLineNilProperties(t *testing.T) {
	rec := Record{
		Type:      TypeUserDel,
		AccountID: "acc",
		Time:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	line, err := rec.MarshalLine()
	require.NoError(t, err)
	assert.Contains(t, string(line), `"properties":{}`)
}

func TestTimeLayoutMillisecondPrecision(t *testing.T) {
	ts := time.Date(2025, 7, 1, 23, 59, 59, 987_000_000, time.UTC)
	assert.Equal(t, "2025-07-01 23:59:59.987", ts.Format(TimeLayout))
}
