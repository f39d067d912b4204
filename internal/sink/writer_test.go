package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkingdata-korea/demo-data-generator/internal/sim"
)

func testRecord(day int, hour int, typ string) sim.Record {
	rec := sim.Record{
		Type:      typ,
		AccountID: "user_1",
		Time:      time.Date(2025, 7, day, hour, 0, 0, 0, time.UTC),
		Properties: map[string]any{
			"level": int64(3),
		},
	}
	if typ == sim.TypeTrack {
		rec.DistinctID = "device_1"
		rec.EventName = "view_home"
	}
	return rec
}

func TestWriterSplitsByDay(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	records := []sim.Record{
		testRecord(1, 9, sim.TypeTrack),
		testRecord(1, 10, sim.TypeUserAdd),
		testRecord(2, 8, sim.TypeTrack),
	}
	require.NoError(t, w.WriteAll(records))
	require.NoError(t, w.Close())

	assert.Equal(t, []string{"2025-07-01", "2025-07-02"}, w.Files())

	first, err := os.ReadFile(filepath.Join(dir, "logs_2025-07-01.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(first), "\n"), "\n")
	require.Len(t, lines, 2)

	// Every line is a standalone JSON object with the envelope keys.
	for _, line := range lines {
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &obj))
		assert.Contains(t, obj, "#type")
		assert.Contains(t, obj, "#account_id")
		assert.Contains(t, obj, "#time")
		assert.Contains(t, obj, "properties")
	}

	second, err := os.ReadFile(filepath.Join(dir, "logs_2025-07-02.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(second), "\n"))
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, err := NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.Write(testRecord(1, 9, sim.TypeTrack)))
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, "logs_2025-07-01.jsonl"))
	assert.NoError(t, err)
}

func TestWriterEmptyRun(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(nil))
	require.NoError(t, w.Close())
	assert.Empty(t, w.Files())
}
