package sim

import (
	"time"
)

// TimeLayout is the ThinkingEngine timestamp format (millisecond
// precision): yyyy-MM-dd HH:mm:ss.SSS.
const TimeLayout = "2006-01-02 15:04:05.000"

// Record types for the output envelopes.
const (
	TypeTrack       = "track"
	TypeUserSet     = "user_set"
	TypeUserSetOnce = "user_set_once"
	TypeUserAdd     = "user_add"
	TypeUserAppend  = "user_append"
	TypeUserUnset   = "user_unset"
	TypeUserDel     = "user_del"
)

// EventRecord is one emitted event before enveloping: the resolved
// properties feed both the track record and the state-update computation.
// Immutable once built.
type EventRecord struct {
	Name       string
	Time       time.Time
	Properties map[string]any
}

// Record is one output line: either a track record or a user-profile
// update record.
type Record struct {
	Type       string
	AccountID  string
	DistinctID string
	EventName  string
	Time       time.Time
	Properties map[string]any

	// Merge ordering within a run; not serialized.
	userIdx int
	seq     int
}

// MarshalLine encodes the record as one canonical JSON line (without a
// trailing newline). Track records carry the device identity and event
// name; user_* records carry only the account identity, per the upload
// contract.
func (r Record) MarshalLine() ([]byte, error) {
	obj := map[string]any{
		"#type":       r.Type,
		"#account_id": r.AccountID,
		"#time":       r.Time.Format(TimeLayout),
		"properties":  r.Properties,
	}
	if r.Type == TypeTrack {
		obj["#distinct_id"] = r.DistinctID
		obj["#event_name"] = r.EventName
	}
	if r.Properties == nil {
		obj["properties"] = map[string]any{}
	}
	return MarshalCanonical(obj)
}
