package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// User is one simulated identity. A user is created by the pool, owned
// exclusively by one worker for the run's duration, and mutated only by
// the update engine and the lifecycle advance.
type User struct {
	AccountID   string
	DistinctIDs []string
	Segment     Segment
	Stage       Stage
	JoinDate    time.Time

	// State is the current user-profile snapshot (property -> value),
	// kept consistent with the emitted update records.
	State map[string]any

	// Preset holds the '#'-prefixed device/context properties, fixed at
	// creation and stamped onto every track record.
	Preset map[string]any

	// SequencePos is the user's cursor into the segment's declared event
	// sequence; it persists across sessions and days.
	SequencePos int

	// Deleted marks a user removed by a `delete` update rule. A deleted
	// user emits nothing for the rest of the run.
	Deleted bool
}

// DistinctID returns the user's primary device identity.
func (u *User) DistinctID() string {
	return u.DistinctIDs[0]
}

// StateValue returns a state property and whether it is set (non-nil).
func (u *User) StateValue(name string) (any, bool) {
	v, ok := u.State[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// StateNumber returns a state property coerced to float64, or def.
func (u *User) StateNumber(name string, def float64) float64 {
	if v, ok := u.State[name]; ok {
		if f, ok := toNumber(v); ok {
			return f
		}
	}
	return def
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// IDGenerator produces account and device identities for the pool.
// SeededIDs (reproducible runs) and UUIDs (unseeded runs) implement it.
type IDGenerator interface {
	AccountID() string
	DistinctID() string
}

// SeededIDs derives identities from a PRNG so a seeded run always builds
// the same population.
type SeededIDs struct {
	rng *rand.Rand
}

// NewSeededIDs creates a generator from a run seed.
func NewSeededIDs(seed int64) *SeededIDs {
	return &SeededIDs{rng: newRand(seed)}
}

func (g *SeededIDs) AccountID() string {
	return fmt.Sprintf("user_%016x", g.rng.Uint64())
}

func (g *SeededIDs) DistinctID() string {
	return fmt.Sprintf("device_%016x", g.rng.Uint64())
}

// UUIDs generates random identities for unseeded, non-reproducible runs.
type UUIDs struct{}

func (UUIDs) AccountID() string {
	return "user_" + uuid.NewString()[:18]
}

func (UUIDs) DistinctID() string {
	return "device_" + uuid.NewString()[:18]
}

// PoolConfig controls population generation.
type PoolConfig struct {
	Size      int
	Ratios    map[Segment]float64 // nil means DefaultSegmentRatios
	StartDate time.Time           // first day of the generation range
	Platform  string              // mobile_app | web | desktop
	Seed      int64
	IDs       IDGenerator // nil means NewSeededIDs(Seed)
}

// NewPool generates the initial population: segment assignment by
// largest-remainder apportionment of the configured ratios, a join date
// drawn from the segment's joined-days-ago window, preset device context,
// and the lifecycle seed stage.
//
// Pool construction is sequential and deterministic given (config, seed);
// per-user timelines draw from their own derived PRNGs later.
func NewPool(cfg PoolConfig) []*User {
	ratios := cfg.Ratios
	if ratios == nil {
		ratios = DefaultSegmentRatios
	}
	ids := cfg.IDs
	if ids == nil {
		ids = NewSeededIDs(cfg.Seed)
	}
	counts := apportion(cfg.Size, ratios)
	rng := newRand(UserSeed(cfg.Seed, "pool"))

	users := make([]*User, 0, cfg.Size)
	for _, seg := range segmentOrder {
		behavior := BehaviorFor(seg)
		for i := 0; i < counts[seg]; i++ {
			daysAgo := behavior.JoinedDaysAgo[0]
			if span := behavior.JoinedDaysAgo[1] - behavior.JoinedDaysAgo[0]; span > 0 {
				daysAgo += rng.Intn(span + 1)
			}
			join := cfg.StartDate.AddDate(0, 0, -daysAgo).Add(
				time.Duration(rng.Intn(24*3600)) * time.Second)

			u := &User{
				AccountID:   ids.AccountID(),
				DistinctIDs: []string{ids.DistinctID()},
				Segment:     seg,
				Stage:       initialStage(seg),
				JoinDate:    join,
				State: map[string]any{
					"channel":            drawChannel(rng),
					"days_since_install": int64(daysAgo),
					"session_count":      int64(0),
				},
			}
			u.Preset = newPresetProperties(cfg.Platform, join, rng)
			users = append(users, u)
		}
	}
	return users
}

// apportion distributes size across segments by the largest-remainder
// method, so counts always sum to size exactly and track the ratios as
// closely as integer counts allow.
func apportion(size int, ratios map[Segment]float64) map[Segment]int {
	total := 0.0
	for _, seg := range segmentOrder {
		total += ratios[seg]
	}
	if total <= 0 {
		total = 1
	}

	type share struct {
		seg Segment
		rem float64
	}
	counts := make(map[Segment]int, len(segmentOrder))
	shares := make([]share, 0, len(segmentOrder))
	assigned := 0
	for _, seg := range segmentOrder {
		exact := float64(size) * ratios[seg] / total
		n := int(exact)
		counts[seg] = n
		assigned += n
		shares = append(shares, share{seg: seg, rem: exact - float64(n)})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].rem > shares[j].rem
	})
	for i := 0; assigned < size; i++ {
		counts[shares[i%len(shares)].seg]++
		assigned++
	}
	return counts
}

var acquisitionChannels = []struct {
	name   string
	weight float64
}{
	{"organic", 0.40},
	{"facebook_ads", 0.20},
	{"google_ads", 0.15},
	{"apple_search_ads", 0.10},
	{"tiktok_ads", 0.10},
	{"youtube", 0.05},
}

func drawChannel(rng *rand.Rand) string {
	r := rng.Float64()
	acc := 0.0
	for _, c := range acquisitionChannels {
		acc += c.weight
		if r < acc {
			return c.name
		}
	}
	return acquisitionChannels[0].name
}
