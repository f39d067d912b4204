package sim

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Runner fans the population out over a bounded worker pool and merges
// the per-user timelines into one chronologically ordered stream.
//
// Each worker owns its users outright, so the only shared state is the
// results slice, written at disjoint indices. The merge key is
// (time, user, emission order), which makes the output byte-identical
// across runs regardless of worker count or scheduling.
type Runner struct {
	asm     *Assembler
	workers int
}

// NewRunner builds a runner; workers <= 0 means GOMAXPROCS.
func NewRunner(asm *Assembler, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{asm: asm, workers: workers}
}

// Run simulates every user across [start, end] and returns the merged
// stream. Cancellation is checked between users; a cancelled run
// returns the context error and no records.
func (r *Runner) Run(ctx context.Context, users []*User, start, end time.Time) ([]Record, error) {
	perUser := make([][]Record, len(users))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				perUser[idx] = r.asm.SimulateUser(users[idx], idx, start, end)
			}
		}()
	}

	var runErr error
feed:
	for idx := range users {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}

	total := 0
	for _, recs := range perUser {
		total += len(recs)
	}
	merged := make([]Record, 0, total)
	for _, recs := range perUser {
		merged = append(merged, recs...)
	}
	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		if a.userIdx != b.userIdx {
			return a.userIdx < b.userIdx
		}
		return a.seq < b.seq
	})

	slog.Info("simulation complete",
		"users", len(users), "records", len(merged), "workers", r.workers)
	return merged, nil
}
