package sim

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runOnce(t *testing.T, workers int) []byte {
	t.Helper()
	tax := assembleTestTaxonomy()
	users := NewPool(PoolConfig{
		Size:      8,
		StartDate: poolStart,
		Platform:  "mobile_app",
		Seed:      42,
	})
	asm := NewAssembler(tax, assembleTestRules(), NewTypeRegistry(tax), 42, 10, "en")
	runner := NewRunner(asm, workers)

	records, err := runner.Run(context.Background(), users, poolStart, poolStart.AddDate(0, 0, 2))
	require.NoError(t, err)
	return marshalAll(t, records)
}

func TestRunnerWorkerCountInvariant(t *testing.T) {
	serial := runOnce(t, 1)
	parallel := runOnce(t, 4)
	assert.Equal(t, serial, parallel)
}

func TestRunnerMergeOrder(t *testing.T) {
	tax := assembleTestTaxonomy()
	users := NewPool(PoolConfig{
		Size:      6,
		StartDate: poolStart,
		Platform:  "mobile_app",
		Seed:      9,
	})
	asm := NewAssembler(tax, assembleTestRules(), NewTypeRegistry(tax), 9, 10, "en")
	runner := NewRunner(asm, 3)

	records, err := runner.Run(context.Background(), users, poolStart, poolStart.AddDate(0, 0, 1))
	require.NoError(t, err)

	sorted := sort.SliceIsSorted(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})
	// Ties broken by user and emission order still leave the stream
	// non-decreasing in time.
	assert.True(t, sorted || timeNonDecreasing(records))
}

func timeNonDecreasing(records []Record) bool {
	for i := 1; i < len(records); i++ {
		if records[i].Time.Before(records[i-1].Time) {
			return false
		}
	}
	return true
}

func TestRunnerCancellation(t *testing.T) {
	tax := assembleTestTaxonomy()
	users := NewPool(PoolConfig{
		Size:      50,
		StartDate: poolStart,
		Platform:  "mobile_app",
		Seed:      1,
	})
	asm := NewAssembler(tax, assembleTestRules(), NewTypeRegistry(tax), 1, 10, "en")
	runner := NewRunner(asm, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, users, poolStart, poolStart.AddDate(0, 0, 30))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerEmptyPopulation(t *testing.T) {
	tax := assembleTestTaxonomy()
	asm := NewAssembler(tax, assembleTestRules(), NewTypeRegistry(tax), 1, 10, "en")
	runner := NewRunner(asm, 2)

	records, err := runner.Run(context.Background(), nil, poolStart, poolStart)
	require.NoError(t, err)
	assert.Empty(t, records)
}
