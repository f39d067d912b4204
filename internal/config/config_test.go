package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkingdata-korea/demo-data-generator/internal/sim"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 100, cfg.Users)
	assert.Equal(t, float64(20), cfg.EventsPerDay)
	assert.Equal(t, "mobile_app", cfg.Product.Platform)
	assert.False(t, cfg.Seeded)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
taxonomy: taxonomy.yaml
output_dir: /tmp/out
start_date: "2025-07-01"
end_date: "2025-07-07"
users: 500
seed: 42
locale: ja
product:
  name: puzzle_quest
  industry: game
  platform: web
segment_ratios:
  NEW_USER: 0.5
  ACTIVE_USER: 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "taxonomy.yaml", cfg.TaxonomyPath)
	assert.Equal(t, 500, cfg.Users)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.True(t, cfg.Seeded)
	assert.Equal(t, "web", cfg.Product.Platform)
	assert.Equal(t, map[sim.Segment]float64{
		sim.NewUser:    0.5,
		sim.ActiveUser: 0.5,
	}, cfg.Ratios())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
taxonomy: taxonomy.yaml
users: 100
`)
	t.Setenv("TDGEN_USERS", "250")
	t.Setenv("TDGEN_SEED", "7")
	t.Setenv("TDGEN_PRODUCT_PLATFORM", "desktop")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Users)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.True(t, cfg.Seeded)
	assert.Equal(t, "desktop", cfg.Product.Platform)
}

func TestDateRange(t *testing.T) {
	cfg := Default()
	cfg.StartDate = "2025-07-01"
	cfg.EndDate = "2025-07-07"

	start, end, err := cfg.DateRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), end)
}

func TestDateRangeDefaultsToYesterday(t *testing.T) {
	cfg := Default()
	start, end, err := cfg.DateRange()
	require.NoError(t, err)
	assert.Equal(t, start, end)
	assert.True(t, start.Before(time.Now()))
}

func TestValidateErrors(t *testing.T) {
	base := Default()
	base.TaxonomyPath = "taxonomy.yaml"
	require.NoError(t, base.Validate())

	missing := base
	missing.TaxonomyPath = ""
	assert.Error(t, missing.Validate())

	noUsers := base
	noUsers.Users = 0
	assert.Error(t, noUsers.Validate())

	backwards := base
	backwards.StartDate = "2025-07-07"
	backwards.EndDate = "2025-07-01"
	assert.Error(t, backwards.Validate())

	badDate := base
	badDate.StartDate = "07/01/2025"
	assert.Error(t, badDate.Validate())

	zeroRatios := base
	zeroRatios.SegmentRatios = map[string]float64{"NEW_USER": 0}
	assert.Error(t, zeroRatios.Validate())
}

func TestCacheProduct(t *testing.T) {
	cfg := Default()
	cfg.Product = Product{Name: "rpg", Industry: "game", Platform: "mobile_app"}

	p := cfg.CacheProduct()
	assert.Equal(t, "rpg", p.Name)
	assert.Equal(t, "game", p.Industry)
	assert.Equal(t, "mobile_app", p.Platform)
}
