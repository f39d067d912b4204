package sim

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMatchSemanticCategories(t *testing.T) {
	tests := []struct {
		property string
		category string
	}{
		{"user_email", "email"},
		{"contact_mail", "email"},
		{"first_name", "first_name"},
		{"character_name", "name"},
		{"phone_number", "phone"},
		{"country_code", "country_code"},
		{"home_country", "country"},
		{"ip_address", "ip"},
		{"item_price", "price"},
		{"total_spent", "price"},
		{"player_level", "level"},
		{"win_rate", "percent"},
		{"session_duration", "duration"},
		{"item_count", "count"},
		{"is_premium", "flag"},
		{"product_id", "identifier"},
		{"utm_source", "channel"},
	}

	for _, tt := range tests {
		cat, ok := matchSemantic(tt.property)
		require.True(t, ok, "no category for %s", tt.property)
		assert.Equal(t, tt.category, cat.name, "property %s", tt.property)
	}
}

func TestMatchSemanticFirstMatchWins(t *testing.T) {
	// "first_name" also contains "name"; the more specific category is
	// declared earlier and must win.
	cat, ok := matchSemantic("first_name")
	require.True(t, ok)
	assert.Equal(t, "first_name", cat.name)

	// country_code before country.
	cat, ok = matchSemantic("billing_country_code")
	require.True(t, ok)
	assert.Equal(t, "country_code", cat.name)
}

func TestMatchSemanticNoMatch(t *testing.T) {
	_, ok := matchSemantic("zzqx")
	assert.False(t, ok)
}

func TestLocaleForUser(t *testing.T) {
	u := &User{State: map[string]any{}, Preset: map[string]any{"#country_code": "KR"}}
	assert.Equal(t, language.Korean, localeForUser(u, "en"))

	u = &User{State: map[string]any{"country_code": "JP"}}
	assert.Equal(t, language.Japanese, localeForUser(u, "en"))

	// Unknown country falls back to English regardless of default.
	u = &User{State: map[string]any{"country_code": "US"}}
	assert.Equal(t, language.English, localeForUser(u, "ko"))

	// No country at all: the configured default decides.
	u = &User{State: map[string]any{}}
	assert.Equal(t, language.Korean, localeForUser(u, "ko"))
	assert.Equal(t, language.English, localeForUser(u, ""))
}

func TestLocalizedPools(t *testing.T) {
	ctx := &synthContext{
		faker:  gofakeit.New(5),
		rng:    newRand(5),
		locale: language.Korean,
	}

	name := localFullName(ctx)
	require.NotEmpty(t, name)
	found := false
	for _, surname := range localSurnames[language.Korean] {
		if name[:len(surname)] == surname {
			found = true
			break
		}
	}
	assert.True(t, found, "Korean name %q should start with a pool surname", name)

	phone := localPhone(ctx)
	assert.Regexp(t, `^010-\d{4}-\d{4}$`, phone)

	assert.Contains(t, localCities[language.Korean], localCity(ctx))
}

func TestSemanticGeneratorsDeterministic(t *testing.T) {
	gen := func() any {
		ctx := &synthContext{
			faker:  gofakeit.New(9),
			rng:    newRand(9),
			locale: language.English,
		}
		cat, ok := matchSemantic("user_email")
		require.True(t, ok)
		return cat.gen(ctx)
	}
	assert.Equal(t, gen(), gen())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, round2(1.239))
	assert.Equal(t, 1.23, round2(1.2349))

	// Negative inputs round by magnitude, not toward zero; coordinates
	// in the southern and western hemispheres depend on this.
	assert.Equal(t, -1.24, round2(-1.239))
	assert.Equal(t, -37.81, round2(-37.8136))
	assert.Equal(t, 0.0, round2(0))
}
