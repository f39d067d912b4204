package sim

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/text/language"

	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

// synthContext carries everything a semantic generator may consult.
type synthContext struct {
	faker    *gofakeit.Faker
	rng      *rand.Rand
	locale   language.Tag
	property string
	now      time.Time
}

// semanticCategory binds name tokens to a value generator. Categories are
// evaluated in declaration order and the first token match wins, so more
// specific categories must precede broader ones (country_code before
// country, first_name before name).
type semanticCategory struct {
	name   string
	tokens []string
	typ    taxonomy.PropertyType
	gen    func(ctx *synthContext) any
}

// supportedLocales lists the locales with localized data pools. English
// is first and therefore the matcher's fallback.
var supportedLocales = []language.Tag{
	language.English,
	language.Korean,
	language.Japanese,
	language.Chinese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// countryLocales maps ISO country codes to the locale used for
// locale-sensitive categories (names, addresses, phone numbers).
var countryLocales = map[string]language.Tag{
	"KR": language.Korean,
	"JP": language.Japanese,
	"CN": language.Chinese,
	"TW": language.Chinese,
}

// localeForUser picks the generator locale from the user's country state
// if present, else from the configured default.
func localeForUser(u *User, defaultLocale string) language.Tag {
	for _, key := range []string{"#country_code", "country_code", "#country", "country"} {
		v, ok := u.StateValue(key)
		if !ok {
			if u.Preset != nil {
				v, ok = u.Preset[key]
			}
			if !ok || v == nil {
				continue
			}
		}
		if s, ok := v.(string); ok {
			if tag, ok := countryLocales[strings.ToUpper(s)]; ok {
				return tag
			}
			if len(s) == 2 {
				return language.English
			}
		}
	}
	if defaultLocale != "" {
		if want, err := language.Parse(defaultLocale); err == nil {
			tag, _, _ := localeMatcher.Match(want)
			return tag
		}
	}
	return language.English
}

// Localized data pools. Non-English locales synthesize from small
// curated pools; English falls through to gofakeit's full datasets.
var localSurnames = map[language.Tag][]string{
	language.Korean:   {"김", "이", "박", "최", "정", "강", "조", "윤", "장", "임"},
	language.Japanese: {"佐藤", "鈴木", "高橋", "田中", "渡辺", "伊藤", "山本", "中村"},
	language.Chinese:  {"王", "李", "张", "刘", "陈", "杨", "黄", "赵"},
}

var localGivenNames = map[language.Tag][]string{
	language.Korean:   {"민준", "서연", "도윤", "지우", "하준", "서준", "하은", "지호"},
	language.Japanese: {"陽翔", "結愛", "蓮", "陽菜", "悠真", "莉子", "湊", "葵"},
	language.Chinese:  {"伟", "芳", "娜", "敏", "静", "磊", "军", "洋"},
}

var localPhonePrefixes = map[language.Tag]string{
	language.Korean:   "010",
	language.Japanese: "090",
	language.Chinese:  "138",
}

var localCities = map[language.Tag][]string{
	language.Korean:   {"서울", "부산", "인천", "대구", "대전"},
	language.Japanese: {"東京", "大阪", "名古屋", "福岡", "札幌"},
	language.Chinese:  {"北京", "上海", "广州", "深圳", "成都"},
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

func localFullName(ctx *synthContext) string {
	if given, ok := localGivenNames[ctx.locale]; ok {
		return pick(ctx.rng, localSurnames[ctx.locale]) + pick(ctx.rng, given)
	}
	return ctx.faker.Name()
}

func localPhone(ctx *synthContext) string {
	if prefix, ok := localPhonePrefixes[ctx.locale]; ok {
		return fmt.Sprintf("%s-%04d-%04d", prefix, ctx.rng.Intn(10000), ctx.rng.Intn(10000))
	}
	return ctx.faker.Phone()
}

func localCity(ctx *synthContext) string {
	if cities, ok := localCities[ctx.locale]; ok {
		return pick(ctx.rng, cities)
	}
	return ctx.faker.City()
}

// semanticCategories is the fixed fallback table: property names are
// matched against these tokens when no rule produced a value.
var semanticCategories = []semanticCategory{
	{"first_name", []string{"first_name", "given_name"}, taxonomy.TypeString, func(ctx *synthContext) any {
		if names, ok := localGivenNames[ctx.locale]; ok {
			return pick(ctx.rng, names)
		}
		return ctx.faker.FirstName()
	}},
	{"last_name", []string{"last_name", "family_name", "surname"}, taxonomy.TypeString, func(ctx *synthContext) any {
		if names, ok := localSurnames[ctx.locale]; ok {
			return pick(ctx.rng, names)
		}
		return ctx.faker.LastName()
	}},
	{"username", []string{"username", "nickname", "handle"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Username()
	}},
	{"name", []string{"name", "title"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return localFullName(ctx)
	}},
	{"email", []string{"email", "mail"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Email()
	}},
	{"phone", []string{"phone", "mobile", "tel"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return localPhone(ctx)
	}},
	{"country_code", []string{"country_code", "country_abbr"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.CountryAbr()
	}},
	{"country", []string{"country", "nation"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Country()
	}},
	{"city", []string{"city", "town"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return localCity(ctx)
	}},
	{"province", []string{"province", "state", "region"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.State()
	}},
	{"zip", []string{"zip", "postal"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Zip()
	}},
	// ip precedes street: "ip_address" must not match "address".
	{"ip", []string{"ip_address", "ip"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.IPv4Address()
	}},
	{"street", []string{"street", "address", "addr"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Street()
	}},
	{"company", []string{"company", "brand", "vendor", "publisher"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Company()
	}},
	{"job", []string{"job", "occupation", "role", "position"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.JobTitle()
	}},
	{"department", []string{"department", "division"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.BS()
	}},
	{"url", []string{"url", "link", "href"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.URL()
	}},
	{"domain", []string{"domain", "host"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.DomainName()
	}},
	{"user_agent", []string{"user_agent", "ua"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.UserAgent()
	}},
	{"color", []string{"color", "colour"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Color()
	}},
	{"currency", []string{"currency"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.CurrencyShort()
	}},
	{"gender", []string{"gender", "sex"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Gender()
	}},
	{"language", []string{"language", "locale", "lang"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.LanguageAbbreviation()
	}},
	{"browser", []string{"browser"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return pick(ctx.rng, []string{"Chrome", "Safari", "Firefox", "Edge"})
	}},
	{"os", []string{"os_name", "operating_system", "platform"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return pick(ctx.rng, []string{"Android", "iOS", "Windows", "macOS"})
	}},
	{"device", []string{"device", "model"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return pick(ctx.rng, []string{"Galaxy S23", "iPhone 15 Pro", "Pixel 7", "Mi 13"})
	}},
	{"version", []string{"version", "build"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.AppVersion()
	}},
	{"channel", []string{"channel", "source", "medium", "campaign"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return drawChannel(ctx.rng)
	}},
	{"server", []string{"server", "shard", "realm"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return fmt.Sprintf("server_%02d", 1+ctx.rng.Intn(10))
	}},
	{"guild", []string{"guild", "clan", "party"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return fmt.Sprintf("guild_%03d", 1+ctx.rng.Intn(100))
	}},
	{"category", []string{"category", "genre", "kind"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Word()
	}},
	{"tag", []string{"tag", "label"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Word()
	}},
	{"description", []string{"description", "comment", "message", "text", "memo"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return ctx.faker.Sentence(6)
	}},
	{"birthday", []string{"birthday", "birth_date", "born"}, taxonomy.TypeString, func(ctx *synthContext) any {
		year := 1970 + ctx.rng.Intn(40)
		return fmt.Sprintf("%04d-%02d-%02d", year, 1+ctx.rng.Intn(12), 1+ctx.rng.Intn(28))
	}},
	{"timestamp", []string{"timestamp", "time", "date", "_at"}, taxonomy.TypeTime, func(ctx *synthContext) any {
		// A recent moment, never in the simulated future.
		return ctx.now.Add(-time.Duration(ctx.rng.Intn(72*3600)) * time.Second).Format(TimeLayout)
	}},
	{"latitude", []string{"latitude", "lat"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return round2(-90 + ctx.rng.Float64()*180)
	}},
	{"longitude", []string{"longitude", "lng", "lon"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return round2(-180 + ctx.rng.Float64()*360)
	}},
	{"price", []string{"price", "amount", "cost", "revenue", "spent", "spend"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return int64(100 * (1 + ctx.rng.Intn(500)))
	}},
	// duration precedes percent: "duration" contains "ratio".
	{"duration", []string{"duration", "elapsed", "playtime"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return round2(1 + ctx.rng.Float64()*299)
	}},
	{"percent", []string{"percent", "ratio", "rate"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return round2(ctx.rng.Float64())
	}},
	{"rating", []string{"rating", "stars"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return int64(1 + ctx.rng.Intn(5))
	}},
	{"level", []string{"level", "grade", "tier", "rank"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return int64(1 + ctx.rng.Intn(100))
	}},
	{"score", []string{"score", "point", "xp", "exp"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return int64(ctx.rng.Intn(100000))
	}},
	{"count", []string{"count", "quantity", "qty", "num"}, taxonomy.TypeNumber, func(ctx *synthContext) any {
		return int64(1 + ctx.rng.Intn(10))
	}},
	{"flag", []string{"is_", "has_", "enabled", "flag"}, taxonomy.TypeBool, func(ctx *synthContext) any {
		return ctx.rng.Intn(2) == 1
	}},
	{"identifier", []string{"_id", "id_", "identifier", "code", "sku", "key"}, taxonomy.TypeString, func(ctx *synthContext) any {
		return fmt.Sprintf("%s_%04d", strings.TrimSuffix(ctx.property, "_id"), 1+ctx.rng.Intn(9999))
	}},
}

// matchSemantic finds the first category whose token list matches the
// property name (case-insensitive substring). Declaration order is the
// documented priority when several categories could match.
func matchSemantic(property string) (semanticCategory, bool) {
	lower := strings.ToLower(property)
	for _, cat := range semanticCategories {
		for _, tok := range cat.tokens {
			if strings.Contains(lower, tok) {
				return cat, true
			}
		}
	}
	return semanticCategory{}, false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
