package sim

import (
	"fmt"
	"math/rand"
	"time"
)

// Preset generation: the '#'-prefixed device and context properties a
// client SDK would stamp on every record. Drawn once per user at pool
// construction and held constant for the run, like a real device.

type presetCountry struct {
	name     string
	code     string
	province string
	city     string
	zone     float64
	carriers []string
}

var presetCountries = []presetCountry{
	{"South Korea", "KR", "Seoul", "Gangnam", 9.0, []string{"SKT", "KT", "LG U+"}},
	{"United States", "US", "California", "San Francisco", -8.0, []string{"Verizon", "AT&T", "T-Mobile"}},
	{"Japan", "JP", "Tokyo", "Shibuya", 9.0, []string{"NTT Docomo", "au", "SoftBank"}},
	{"China", "CN", "Beijing", "Chaoyang", 8.0, []string{"China Mobile", "China Unicom"}},
}

var (
	androidVersions = []string{"13", "12", "11", "10"}
	iosVersions     = []string{"17.2", "17.1", "16.5", "16.4"}

	manufacturers = map[string][]string{
		"Android": {"Samsung", "LG", "Google", "Xiaomi"},
		"iOS":     {"Apple"},
	}
	deviceModels = map[string][]string{
		"Samsung": {"Galaxy S23", "Galaxy S22", "Galaxy A54"},
		"LG":      {"V60 ThinQ", "G8 ThinQ"},
		"Google":  {"Pixel 7", "Pixel 6"},
		"Xiaomi":  {"Mi 13", "Redmi Note 12"},
		"Apple":   {"iPhone 15 Pro", "iPhone 14", "iPhone 13"},
	}

	networkTypes = []string{"WIFI", "4G", "5G", "3G"}

	desktopOS      = []string{"Windows", "macOS", "Linux"}
	desktopVersion = map[string][]string{
		"Windows": {"11", "10"},
		"macOS":   {"14.0", "13.5", "13.0"},
		"Linux":   {"Ubuntu 22.04", "Ubuntu 20.04"},
	}

	browsers        = []string{"Chrome", "Safari", "Firefox", "Edge"}
	browserVersions = map[string][]string{
		"Chrome":  {"120.0", "119.0", "118.0"},
		"Safari":  {"17.2", "17.1", "16.6"},
		"Firefox": {"121.0", "120.0", "119.0"},
		"Edge":    {"120.0", "119.0"},
	}

	systemLanguages = []string{"ko", "en", "ja", "zh"}
)

// newPresetProperties draws the preset block for one user. Platform is
// one of mobile_app, web, desktop; anything else is treated as
// mobile_app.
func newPresetProperties(platform string, installTime time.Time, rng *rand.Rand) map[string]any {
	country := presetCountries[rng.Intn(len(presetCountries))]

	props := map[string]any{
		"#ip":              fakeIP(rng),
		"#country":         country.name,
		"#country_code":    country.code,
		"#province":        country.province,
		"#city":            country.city,
		"#zone_offset":     country.zone,
		"#lib_version":     fmt.Sprintf("%d.%d.%d", 2+rng.Intn(3), rng.Intn(10), rng.Intn(21)),
		"#device_id":       fmt.Sprintf("device_%016x", rng.Uint64()),
		"#screen_height":   int64(pick(rng, []int{2400, 1920, 1440, 1080})),
		"#screen_width":    int64(pick(rng, []int{1080, 1440, 720, 1920})),
		"#system_language": pick(rng, systemLanguages),
	}

	switch platform {
	case "web":
		props["#lib"] = "JavaScript"
		browser := pick(rng, browsers)
		osName := pick(rng, desktopOS)
		if browser == "Safari" {
			osName = "macOS"
		}
		props["#os"] = osName
		props["#os_version"] = pick(rng, desktopVersion[osName])
		props["#browser"] = browser
		props["#browser_version"] = pick(rng, browserVersions[browser])
		props["#ua"] = userAgent(osName, browser)
		if rng.Float64() >= 0.7 {
			props["#utm"] = utmParams(rng)
		} else {
			props["#utm"] = ""
		}
	case "desktop":
		osName := pick(rng, desktopOS)
		props["#lib"] = osName
		props["#os"] = osName
		props["#os_version"] = pick(rng, desktopVersion[osName])
		props["#device_model"] = osName + " Desktop"
	default: // mobile_app
		osName := pick(rng, []string{"Android", "iOS"})
		maker := pick(rng, manufacturers[osName])
		props["#lib"] = osName
		props["#os"] = osName
		if osName == "Android" {
			props["#os_version"] = pick(rng, androidVersions)
		} else {
			props["#os_version"] = pick(rng, iosVersions)
		}
		props["#manufacturer"] = maker
		props["#device_model"] = pick(rng, deviceModels[maker])
		if rng.Float64() < 0.8 {
			props["#device_type"] = "Phone"
		} else {
			props["#device_type"] = "Tablet"
		}
		props["#app_version"] = fmt.Sprintf("%d.%d.%d", 1+rng.Intn(3), rng.Intn(10), rng.Intn(21))
		props["#network_type"] = pick(rng, networkTypes)
		props["#carrier"] = pick(rng, country.carriers)
		props["#install_time"] = installTime.Format("2006-01-02 15:04:05")
		props["#simulator"] = int64(0)
		props["#ram"] = fmt.Sprintf("%d/%dMB", 2000+rng.Intn(2001), 6000+rng.Intn(6001))
		props["#disk"] = fmt.Sprintf("%d/%dMB", 5000+rng.Intn(15001), 64000+rng.Intn(192001))
		props["#fps"] = int64(55 + rng.Intn(6))
	}

	return props
}

func fakeIP(rng *rand.Rand) string {
	return fmt.Sprintf("%d.%d.%d.%d",
		1+rng.Intn(255), rng.Intn(256), rng.Intn(256), 1+rng.Intn(254))
}

func userAgent(osName, browser string) string {
	platform := "X11; Linux x86_64"
	switch osName {
	case "Windows":
		platform = "Windows NT 10.0; Win64; x64"
	case "macOS":
		platform = "Macintosh; Intel Mac OS X 10_15_7"
	}
	return fmt.Sprintf(
		"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) %s/120.0.0.0",
		platform, browser)
}

func utmParams(rng *rand.Rand) string {
	source := pick(rng, []string{"google", "facebook", "newsletter", "direct"})
	campaign := pick(rng, []string{"google_ads", "facebook_ads", "email_campaign", "organic"})
	return fmt.Sprintf("utm_source=%s&utm_medium=cpc&utm_campaign=%s", source, campaign)
}
