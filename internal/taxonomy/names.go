package taxonomy

import (
	"regexp"
	"strings"
	"unicode"
)

// ThinkingEngine property name rules:
//   - must start with a letter or digit
//   - may contain only letters, digits, and underscores
//   - at most 50 characters
//   - names starting with '#' are reserved for preset properties
var validNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_]{0,49}$`)

// presetNames is the allow-list of '#'-prefixed preset properties.
var presetNames = map[string]bool{
	// system fields
	"#type": true, "#time": true, "#event_name": true,
	"#account_id": true, "#distinct_id": true, "#uuid": true,
	// common presets
	"#ip": true, "#country": true, "#country_code": true, "#province": true,
	"#city": true, "#lib": true, "#lib_version": true, "#zone_offset": true,
	"#device_id": true, "#screen_height": true, "#screen_width": true,
	"#system_language": true,
	// platform presets
	"#os": true, "#os_version": true, "#device_model": true, "#device_type": true,
	"#manufacturer": true, "#app_version": true, "#bundle_id": true,
	"#network_type": true, "#carrier": true, "#install_time": true,
	"#simulator": true, "#ram": true, "#disk": true, "#fps": true,
	"#browser": true, "#browser_version": true, "#ua": true, "#utm": true,
	// auto-tracked event presets
	"#resume_from_background": true, "#background_duration": true,
	"#start_reason": true, "#duration": true,
	"#title": true, "#screen_name": true, "#url": true, "#url_path": true,
	"#referrer": true, "#referrer_host": true,
	"#element_id": true, "#element_type": true, "#element_selector": true,
	"#element_position": true, "#element_content": true,
	"#app_crashed_reason": true,
}

// IsValidName reports whether name is a legal property name.
func IsValidName(name string) bool {
	if strings.HasPrefix(name, "#") {
		return presetNames[name]
	}
	return validNamePattern.MatchString(name)
}

// IsPresetName reports whether name is a recognized '#'-prefixed preset.
func IsPresetName(name string) bool {
	return presetNames[name]
}

// SanitizeName rewrites an arbitrary property name into a legal one.
// Recognized presets pass through unchanged; everything else is stripped
// down to the allowed character set and truncated to 50 characters.
func SanitizeName(name string) string {
	if strings.HasPrefix(name, "#") {
		if presetNames[name] {
			return name
		}
		name = name[1:]
	}

	replacer := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	name = replacer.Replace(name)

	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) && r < 128 {
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "property_value"
	}
	if len(name) > 50 {
		name = name[:50]
	}
	if !validNamePattern.MatchString(name) {
		return "property_value"
	}
	return name
}
