package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Domain prefix for taxonomy content hashing. The version suffix allows
// the hash layout to change without silently reusing stale cache entries.
const hashDomain = "tdgen/taxonomy/v1"

// ContentHash computes a short, stable digest of the declared events and
// properties. The digest ignores declaration order, aliases, and
// descriptions: two taxonomies that track the same events with the same
// property names and types hash identically.
//
// Format: SHA256(domain + 0x00 + entries) truncated to 16 hex chars.
func (t *Taxonomy) ContentHash() string {
	entries := make([]string, 0, len(t.Events)+len(t.CommonProperties)+len(t.UserProperties))

	for _, ev := range t.Events {
		props := make([]string, 0, len(ev.Properties))
		for _, p := range ev.Properties {
			props = append(props, fmt.Sprintf("%s:%s", p.Name, p.Type))
		}
		sort.Strings(props)
		entries = append(entries, fmt.Sprintf("event/%s/%s", ev.Name, strings.Join(props, ",")))
	}
	for _, p := range t.CommonProperties {
		entries = append(entries, fmt.Sprintf("common/%s:%s", p.Name, p.Type))
	}
	for _, p := range t.UserProperties {
		entries = append(entries, fmt.Sprintf("user/%s:%s", p.Name, p.Type))
	}
	sort.Strings(entries)

	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
