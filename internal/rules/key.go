package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// keyDomain namespaces cache keys so a layout change cannot collide with
// entries written by an older build.
const keyDomain = "tdgen/cachekey/v1"

// Product identifies the product a taxonomy belongs to. Any change to the
// tuple invalidates cached analysis, since the same event names mean
// different things in a different industry or on a different platform.
type Product struct {
	Industry string `yaml:"industry" json:"industry"`
	Platform string `yaml:"platform" json:"platform"`
	Name     string `yaml:"name" json:"name"`
}

// CacheKey derives the rule-set cache identity from the taxonomy content
// hash, the analysis provider, and the product tuple. Identical inputs
// always produce the same key; changing any single component changes it.
//
// The provider is kept as a readable prefix so cache listings group by
// provider at a glance.
func CacheKey(taxonomyHash, provider string, product Product) string {
	h := sha256.New()
	h.Write([]byte(keyDomain))
	for _, part := range []string{taxonomyHash, provider, product.Industry, product.Platform, product.Name} {
		h.Write([]byte{0x00})
		h.Write([]byte(part))
	}
	return fmt.Sprintf("%s_%s", provider, hex.EncodeToString(h.Sum(nil))[:16])
}
