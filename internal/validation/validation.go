package validation

import (
	"net/url"
	"regexp"
	"strings"

	"sellerdesk/internal/rankdata"
)

// Request limits for keyword research.
const (
	MaxASINs      = 10
	MaxSeeds      = 50
	MaxSeedLength = 100
)

// ASINPattern defines the valid ASIN format: ten uppercase letters or digits.
var ASINPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// NormalizeASIN trims and uppercases an ASIN.
func NormalizeASIN(asin string) string {
	return strings.ToUpper(strings.TrimSpace(asin))
}

// ValidateASIN checks if an already normalized ASIN is well formed.
func ValidateASIN(asin string) bool {
	return ASINPattern.MatchString(asin)
}

// NormalizeASINs normalizes, validates and deduplicates a list of ASINs,
// preserving order. Blank entries are skipped.
func NormalizeASINs(asins []string) ([]string, bool, string) {
	seen := make(map[string]bool, len(asins))
	out := make([]string, 0, len(asins))
	for _, a := range asins {
		a = NormalizeASIN(a)
		if a == "" || seen[a] {
			continue
		}
		if !ValidateASIN(a) {
			return nil, false, "invalid ASIN: " + a
		}
		seen[a] = true
		out = append(out, a)
	}
	if len(out) > MaxASINs {
		return nil, false, "too many ASINs"
	}
	return out, true, ""
}

// ValidateSeeds checks the number and length of seed keywords.
func ValidateSeeds(seeds []string) (bool, string) {
	if len(seeds) > MaxSeeds {
		return false, "too many seed keywords"
	}
	for _, s := range seeds {
		if len([]rune(s)) > MaxSeedLength {
			return false, "seed keyword is too long"
		}
	}
	return true, ""
}

// NormalizeMarketplace returns the canonical marketplace code. Empty input
// selects US.
func NormalizeMarketplace(code string) (string, bool) {
	if strings.TrimSpace(code) == "" {
		return "US", true
	}
	m, ok := rankdata.LookupMarketplace(code)
	if !ok {
		return "", false
	}
	return m.Code, true
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}
