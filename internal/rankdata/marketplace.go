package rankdata

import (
	"sort"
	"strings"
)

// Marketplace maps an Amazon marketplace to the location and language codes
// the rank-data provider expects.
type Marketplace struct {
	Code         string
	Country      string
	Host         string
	LocationCode int
	LanguageCode string
}

var marketplaces = map[string]Marketplace{
	"US": {Code: "US", Country: "United States", Host: "www.amazon.com", LocationCode: 2840, LanguageCode: "en_US"},
	"CA": {Code: "CA", Country: "Canada", Host: "www.amazon.ca", LocationCode: 2124, LanguageCode: "en_US"},
	"GB": {Code: "GB", Country: "United Kingdom", Host: "www.amazon.co.uk", LocationCode: 2826, LanguageCode: "en_GB"},
	"DE": {Code: "DE", Country: "Germany", Host: "www.amazon.de", LocationCode: 2276, LanguageCode: "de_DE"},
	"FR": {Code: "FR", Country: "France", Host: "www.amazon.fr", LocationCode: 2250, LanguageCode: "fr_FR"},
	"ES": {Code: "ES", Country: "Spain", Host: "www.amazon.es", LocationCode: 2724, LanguageCode: "es_ES"},
	"IT": {Code: "IT", Country: "Italy", Host: "www.amazon.it", LocationCode: 2380, LanguageCode: "it_IT"},
	"IN": {Code: "IN", Country: "India", Host: "www.amazon.in", LocationCode: 2356, LanguageCode: "en_IN"},
	"JP": {Code: "JP", Country: "Japan", Host: "www.amazon.co.jp", LocationCode: 2392, LanguageCode: "ja_JP"},
	"AU": {Code: "AU", Country: "Australia", Host: "www.amazon.com.au", LocationCode: 2036, LanguageCode: "en_AU"},
	"BR": {Code: "BR", Country: "Brazil", Host: "www.amazon.com.br", LocationCode: 2076, LanguageCode: "pt_BR"},
	"MX": {Code: "MX", Country: "Mexico", Host: "www.amazon.com.mx", LocationCode: 2484, LanguageCode: "es_MX"},
	"AE": {Code: "AE", Country: "United Arab Emirates", Host: "www.amazon.ae", LocationCode: 2784, LanguageCode: "en_AE"},
	"SG": {Code: "SG", Country: "Singapore", Host: "www.amazon.sg", LocationCode: 2702, LanguageCode: "en_SG"},
}

// lookupAlias maps common aliases back to the canonical marketplace code.
var lookupAlias = map[string]string{
	"UK":  "GB",
	"COM": "US",
}

// Marketplaces returns the supported marketplace codes, sorted.
func Marketplaces() []string {
	codes := make([]string, 0, len(marketplaces))
	for code := range marketplaces {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// LookupMarketplace resolves code, reporting whether it is supported.
func LookupMarketplace(code string) (Marketplace, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := lookupAlias[normalized]; ok {
		normalized = canonical
	}
	m, ok := marketplaces[normalized]
	return m, ok
}

// MarketplaceFor returns the configuration for code. Unknown codes fall back
// to the US marketplace.
func MarketplaceFor(code string) Marketplace {
	if m, ok := LookupMarketplace(code); ok {
		return m
	}
	return marketplaces["US"]
}
