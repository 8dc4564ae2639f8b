package locale

import (
	"strings"
)

type Country struct {
	Code    string   // ISO 3166-1 alpha-2
	Name    string
	Aliases []string // other spellings guests and admins type
}

var (
	Countries = map[string]Country{
		"US": {Code: "US", Name: "United States", Aliases: []string{"USA", "United States of America"}},
		"GB": {Code: "GB", Name: "United Kingdom", Aliases: []string{"UK", "Great Britain", "England"}},
		"IL": {Code: "IL", Name: "Israel"},
		"DE": {Code: "DE", Name: "Germany", Aliases: []string{"Deutschland"}},
		"FR": {Code: "FR", Name: "France"},
		"IT": {Code: "IT", Name: "Italy", Aliases: []string{"Italia"}},
		"ES": {Code: "ES", Name: "Spain", Aliases: []string{"España"}},
		"JP": {Code: "JP", Name: "Japan"},
	}
)

// LookupCountry resolves an ISO code, a country name or a known alias.
func LookupCountry(nameOrCode string) (Country, bool) {
	key := strings.TrimSpace(nameOrCode)
	if key == "" {
		return Country{}, false
	}

	if c, ok := Countries[strings.ToUpper(key)]; ok {
		return c, true
	}
	for _, c := range Countries {
		if strings.EqualFold(c.Name, key) {
			return c, true
		}
		for _, alias := range c.Aliases {
			if strings.EqualFold(alias, key) {
				return c, true
			}
		}
	}
	return Country{}, false
}
