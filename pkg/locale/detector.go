package locale

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// RegionOfPhone returns the ISO region of an E.164 number, or "" when the
// number cannot be attributed to a region.
func RegionOfPhone(phone string) string {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return ""
	}

	number, err := phonenumbers.Parse(normalized, "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(number)
}

// PhoneMatchesCountry reports whether a hotel phone plausibly belongs to its
// country. Unknown countries and unattributable numbers are not rejected.
func PhoneMatchesCountry(phone, country string) bool {
	c, ok := LookupCountry(country)
	if !ok {
		return true
	}
	region := RegionOfPhone(phone)
	if region == "" {
		return true
	}
	return region == c.Code
}
