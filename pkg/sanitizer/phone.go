package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	supportedRegions = []string{
		"US",
		"GB",
		"IL",
		"DE",
	}
)

// NormalizePhone formats the number as E.164. Numbers that do not parse are
// returned trimmed but otherwise untouched so validation can reject them.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return phone
}
