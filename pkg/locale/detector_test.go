package locale

import (
	"testing"
)

func TestLookupCountry(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
		wantOK   bool
	}{
		{name: "iso code", input: "us", wantCode: "US", wantOK: true},
		{name: "full name", input: "Germany", wantCode: "DE", wantOK: true},
		{name: "alias", input: "  uk ", wantCode: "GB", wantOK: true},
		{name: "unknown", input: "Atlantis", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupCountry(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("LookupCountry(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got.Code != tt.wantCode {
				t.Errorf("LookupCountry(%q).Code = %q, want %q", tt.input, got.Code, tt.wantCode)
			}
		})
	}
}

func TestRegionOfPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{phone: "+16502530000", want: "US"},
		{phone: "+442070313000", want: "GB"},
		{phone: "", want: ""},
		{phone: "not-a-phone", want: ""},
	}

	for _, tt := range tests {
		if got := RegionOfPhone(tt.phone); got != tt.want {
			t.Errorf("RegionOfPhone(%q) = %q, want %q", tt.phone, got, tt.want)
		}
	}
}

func TestPhoneMatchesCountry(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		country string
		want    bool
	}{
		{name: "matching", phone: "+16502530000", country: "United States", want: true},
		{name: "mismatch", phone: "+442070313000", country: "Germany", want: false},
		{name: "unknown country", phone: "+442070313000", country: "Atlantis", want: true},
		{name: "unparseable phone", phone: "desk", country: "Israel", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhoneMatchesCountry(tt.phone, tt.country); got != tt.want {
				t.Errorf("PhoneMatchesCountry(%q, %q) = %v, want %v", tt.phone, tt.country, got, tt.want)
			}
		})
	}
}
