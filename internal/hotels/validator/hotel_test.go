package validator

import (
	"errors"
	"strings"
	"testing"

	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/shopspring/decimal"
)

func newTestValidator() *HotelValidator {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewHotelValidator(log)
}

func validHotel() *model.Hotel {
	return &model.Hotel{
		Name:           "Harbor View",
		Address:        "1 Pier Street",
		City:           "New York",
		Country:        "United States",
		Phone:          "+16502530000",
		Rating:         4.5,
		PricePerNight:  decimal.RequireFromString("189.99"),
		TotalRooms:     40,
		AvailableRooms: 12,
		Amenities:      []string{"wifi", "pool"},
		Images:         []string{"https://example.com/a.jpg"},
	}
}

func TestValidate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		mutate    func(h *model.Hotel)
		wantError string
	}{
		{name: "valid hotel", mutate: func(h *model.Hotel) {}},
		{name: "missing name", mutate: func(h *model.Hotel) { h.Name = "" }, wantError: "name"},
		{name: "rating above five", mutate: func(h *model.Hotel) { h.Rating = 5.5 }, wantError: "rating"},
		{name: "negative price", mutate: func(h *model.Hotel) { h.PricePerNight = decimal.NewFromInt(-1) }, wantError: "price_per_night"},
		{name: "sub-cent price", mutate: func(h *model.Hotel) { h.PricePerNight = decimal.RequireFromString("10.125") }, wantError: "price_per_night"},
		{name: "trailing zeros are cents", mutate: func(h *model.Hotel) { h.PricePerNight = decimal.RequireFromString("10.1200") }},
		{name: "available exceeds total", mutate: func(h *model.Hotel) { h.AvailableRooms = 41 }, wantError: "available_rooms"},
		{name: "bad image url", mutate: func(h *model.Hotel) { h.Images = []string{"not a url"} }, wantError: "images"},
		{name: "phone from another country", mutate: func(h *model.Hotel) { h.Phone = "+442070313000" }, wantError: "phone"},
		{name: "zero rooms allowed", mutate: func(h *model.Hotel) { h.TotalRooms, h.AvailableRooms = 0, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHotel()
			tt.mutate(h)
			err := v.Validate(h)

			if tt.wantError == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range verrs {
				if strings.HasPrefix(e.Field, tt.wantError) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tt.wantError, verrs)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()

	rating := 6.0
	if err := v.ValidateUpdate(&model.HotelUpdate{Rating: &rating}); err == nil {
		t.Error("expected error for rating 6")
	}

	name := "Harbor View Annex"
	if err := v.ValidateUpdate(&model.HotelUpdate{Name: &name}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	subCent := decimal.RequireFromString("10.125")
	if err := v.ValidateUpdate(&model.HotelUpdate{PricePerNight: &subCent}); err == nil {
		t.Error("expected error for price 10.125")
	}

	cents := decimal.RequireFromString("10.13")
	if err := v.ValidateUpdate(&model.HotelUpdate{PricePerNight: &cents}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
