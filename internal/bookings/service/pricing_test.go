package service

import (
	"testing"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/pkg/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		nights int
		rate   string
		want   string
	}{
		{nights: 1, rate: "99.99", want: "99.99"},
		{nights: 3, rate: "0.10", want: "0.3"},
		{nights: 7, rate: "133.33", want: "933.31"},
		{nights: 2, rate: "0", want: "0"},
	}
	for _, tt := range tests {
		got := Price(tt.nights, decimal.RequireFromString(tt.rate))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%d x %s = %s", tt.nights, tt.rate, got)
	}
}

func TestRemainingRooms(t *testing.T) {
	assert.Equal(t, 3, RemainingRooms(5, 2))
	assert.Equal(t, 0, RemainingRooms(2, 2))
	assert.Equal(t, 0, RemainingRooms(1, 4), "never negative")
}

func TestLifecycleGuards(t *testing.T) {
	day := model.NewDate(2031, time.June, 10)
	b := &model.Booking{Status: model.BookingConfirmed, CheckIn: day, CheckOut: day.AddDays(2)}

	assert.NoError(t, canModify(b))
	assert.NoError(t, canCancel(b, day.AddDays(-1)))
	assert.ErrorIs(t, canCancel(b, day), bookingserrors.ErrIllegalTransition)
	assert.ErrorIs(t, canComplete(b, day.AddDays(1)), bookingserrors.ErrIllegalTransition)
	assert.NoError(t, canComplete(b, day.AddDays(2)))

	for _, status := range []model.BookingStatus{model.BookingCancelled, model.BookingCompleted} {
		terminal := *b
		terminal.Status = status
		assert.ErrorIs(t, canModify(&terminal), bookingserrors.ErrIllegalTransition)
		assert.ErrorIs(t, canCancel(&terminal, day.AddDays(-5)), bookingserrors.ErrIllegalTransition)
		assert.ErrorIs(t, canComplete(&terminal, day.AddDays(5)), bookingserrors.ErrIllegalTransition)
	}
}
