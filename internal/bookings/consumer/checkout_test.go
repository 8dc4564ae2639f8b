package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/pkg/kafka"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

type completerFunc func(ctx context.Context, id string) (*model.Booking, error)

func (f completerFunc) Complete(ctx context.Context, id string) (*model.Booking, error) {
	return f(ctx, id)
}

func TestCheckoutHandler(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		raw      []byte
		result   error
		wantType kafka.ErrorType
		wantNil  bool
	}{
		{
			name:    "completed",
			payload: model.CheckoutEvent{BookingID: "b1"},
			wantNil: true,
		},
		{
			name:     "malformed payload",
			raw:      []byte(`{"booking_id":`),
			wantType: kafka.ErrorTypePermanent,
		},
		{
			name:     "missing booking id",
			payload:  model.CheckoutEvent{},
			wantType: kafka.ErrorTypePermanent,
		},
		{
			name:     "stay not over",
			payload:  model.CheckoutEvent{BookingID: "b1"},
			result:   fmt.Errorf("%w: not yet", bookingserrors.ErrIllegalTransition),
			wantType: kafka.ErrorTypeBusiness,
		},
		{
			name:     "unknown booking",
			payload:  model.CheckoutEvent{BookingID: "b1"},
			result:   bookingserrors.ErrNotFound,
			wantType: kafka.ErrorTypeBusiness,
		},
		{
			name:     "lock conflict retried",
			payload:  model.CheckoutEvent{BookingID: "b1"},
			result:   bookingserrors.ErrConflict,
			wantType: kafka.ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			h := NewCheckoutHandler(completerFunc(func(ctx context.Context, id string) (*model.Booking, error) {
				gotID = id
				if tt.result != nil {
					return nil, tt.result
				}
				return &model.Booking{ID: id, HotelID: "h1", Status: model.BookingCompleted}, nil
			}), logger.Discard())

			builder := kafka.NewMessage().WithKey("h1")
			if tt.raw != nil {
				builder = builder.WithRawValue(tt.raw)
			} else {
				builder = builder.WithValue(tt.payload)
			}

			err := h.Handle(context.Background(), builder.Build())
			if tt.wantNil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if gotID != "b1" {
					t.Errorf("expected booking b1 completed, got %q", gotID)
				}
				return
			}
			if got := kafka.ClassifyError(err); got != tt.wantType {
				t.Errorf("expected error type %v, got %v (%v)", tt.wantType, got, err)
			}
		})
	}
}

type stubConsumer struct {
	err    error
	closed bool
}

func (s *stubConsumer) Start(ctx context.Context) error {
	<-ctx.Done()
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func (s *stubConsumer) Close() error {
	s.closed = true
	return nil
}

func TestWorker_StopsWithContext(t *testing.T) {
	c := &stubConsumer{err: errors.New("fetch failed")}
	w := NewWorker(c, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()
	<-done

	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.closed {
		t.Error("expected consumer to be closed")
	}
}
