package consumer

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/pkg/kafka"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

type bookingCompleter interface {
	Complete(ctx context.Context, id string) (*model.Booking, error)
}

// CheckoutHandler completes a booking when the front desk reports the guest left.
type CheckoutHandler struct {
	bookings bookingCompleter
	log      *logger.Logger
}

func NewCheckoutHandler(bookings bookingCompleter, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		bookings: bookings,
		log:      log,
	}
}

// Handle classifies failures for the consumer: malformed events and business
// rejections go to the DLQ, lock conflicts are retried.
func (h *CheckoutHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.CheckoutEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("checkout event deserialization failed", err)
	}
	if event.BookingID == "" {
		return kafka.NewPermanentError("checkout event without booking_id", kafka.ErrInvalidMessage)
	}

	booking, err := h.bookings.Complete(ctx, event.BookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrConflict):
			return kafka.NewTransientError("hotel busy", err)
		case errors.Is(err, bookingserrors.ErrNotFound),
			errors.Is(err, bookingserrors.ErrIllegalTransition):
			return kafka.NewBusinessError(fmt.Sprintf("checkout of booking %s rejected", event.BookingID), err).
				WithDetail("booking_id", event.BookingID)
		}
		return kafka.NewTransientError("failed to complete booking", err)
	}

	h.log.Info("Booking completed from checkout event",
		"id", booking.ID,
		"hotel_id", booking.HotelID,
		"event_id", msg.GetEventID(),
	)
	return nil
}

type messageConsumer interface {
	Start(ctx context.Context) error
	Close() error
}

// Worker runs a kafka consumer as a background worker of the application.
type Worker struct {
	consumer messageConsumer
	log      *logger.Logger
}

func NewWorker(consumer messageConsumer, log *logger.Logger) *Worker {
	return &Worker{consumer: consumer, log: log}
}

func (w *Worker) Name() string {
	return "checkout-consumer"
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Checkout consumer started")
	if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Error("Checkout consumer stopped with error", "error", err)
		return
	}
	w.log.Info("Checkout consumer stopped")
}

func (w *Worker) Close() error {
	return w.consumer.Close()
}
