package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/internal/bookings/repository"
	"innkeep/internal/bookings/validator"
	hotelserrors "innkeep/internal/hotels/errors"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────

type fakeCatalog struct {
	mu     sync.Mutex
	hotels map[string]*model.Hotel
}

func (c *fakeCatalog) GetByID(_ context.Context, id string) (*model.Hotel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hotels[id]
	if !ok {
		return nil, apperrors.Wrap(hotelserrors.ErrNotFound, apperrors.CodeNotFound, "Hotel not found", http.StatusNotFound)
	}
	copied := *h
	return &copied, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// flakyLocker fails the first n acquisitions with ErrConflict.
type flakyLocker struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (l *flakyLocker) Acquire(context.Context, string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.calls <= l.failures {
		return nil, bookingserrors.ErrConflict
	}
	return func() {}, nil
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

var today = model.NewDate(2031, time.January, 1)

type fixture struct {
	svc       BookingService
	repo      repository.BookingRepository
	catalog   *fakeCatalog
	publisher *recordingPublisher
	clock     *testClock
	hotelID   string
	cfg       *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                 logger.Discard(),
		BookingMaxRetries:   3,
		BookingRetryBackoff: time.Millisecond,
		HotelLocation:       time.UTC,
		CompletionBatchSize: 100,
	}
}

func newFixture(t *testing.T, rooms int, opts ...func(*fixture)) *fixture {
	t.Helper()
	f := &fixture{
		repo:      repository.NewMemoryBookingRepository(),
		catalog:   &fakeCatalog{hotels: map[string]*model.Hotel{}},
		publisher: &recordingPublisher{},
		clock:     &testClock{t: today.Time().Add(10 * time.Hour)},
		hotelID:   uuid.NewString(),
		cfg:       testConfig(),
	}
	f.catalog.hotels[f.hotelID] = &model.Hotel{
		ID:             f.hotelID,
		Name:           "Harbour View",
		PricePerNight:  decimal.RequireFromString("120.50"),
		TotalRooms:     rooms + 2,
		AvailableRooms: rooms,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.svc = f.build(repository.NewMemoryHotelLocker(2 * time.Second))
	return f
}

func (f *fixture) build(locker repository.HotelLocker) BookingService {
	return NewBookingService(f.repo, locker, f.catalog, validator.NewBookingValidator(f.cfg.Log), f.cfg,
		WithClock(f.clock.now),
		WithPublisher(f.publisher),
	)
}

func (f *fixture) request(in, out int) *model.BookingRequest {
	return &model.BookingRequest{
		HotelID:   f.hotelID,
		CheckIn:   today.AddDays(in).String(),
		CheckOut:  today.AddDays(out).String(),
		NumGuests: 2,
		RoomType:  "Double",
	}
}

func (f *fixture) create(t *testing.T, user string, in, out int) *model.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), user, f.request(in, out))
	require.NoError(t, err)
	return b
}

func strPtr(s string) *string { return &s }

func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.StatusCode())
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	f := newFixture(t, 3)

	b := f.create(t, "alice", 10, 13)

	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, "alice", b.UserID)
	assert.Equal(t, "double", b.RoomType)
	assert.True(t, decimal.RequireFromString("361.50").Equal(b.TotalPrice), "got %s", b.TotalPrice)
	assert.False(t, b.CreatedAt.IsZero())

	stored, err := f.repo.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.TotalPrice.String(), stored.TotalPrice.String())
	assert.Equal(t, []string{model.EventBookingCreated}, f.publisher.types())
}

func TestCreate_CapacityIsExact(t *testing.T) {
	const rooms = 4
	f := newFixture(t, rooms)

	for i := 0; i < rooms; i++ {
		f.create(t, "guest", 10, 13)
	}

	_, err := f.svc.Create(context.Background(), "late", f.request(10, 13))
	assert.ErrorIs(t, err, bookingserrors.ErrNoAvailability)
	requireCode(t, err, bookingserrors.CodeNoAvailability, http.StatusConflict)
}

func TestCreate_SingleRoomScenario(t *testing.T) {
	f := newFixture(t, 1)

	f.create(t, "a", 10, 13)

	_, err := f.svc.Create(context.Background(), "b", f.request(11, 12))
	assert.ErrorIs(t, err, bookingserrors.ErrNoAvailability)

	f.create(t, "c", 13, 15)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, r *model.BookingRequest)
		want   error
		code   string
		status int
	}{
		{
			name:   "same day",
			mutate: func(f *fixture, r *model.BookingRequest) { r.CheckOut = r.CheckIn },
			want:   bookingserrors.ErrInvalidRange, code: bookingserrors.CodeInvalidRange, status: http.StatusBadRequest,
		},
		{
			name:   "inverted",
			mutate: func(f *fixture, r *model.BookingRequest) { r.CheckIn, r.CheckOut = r.CheckOut, r.CheckIn },
			want:   bookingserrors.ErrInvalidRange, code: bookingserrors.CodeInvalidRange, status: http.StatusBadRequest,
		},
		{
			name:   "yesterday",
			mutate: func(f *fixture, r *model.BookingRequest) { r.CheckIn = today.AddDays(-1).String() },
			want:   bookingserrors.ErrPastCheckIn, code: bookingserrors.CodePastCheckIn, status: http.StatusBadRequest,
		},
		{
			name:   "unknown hotel",
			mutate: func(f *fixture, r *model.BookingRequest) { r.HotelID = uuid.NewString() },
			want:   bookingserrors.ErrHotelNotFound, code: bookingserrors.CodeHotelNotFound, status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1)
			req := f.request(3, 5)
			tt.mutate(f, req)

			_, err := f.svc.Create(context.Background(), "alice", req)
			assert.ErrorIs(t, err, tt.want)
			requireCode(t, err, tt.code, tt.status)
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestCreate_TodayIsAllowed(t *testing.T) {
	f := newFixture(t, 1)
	f.create(t, "alice", 0, 1)
}

func TestCreate_ValidationFailure(t *testing.T) {
	f := newFixture(t, 1)
	req := f.request(1, 2)
	req.NumGuests = 0

	_, err := f.svc.Create(context.Background(), "alice", req)
	requireCode(t, err, apperrors.CodeValidation, http.StatusUnprocessableEntity)
}

func TestCreate_RequiresUser(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Create(context.Background(), "", f.request(1, 2))
	requireCode(t, err, apperrors.CodeUnauthorized, http.StatusUnauthorized)
}

func TestCreate_TodayFollowsHotelTimezone(t *testing.T) {
	f := newFixture(t, 1, func(f *fixture) {
		f.cfg.HotelLocation = time.FixedZone("UTC+10", 10*60*60)
		// 20:00 UTC on Jan 1 is already Jan 2 at the hotel.
		f.clock.set(today.Time().Add(20 * time.Hour))
	})

	_, err := f.svc.Create(context.Background(), "alice", f.request(0, 2))
	assert.ErrorIs(t, err, bookingserrors.ErrPastCheckIn)

	f.create(t, "alice", 1, 2)
}

func TestCreate_ParallelRequestsForLastRoom(t *testing.T) {
	f := newFixture(t, 1)
	const n = 25

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		others    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), uuid.NewString(), f.request(10, 13))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, bookingserrors.ErrNoAvailability), errors.Is(err, bookingserrors.ErrConflict):
				rejected++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, rejected)

	count, err := f.repo.CountConfirmedOverlapping(context.Background(), f.hotelID,
		model.DateRange{CheckIn: today.AddDays(10), CheckOut: today.AddDays(13)}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// ────────────────────────────────────────────────
// Conflict retry
// ────────────────────────────────────────────────

func TestCreate_RetriesConflicts(t *testing.T) {
	f := newFixture(t, 1)
	locker := &flakyLocker{failures: 2}
	svc := f.build(locker)

	_, err := svc.Create(context.Background(), "alice", f.request(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, locker.calls)
}

func TestCreate_ConflictSurfacesAfterRetries(t *testing.T) {
	f := newFixture(t, 1)
	locker := &flakyLocker{failures: 100}
	svc := f.build(locker)

	_, err := svc.Create(context.Background(), "alice", f.request(1, 2))
	assert.ErrorIs(t, err, bookingserrors.ErrConflict)
	requireCode(t, err, apperrors.CodeConflict, http.StatusConflict)
	assert.Equal(t, true, apperrors.AsAppError(err).Details["retryable"])
	assert.Equal(t, f.cfg.BookingMaxRetries+1, locker.calls)
}

// stallingRepo keeps every transaction open until its context ends.
type stallingRepo struct {
	repository.BookingRepository
	mu    sync.Mutex
	calls int
}

func (r *stallingRepo) ExecuteTransaction(ctx context.Context, _ repository.TransactionFunc) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestCreate_TransactionOutlivingLeaseIsConflict(t *testing.T) {
	f := newFixture(t, 1)
	f.cfg.LockTTL = 20 * time.Millisecond
	f.cfg.BookingMaxRetries = 1
	stalled := &stallingRepo{BookingRepository: f.repo}
	f.repo = stalled
	svc := f.build(repository.NewMemoryHotelLocker(time.Second))

	_, err := svc.Create(context.Background(), "alice", f.request(1, 2))
	assert.ErrorIs(t, err, bookingserrors.ErrConflict)
	requireCode(t, err, apperrors.CodeConflict, http.StatusConflict)
	assert.Equal(t, 2, stalled.calls)
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t, 1)
	f.publisher.err = errors.New("broker down")

	b := f.create(t, "alice", 1, 2)

	_, err := f.repo.FindByID(context.Background(), b.ID)
	assert.NoError(t, err)
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel_BeforeAndOnCheckIn(t *testing.T) {
	f := newFixture(t, 2)
	first := f.create(t, "alice", 5, 8)
	second := f.create(t, "alice", 5, 8)

	cancelled, err := f.svc.Cancel(context.Background(), first.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.True(t, cancelled.UpdatedAt.Equal(f.clock.now().UTC()))

	f.clock.set(today.AddDays(5).Time().Add(9 * time.Hour))
	_, err = f.svc.Cancel(context.Background(), second.ID, "alice")
	assert.ErrorIs(t, err, bookingserrors.ErrIllegalTransition)
	requireCode(t, err, bookingserrors.CodeIllegalTransition, http.StatusConflict)
}

func TestCancel_Twice(t *testing.T) {
	f := newFixture(t, 1)
	b := f.create(t, "alice", 5, 8)

	_, err := f.svc.Cancel(context.Background(), b.ID, "alice")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), b.ID, "alice")
	assert.ErrorIs(t, err, bookingserrors.ErrIllegalTransition)
	assert.Equal(t, []string{model.EventBookingCreated, model.EventBookingCancelled}, f.publisher.types())
}

func TestCancel_FreesOnlyItsOwnNights(t *testing.T) {
	f := newFixture(t, 1)
	b := f.create(t, "alice", 5, 8)
	f.create(t, "bob", 10, 12)

	before, err := f.svc.CheckAvailability(context.Background(), f.hotelID, today.AddDays(10), today.AddDays(12))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), b.ID, "alice")
	require.NoError(t, err)

	after, err := f.svc.CheckAvailability(context.Background(), f.hotelID, today.AddDays(10), today.AddDays(12))
	require.NoError(t, err)
	assert.Equal(t, before.RemainingRooms, after.RemainingRooms)

	f.create(t, "carol", 5, 8)
}

func TestCancel_OtherUser(t *testing.T) {
	f := newFixture(t, 1)
	b := f.create(t, "alice", 5, 8)

	_, err := f.svc.Cancel(context.Background(), b.ID, "mallory")
	assert.ErrorIs(t, err, bookingserrors.ErrForbidden)
	requireCode(t, err, apperrors.CodeForbidden, http.StatusForbidden)
}

func TestCancel_Missing(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Cancel(context.Background(), uuid.NewString(), "alice")
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
	requireCode(t, err, apperrors.CodeNotFound, http.StatusNotFound)

	_, err = f.svc.Cancel(context.Background(), "42", "alice")
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
	requireCode(t, err, apperrors.CodeNotFound, http.StatusNotFound)

	_, err = f.svc.GetByID(context.Background(), "42", "alice")
	requireCode(t, err, apperrors.CodeNotFound, http.StatusNotFound)
}

// ────────────────────────────────────────────────
// Modify
// ────────────────────────────────────────────────

func TestModify_IntoConflictingRange(t *testing.T) {
	f := newFixture(t, 1)
	mine := f.create(t, "alice", 1, 3)
	f.create(t, "bob", 5, 8)

	_, err := f.svc.Modify(context.Background(), mine.ID, "alice", &model.BookingUpdate{
		CheckOut: strPtr(today.AddDays(6).String()),
	})
	assert.ErrorIs(t, err, bookingserrors.ErrNoAvailability)

	stored, err := f.repo.FindByID(context.Background(), mine.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckOut.Equal(today.AddDays(3)))
	assert.Equal(t, mine.TotalPrice.String(), stored.TotalPrice.String())
}

func TestModify_ExtendsOverItsOwnNights(t *testing.T) {
	f := newFixture(t, 1)
	mine := f.create(t, "alice", 1, 3)

	modified, err := f.svc.Modify(context.Background(), mine.ID, "alice", &model.BookingUpdate{
		CheckIn:  strPtr(today.AddDays(2).String()),
		CheckOut: strPtr(today.AddDays(5).String()),
	})
	require.NoError(t, err)
	assert.True(t, modified.CheckIn.Equal(today.AddDays(2)))
	assert.True(t, decimal.RequireFromString("361.50").Equal(modified.TotalPrice))
	assert.Equal(t, model.EventBookingModified, f.publisher.types()[1])
}

func TestModify_NonDateFieldsKeepPrice(t *testing.T) {
	f := newFixture(t, 1)
	mine := f.create(t, "alice", 1, 3)

	f.catalog.hotels[f.hotelID].PricePerNight = decimal.NewFromInt(999)
	guests := 3
	modified, err := f.svc.Modify(context.Background(), mine.ID, "alice", &model.BookingUpdate{
		NumGuests:       &guests,
		SpecialRequests: strPtr("  late   arrival "),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, modified.NumGuests)
	assert.Equal(t, "late arrival", modified.SpecialRequests)
	assert.Equal(t, mine.TotalPrice.String(), modified.TotalPrice.String())
}

func TestModify_PastCheckInOnlyWhenCheckInMoves(t *testing.T) {
	f := newFixture(t, 1)
	mine := f.create(t, "alice", 1, 3)

	// Guest is mid-stay.
	f.clock.set(today.AddDays(2).Time().Add(8 * time.Hour))

	extended, err := f.svc.Modify(context.Background(), mine.ID, "alice", &model.BookingUpdate{
		CheckOut: strPtr(today.AddDays(4).String()),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, extended.Range().Nights())

	_, err = f.svc.Modify(context.Background(), mine.ID, "alice", &model.BookingUpdate{
		CheckIn: strPtr(today.String()),
	})
	assert.ErrorIs(t, err, bookingserrors.ErrPastCheckIn)
}

func TestModify_InvalidRange(t *testing.T) {
	f := newFixture(t, 1)
	mine := f.create(t, "alice", 3, 5)

	_, err := f.svc.Modify(context.Background(), mine.ID, "alice", &model.BookingUpdate{
		CheckOut: strPtr(today.AddDays(3).String()),
	})
	assert.ErrorIs(t, err, bookingserrors.ErrInvalidRange)
}

func TestModify_TerminalAndForeign(t *testing.T) {
	f := newFixture(t, 1)
	mine := f.create(t, "alice", 3, 5)
	guests := 1

	_, err := f.svc.Modify(context.Background(), mine.ID, "bob", &model.BookingUpdate{NumGuests: &guests})
	assert.ErrorIs(t, err, bookingserrors.ErrForbidden)

	_, err = f.svc.Cancel(context.Background(), mine.ID, "alice")
	require.NoError(t, err)

	_, err = f.svc.Modify(context.Background(), mine.ID, "alice", &model.BookingUpdate{NumGuests: &guests})
	assert.ErrorIs(t, err, bookingserrors.ErrIllegalTransition)
}

// ────────────────────────────────────────────────
// Complete
// ────────────────────────────────────────────────

func TestComplete(t *testing.T) {
	f := newFixture(t, 1)
	b := f.create(t, "alice", 1, 3)

	_, err := f.svc.Complete(context.Background(), b.ID)
	assert.ErrorIs(t, err, bookingserrors.ErrIllegalTransition, "stay not finished")

	f.clock.set(today.AddDays(3).Time().Add(11 * time.Hour))
	completed, err := f.svc.Complete(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, completed.Status)

	_, err = f.svc.Complete(context.Background(), b.ID)
	assert.ErrorIs(t, err, bookingserrors.ErrIllegalTransition)

	_, err = f.svc.Cancel(context.Background(), b.ID, "alice")
	assert.ErrorIs(t, err, bookingserrors.ErrIllegalTransition)
}

func TestComplete_CancelledIsTerminal(t *testing.T) {
	f := newFixture(t, 1)
	b := f.create(t, "alice", 1, 3)
	_, err := f.svc.Cancel(context.Background(), b.ID, "alice")
	require.NoError(t, err)

	f.clock.set(today.AddDays(10).Time())
	_, err = f.svc.Complete(context.Background(), b.ID)
	assert.ErrorIs(t, err, bookingserrors.ErrIllegalTransition)
}

func TestCompleteDue(t *testing.T) {
	f := newFixture(t, 5)
	done := f.create(t, "alice", 1, 3)
	alsoDone := f.create(t, "bob", 2, 4)
	ongoing := f.create(t, "carol", 3, 9)
	cancelled := f.create(t, "dave", 1, 2)
	_, err := f.svc.Cancel(context.Background(), cancelled.ID, "dave")
	require.NoError(t, err)

	f.clock.set(today.AddDays(4).Time())
	n, err := f.svc.CompleteDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for id, want := range map[string]model.BookingStatus{
		done.ID:      model.BookingCompleted,
		alsoDone.ID:  model.BookingCompleted,
		ongoing.ID:   model.BookingConfirmed,
		cancelled.ID: model.BookingCancelled,
	} {
		b, err := f.repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Status, id)
	}

	n, err = f.svc.CompleteDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t, 2)
	f.create(t, "alice", 10, 13)

	a, err := f.svc.CheckAvailability(context.Background(), f.hotelID, today.AddDays(11), today.AddDays(12))
	require.NoError(t, err)
	assert.Equal(t, 1, a.RemainingRooms)
	assert.True(t, a.IsAvailable)
	assert.Equal(t, 4, a.TotalRooms)
	assert.Equal(t, 1, a.Nights)
	assert.True(t, decimal.RequireFromString("120.50").Equal(a.EstimatedPrice))

	f.create(t, "bob", 10, 13)
	a, err = f.svc.CheckAvailability(context.Background(), f.hotelID, today.AddDays(11), today.AddDays(12))
	require.NoError(t, err)
	assert.Zero(t, a.RemainingRooms)
	assert.False(t, a.IsAvailable)

	_, err = f.svc.CheckAvailability(context.Background(), f.hotelID, today.AddDays(3), today.AddDays(3))
	assert.ErrorIs(t, err, bookingserrors.ErrInvalidRange)

	_, err = f.svc.CheckAvailability(context.Background(), uuid.NewString(), today.AddDays(3), today.AddDays(4))
	assert.ErrorIs(t, err, bookingserrors.ErrHotelNotFound)
}

func TestGetByID_OwnerOnly(t *testing.T) {
	f := newFixture(t, 1)
	b := f.create(t, "alice", 1, 2)

	got, err := f.svc.GetByID(context.Background(), b.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetByID(context.Background(), b.ID, "bob")
	assert.ErrorIs(t, err, bookingserrors.ErrForbidden)
}

func TestListByUser(t *testing.T) {
	f := newFixture(t, 5)
	first := f.create(t, "alice", 1, 2)
	f.clock.set(f.clock.now().Add(time.Minute))
	second := f.create(t, "alice", 2, 3)
	f.create(t, "bob", 1, 2)
	_, err := f.svc.Cancel(context.Background(), first.ID, "alice")
	require.NoError(t, err)

	all, total, err := f.svc.ListByUser(context.Background(), "alice", "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	confirmed, total, err := f.svc.ListByUser(context.Background(), "alice", model.BookingConfirmed, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, second.ID, confirmed[0].ID)

	_, _, err = f.svc.ListByUser(context.Background(), "alice", "pending", 10, 0)
	requireCode(t, err, apperrors.CodeInvalidInput, http.StatusBadRequest)
}

// ────────────────────────────────────────────────
// Hotel deletion guard
// ────────────────────────────────────────────────

func TestHotelDeletionGuard(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	guard := NewHotelDeletionGuard(f.repo, repository.NewMemoryHotelLocker(time.Second), f.cfg, WithClock(f.clock.now))

	deleted := 0
	deleteFn := func(context.Context) error {
		deleted++
		return nil
	}

	b := f.create(t, "alice", 1, 3)

	err := guard.GuardHotelDeletion(ctx, f.hotelID, deleteFn)
	assert.ErrorIs(t, err, bookingserrors.ErrHotelHasBookings)
	requireCode(t, err, bookingserrors.CodeHotelHasBookings, http.StatusConflict)
	assert.Zero(t, deleted)

	// On the check-out day the stay no longer holds the hotel.
	f.clock.set(b.CheckOut.Time().Add(9 * time.Hour))
	require.NoError(t, guard.GuardHotelDeletion(ctx, f.hotelID, deleteFn))
	assert.Equal(t, 1, deleted)
}

func TestHotelDeletionGuard_CancelledStaysDoNotBlock(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	guard := NewHotelDeletionGuard(f.repo, repository.NewMemoryHotelLocker(time.Second), f.cfg, WithClock(f.clock.now))

	b := f.create(t, "alice", 4, 6)
	_, err := f.svc.Cancel(ctx, b.ID, "alice")
	require.NoError(t, err)

	gone := errors.New("hotel row already gone")
	err = guard.GuardHotelDeletion(ctx, f.hotelID, func(context.Context) error { return gone })
	assert.Equal(t, gone, err, "delete errors are returned untouched")
}
