//go:build integration

package repository

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
	hotelsrepo "innkeep/internal/hotels/repository"
	postgresMigration "innkeep/internal/migrations/postgres"
	"innkeep/pkg/client"
	"innkeep/pkg/config"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// POSTGRES_DSN must point at a database the test user can create schemas in.
// Every test gets its own schema, migrated with the embedded goose files.

func postgresIntegrationConfig(t *testing.T) *config.Config {
	t.Helper()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, admin.PingContext(ctx))

	schema := "innkeep_it_" + uuid.NewString()[:8]
	_, err = admin.ExecContext(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := sql.Open("postgres", u.String())
	require.NoError(t, err)
	require.NoError(t, postgresMigration.RunMigration(ctx, db, logger.Discard()))

	c := client.NewClient()
	c.Postgres = db

	cfg := &config.Config{
		PostgresLockTimeout: 2 * time.Second,
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		Log:                 logger.Discard(),
		Client:              c,
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.GracefulShutdown(cfg.Log)
		_, _ = admin.ExecContext(ctx, "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close()
	})
	return cfg
}

func insertHotel(t *testing.T, db *sql.DB, rooms int) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO hotels (id, name, address, city, country, price_per_night,
			total_rooms, available_rooms, created_at, updated_at)
		 VALUES ($1, 'Harbour View', '1 Pier Rd', 'Lisbon', 'Portugal', 120.50, $2, $2, $3, $3)`,
		id, rooms, now)
	require.NoError(t, err)
	return id
}

func pgBooking(hotelID string, in model.Date, nights int, status model.BookingStatus) *model.Booking {
	now := time.Now().UTC()
	return &model.Booking{
		ID:         uuid.NewString(),
		HotelID:    hotelID,
		UserID:     "guest-1",
		CheckIn:    in,
		CheckOut:   in.AddDays(nights),
		NumGuests:  2,
		RoomType:   "double",
		TotalPrice: decimal.RequireFromString("241.00"),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestPostgresBookingRepository_CountConfirmedOverlapping(t *testing.T) {
	cfg := postgresIntegrationConfig(t)
	repo := NewPostgresBookingRepository(cfg)
	ctx := context.Background()

	hotelID := insertHotel(t, cfg.Client.Postgres, 2)
	in := model.NewDate(2031, time.March, 10)

	confirmed := pgBooking(hotelID, in, 3, model.BookingConfirmed)
	require.NoError(t, repo.Create(ctx, confirmed))
	require.NoError(t, repo.Create(ctx, pgBooking(hotelID, in, 3, model.BookingCancelled)))

	within, err := model.NewDateRange(in.AddDays(1), in.AddDays(2))
	require.NoError(t, err)
	adjacent, err := model.NewDateRange(in.AddDays(3), in.AddDays(4))
	require.NoError(t, err)
	before, err := model.NewDateRange(in.AddDays(-2), in)
	require.NoError(t, err)

	tests := []struct {
		name      string
		rng       model.DateRange
		excludeID string
		want      int
	}{
		{"overlapping night", within, "", 1},
		{"check-out day is free", adjacent, "", 0},
		{"range ending on check-in", before, "", 0},
		{"own booking excluded", within, confirmed.ID, 0},
		{"other id excluded", within, uuid.NewString(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.CountConfirmedOverlapping(ctx, hotelID, tt.rng, tt.excludeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestPostgresBookingRepository_FindDueForCompletion(t *testing.T) {
	cfg := postgresIntegrationConfig(t)
	repo := NewPostgresBookingRepository(cfg)
	ctx := context.Background()

	hotelID := insertHotel(t, cfg.Client.Postgres, 5)
	today := model.NewDate(2031, time.June, 15)

	// Check-outs fall on today-1, today-3, today and today+1; the cancelled stay is never due.
	dueLate := pgBooking(hotelID, today.AddDays(-3), 2, model.BookingConfirmed)
	dueEarly := pgBooking(hotelID, today.AddDays(-5), 2, model.BookingConfirmed)
	dueToday := pgBooking(hotelID, today.AddDays(-1), 1, model.BookingConfirmed)
	future := pgBooking(hotelID, today.AddDays(-1), 2, model.BookingConfirmed)
	cancelled := pgBooking(hotelID, today.AddDays(-6), 2, model.BookingCancelled)
	for _, b := range []*model.Booking{dueLate, dueEarly, dueToday, future, cancelled} {
		require.NoError(t, repo.Create(ctx, b))
	}

	due, err := repo.FindDueForCompletion(ctx, today, 10)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, dueEarly.ID, due[0].ID)
	assert.Equal(t, dueLate.ID, due[1].ID)
	assert.Equal(t, dueToday.ID, due[2].ID)

	limited, err := repo.FindDueForCompletion(ctx, today, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, dueEarly.ID, limited[0].ID)
}

func TestPostgresBookingRepository_LockHotelWaitsThenConflicts(t *testing.T) {
	cfg := postgresIntegrationConfig(t)
	cfg.PostgresLockTimeout = 200 * time.Millisecond
	repo := NewPostgresBookingRepository(cfg)
	ctx := context.Background()
	hotelID := insertHotel(t, cfg.Client.Postgres, 1)

	held := make(chan struct{})
	finish := make(chan struct{})
	var (
		first error
		wg    sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			if err := repo.LockHotel(txCtx, hotelID); err != nil {
				return err
			}
			close(held)
			<-finish
			return nil
		})
	}()

	<-held
	start := time.Now()
	second := repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return repo.LockHotel(txCtx, hotelID)
	})
	waited := time.Since(start)
	close(finish)
	wg.Wait()

	require.NoError(t, first)
	assert.ErrorIs(t, second, bookingserrors.ErrConflict)
	assert.GreaterOrEqual(t, waited, 150*time.Millisecond)

	err := repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return repo.LockHotel(txCtx, hotelID)
	})
	assert.NoError(t, err)
}

func TestPostgresBookingRepository_LockHotelErrors(t *testing.T) {
	cfg := postgresIntegrationConfig(t)
	repo := NewPostgresBookingRepository(cfg)
	ctx := context.Background()

	assert.Error(t, repo.LockHotel(ctx, insertHotel(t, cfg.Client.Postgres, 1)))

	err := repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return repo.LockHotel(txCtx, uuid.NewString())
	})
	assert.ErrorIs(t, err, bookingserrors.ErrHotelNotFound)
}

func TestPostgresHotelDelete_KeepsBookingHistory(t *testing.T) {
	cfg := postgresIntegrationConfig(t)
	repo := NewPostgresBookingRepository(cfg)
	hotels := hotelsrepo.NewPostgresHotelRepository(cfg)
	ctx := context.Background()

	hotelID := insertHotel(t, cfg.Client.Postgres, 1)
	today := model.NewDate(2031, time.June, 15)
	past := pgBooking(hotelID, today.AddDays(-4), 2, model.BookingCompleted)
	upcoming := pgBooking(hotelID, today.AddDays(3), 2, model.BookingConfirmed)
	require.NoError(t, repo.Create(ctx, past))
	require.NoError(t, repo.Create(ctx, upcoming))

	active, err := repo.CountActiveByHotel(ctx, hotelID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	upcoming.Status = model.BookingCancelled
	require.NoError(t, repo.Update(ctx, upcoming))

	err = repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.LockHotel(txCtx, hotelID); err != nil {
			return err
		}
		active, err := repo.CountActiveByHotel(txCtx, hotelID, today)
		if err != nil {
			return err
		}
		require.Zero(t, active)
		return hotels.Delete(txCtx, hotelID)
	})
	require.NoError(t, err)

	kept, err := repo.FindByID(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, hotelID, kept.HotelID)

	err = repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return repo.LockHotel(txCtx, hotelID)
	})
	assert.ErrorIs(t, err, bookingserrors.ErrHotelNotFound)
}
