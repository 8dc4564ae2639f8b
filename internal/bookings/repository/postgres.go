package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	bookingserrors "innkeep/internal/bookings/errors"
	"innkeep/pkg/config"
	"innkeep/pkg/db/postgres"
	"innkeep/pkg/model"

	"github.com/google/uuid"
)

const bookingColumns = `id, hotel_id, user_id, check_in_date, check_out_date, num_guests,
	room_type, total_price, status, special_requests, created_at, updated_at`

type postgresBookingRepository struct {
	cfg       *config.Config
	db        *sql.DB
	txManager postgres.TransactionManager
}

func NewPostgresBookingRepository(cfg *config.Config) BookingRepository {
	return &postgresBookingRepository{
		cfg:       cfg,
		db:        cfg.Client.Postgres,
		txManager: postgres.NewTransactionManager(cfg.Client.Postgres, cfg.PostgresLockTimeout),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b                 model.Booking
		checkIn, checkOut time.Time
		status            string
		specialRequests   sql.NullString
	)
	err := row.Scan(&b.ID, &b.HotelID, &b.UserID, &checkIn, &checkOut, &b.NumGuests,
		&b.RoomType, &b.TotalPrice, &status, &specialRequests, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.CheckIn = model.DateOf(checkIn)
	b.CheckOut = model.DateOf(checkOut)
	b.Status = model.BookingStatus(status)
	b.SpecialRequests = specialRequests.String
	return &b, nil
}

func pgError(op string, err error) error {
	if postgres.IsRetryable(err) || postgres.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s: %v", bookingserrors.ErrConflict, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (r *postgresBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		booking.ID, booking.HotelID, booking.UserID, booking.CheckIn.Time(), booking.CheckOut.Time(),
		booking.NumGuests, booking.RoomType, booking.TotalPrice, string(booking.Status),
		booking.SpecialRequests, booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		return pgError("create booking", err)
	}
	return nil
}

func (r *postgresBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE bookings SET check_in_date = $2, check_out_date = $3, num_guests = $4,
		 room_type = $5, total_price = $6, status = $7, special_requests = $8, updated_at = $9
		 WHERE id = $1`,
		booking.ID, booking.CheckIn.Time(), booking.CheckOut.Time(), booking.NumGuests,
		booking.RoomType, booking.TotalPrice, string(booking.Status), booking.SpecialRequests,
		booking.UpdatedAt)
	if err != nil {
		return pgError("update booking", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	row := postgres.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, pgError("find booking", err)
	}
	return b, nil
}

func (r *postgresBookingRepository) FindByUser(ctx context.Context, userID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE user_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC, id
		 LIMIT $3 OFFSET $4`,
		userID, string(status), limit, offset)
}

func (r *postgresBookingRepository) CountByUser(ctx context.Context, userID string, status model.BookingStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND ($2 = '' OR status = $2)`,
		userID, string(status)).Scan(&count)
	if err != nil {
		return 0, pgError("count bookings", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) CountConfirmedOverlapping(ctx context.Context, hotelID string, rng model.DateRange, excludeID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// excludeID is compared as text so an empty value matches nothing.
	var count int
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE hotel_id = $1 AND status = $2
		   AND check_in_date < $4 AND check_out_date > $3
		   AND id::text <> $5`,
		hotelID, string(model.BookingConfirmed), rng.CheckIn.Time(), rng.CheckOut.Time(), excludeID).Scan(&count)
	if err != nil {
		return 0, pgError("count overlapping bookings", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) CountActiveByHotel(ctx context.Context, hotelID string, today model.Date) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE hotel_id = $1 AND status = $2 AND check_out_date > $3`,
		hotelID, string(model.BookingConfirmed), today.Time()).Scan(&count)
	if err != nil {
		return 0, pgError("count active bookings", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) FindDueForCompletion(ctx context.Context, today model.Date, limit int) ([]*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = $1 AND check_out_date <= $2
		 ORDER BY check_out_date, id
		 LIMIT $3`,
		string(model.BookingConfirmed), today.Time(), limit)
}

func (r *postgresBookingRepository) query(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgError("query bookings", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("iterate bookings", err)
	}
	return bookings, nil
}

// LockHotel takes a row lock on the hotel until the surrounding transaction ends.
// Concurrent writers for the same hotel queue here, bounded by lock_timeout.
func (r *postgresBookingRepository) LockHotel(ctx context.Context, hotelID string) error {
	if !postgres.InTransaction(ctx) {
		return fmt.Errorf("LockHotel requires a transaction")
	}

	var id string
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM hotels WHERE id = $1 FOR UPDATE`, hotelID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bookingserrors.ErrHotelNotFound
		}
		return pgError("lock hotel", err)
	}
	return nil
}

func (r *postgresBookingRepository) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	err := r.txManager.ExecuteTransaction(ctx, postgres.TransactionFunc(fn))
	if err != nil && postgres.IsRetryable(err) && !errors.Is(err, bookingserrors.ErrConflict) {
		return fmt.Errorf("%w: %v", bookingserrors.ErrConflict, err)
	}
	return err
}
