package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	hotelserrors "innkeep/internal/hotels/errors"
	"innkeep/pkg/config"
	"innkeep/pkg/db/postgres"
	"innkeep/pkg/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const hotelColumns = `id, name, description, address, city, state, country, zip_code, phone, email,
	website, rating, price_per_night, total_rooms, available_rooms, amenities, images, created_at, updated_at`

type postgresHotelRepository struct {
	cfg *config.Config
	db  *sql.DB
}

func NewPostgresHotelRepository(cfg *config.Config) HotelRepository {
	return &postgresHotelRepository{
		cfg: cfg,
		db:  cfg.Client.Postgres,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(row rowScanner) (*model.Hotel, error) {
	var h model.Hotel
	err := row.Scan(&h.ID, &h.Name, &h.Description, &h.Address, &h.City, &h.State, &h.Country,
		&h.ZipCode, &h.Phone, &h.Email, &h.Website, &h.Rating, &h.PricePerNight, &h.TotalRooms,
		&h.AvailableRooms, pq.Array(&h.Amenities), pq.Array(&h.Images), &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func hotelArgs(h *model.Hotel) []any {
	return []any{h.ID, h.Name, h.Description, h.Address, h.City, h.State, h.Country, h.ZipCode,
		h.Phone, h.Email, h.Website, h.Rating, h.PricePerNight, h.TotalRooms, h.AvailableRooms,
		pq.Array(h.Amenities), pq.Array(h.Images), h.CreatedAt, h.UpdatedAt}
}

func (r *postgresHotelRepository) Create(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO hotels (`+hotelColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		hotelArgs(hotel)...)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}
	return nil
}

func (r *postgresHotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}

	h, err := scanHotel(postgres.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+hotelColumns+` FROM hotels WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find hotel: %w", err)
	}
	return h, nil
}

func (r *postgresHotelRepository) Update(ctx context.Context, hotel *model.Hotel) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE hotels SET name = $2, description = $3, address = $4, city = $5, state = $6,
		 country = $7, zip_code = $8, phone = $9, email = $10, website = $11, rating = $12,
		 price_per_night = $13, total_rooms = $14, available_rooms = $15, amenities = $16,
		 images = $17, created_at = $18, updated_at = $19
		 WHERE id = $1`,
		hotelArgs(hotel)...)
	if err != nil {
		return fmt.Errorf("failed to update hotel: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, hotel.ID)
	}
	return nil
}

func (r *postgresHotelRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", hotelserrors.ErrInvalidID, id)
	}

	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM hotels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete hotel: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", hotelserrors.ErrNotFound, id)
	}
	return nil
}

// whereClause renders the filter as SQL with positional arguments.
func whereClause(f model.HotelFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%[1]d OR description ILIKE $%[1]d OR city ILIKE $%[1]d OR address ILIKE $%[1]d)", n))
	}
	if f.City != "" {
		add("LOWER(city) = LOWER($%d)", f.City)
	}
	if f.MinPrice != nil {
		add("price_per_night >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price_per_night <= $%d", *f.MaxPrice)
	}
	if f.MinRating != nil {
		add("rating >= $%d", *f.MinRating)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *postgresHotelRepository) Search(ctx context.Context, f model.HotelFilter, limit int, offset int64) ([]*model.Hotel, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	where, args := whereClause(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM hotels%s ORDER BY rating DESC, name, id LIMIT $%d OFFSET $%d`,
		hotelColumns, where, len(args)-1, len(args))

	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hotels: %w", err)
	}
	defer rows.Close()

	hotels := make([]*model.Hotel, 0)
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hotels: %w", err)
	}
	return hotels, nil
}

func (r *postgresHotelRepository) Count(ctx context.Context, f model.HotelFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	where, args := whereClause(f)
	var count int64
	if err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM hotels`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count hotels: %w", err)
	}
	return count, nil
}
