package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"castanet-watch/internal/observability"
	"castanet-watch/internal/storage"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

var _ storage.Repository = (*Repository)(nil)

type Repository struct {
	pool           *pgxpool.Pool
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		pool:           pool,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS castanet_listings (
			url         TEXT PRIMARY KEY,
			model       TEXT NOT NULL,
			category    TEXT NOT NULL,
			price       TEXT NOT NULL,
			description TEXT NOT NULL,
			city        TEXT NOT NULL,
			image       TEXT NOT NULL,
			year        TEXT,
			make        TEXT,
			mileage     TEXT,
			ad_type     TEXT,
			checksum    CHAR(64) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertListing вставляет объявление; повтор URL даёт storage.ErrDuplicate
func (r *Repository) InsertListing(ctx context.Context, rec *storage.ListingRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO castanet_listings
			(url, model, category, price, description, city, image, year, make, mileage, ad_type, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.URL,
		rec.Model,
		rec.Category,
		rec.Price,
		rec.Description,
		rec.City,
		rec.Image,
		storage.NullIfEmpty(rec.Year),
		storage.NullIfEmpty(rec.Make),
		storage.NullIfEmpty(rec.Mileage),
		storage.NullIfEmpty(rec.AdType),
		rec.CheckSum,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", storage.ErrDuplicate, rec.URL)
		}
		return fmt.Errorf("failed to execute insert: %w", err)
	}

	return nil
}

// ExistsByURL проверяет наличие объявления по URL
func (r *Repository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM castanet_listings WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}
	return exists, nil
}

// CountListings количество сохранённых объявлений
func (r *Repository) CountListings(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM castanet_listings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

func (r *Repository) ListListings(ctx context.Context) ([]storage.ListingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT url, model, category, price, description, city, image,
			COALESCE(year, ''), COALESCE(make, ''), COALESCE(mileage, ''), COALESCE(ad_type, ''),
			checksum, created_at
		FROM castanet_listings
		ORDER BY created_at DESC, url`)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.ListingRecord, error) {
		var rec storage.ListingRecord
		err := row.Scan(&rec.URL, &rec.Model, &rec.Category, &rec.Price, &rec.Description, &rec.City, &rec.Image,
			&rec.Year, &rec.Make, &rec.Mileage, &rec.AdType, &rec.CheckSum, &rec.CreatedAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rows: %w", err)
	}
	return records, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
