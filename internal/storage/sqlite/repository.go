package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"castanet-watch/internal/observability"
	"castanet-watch/internal/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS castanet (
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
		checksum    TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	)`

var _ storage.Repository = (*Repository)(nil)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

// NewRepository открывает файл базы (dsn это путь, например vehicles.db)
func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// один писатель
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ExistsByURL проверяет наличие объявления по URL
func (r *Repository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM castanet WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}

	return count > 0, nil
}

// InsertListing вставляет объявление; повтор URL даёт storage.ErrDuplicate
func (r *Repository) InsertListing(ctx context.Context, rec *storage.ListingRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO castanet (url, model, category, price, description, city, image, year, make, mileage, ad_type, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %s", storage.ErrDuplicate, rec.URL)
		}
		return fmt.Errorf("failed to execute insert: %w", err)
	}

	return nil
}

// CountListings количество сохранённых объявлений
func (r *Repository) CountListings(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM castanet`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

func (r *Repository) ListListings(ctx context.Context) ([]storage.ListingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT url, model, category, price, description, city, image, year, make, mileage, ad_type, checksum, created_at
		FROM castanet
		ORDER BY created_at DESC, url`)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err.Error())
		}
	}()

	var records []storage.ListingRecord
	for rows.Next() {
		var (
			rec                       storage.ListingRecord
			year, mk, mileage, adType sql.NullString
		)
		err := rows.Scan(&rec.URL, &rec.Model, &rec.Category, &rec.Price, &rec.Description, &rec.City, &rec.Image,
			&year, &mk, &mileage, &adType, &rec.CheckSum, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Year, rec.Make, rec.Mileage, rec.AdType = year.String, mk.String, mileage.String, adType.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isConstraintViolation PRIMARY KEY / UNIQUE. Без расширенных кодов приходит просто SQLITE_CONSTRAINT.
func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
		return true
	}
	return false
}
