package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mssql "github.com/microsoft/go-mssqldb"

	"castanet-watch/internal/observability"
	"castanet-watch/internal/storage"
)

// Номера ошибок SQL Server: нарушение PRIMARY KEY и уникального индекса
const (
	errPrimaryKeyViolation  = 2627
	errUniqueIndexViolation = 2601
)

var _ storage.Repository = (*Repository)(nil)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
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

	query := `
		IF OBJECT_ID(N'dbo.TblVehicleListings', N'U') IS NULL
		CREATE TABLE dbo.TblVehicleListings (
			[URL]         NVARCHAR(450) NOT NULL PRIMARY KEY,
			[Model]       NVARCHAR(400) NOT NULL,
			[Category]    NVARCHAR(400) NOT NULL,
			[Price]       NVARCHAR(100) NOT NULL,
			[Description] NVARCHAR(MAX) NOT NULL,
			[City]        NVARCHAR(200) NOT NULL,
			[Image]       NVARCHAR(1000) NOT NULL,
			[Year]        NVARCHAR(20) NULL,
			[Make]        NVARCHAR(200) NULL,
			[Mileage]     NVARCHAR(100) NULL,
			[AdType]      NVARCHAR(100) NULL,
			[CheckSum]    CHAR(64) NOT NULL,
			[CreatedAt]   DATETIME2 NOT NULL
		);
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertListing вставляет объявление; повтор URL даёт storage.ErrDuplicate
func (r *Repository) InsertListing(ctx context.Context, rec *storage.ListingRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO TblVehicleListings
			([URL], [Model], [Category], [Price], [Description], [City], [Image], [Year], [Make], [Mileage], [AdType], [CheckSum], [CreatedAt])
		VALUES
			(@URL, @Model, @Category, @Price, @Description, @City, @Image, @Year, @Make, @Mileage, @AdType, @CheckSum, @CreatedAt);
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	_, err = stmt.ExecContext(ctx,
		sql.Named("URL", rec.URL),
		sql.Named("Model", rec.Model),
		sql.Named("Category", rec.Category),
		sql.Named("Price", rec.Price),
		sql.Named("Description", rec.Description),
		sql.Named("City", rec.City),
		sql.Named("Image", rec.Image),
		sql.Named("Year", storage.NullIfEmpty(rec.Year)),
		sql.Named("Make", storage.NullIfEmpty(rec.Make)),
		sql.Named("Mileage", storage.NullIfEmpty(rec.Mileage)),
		sql.Named("AdType", storage.NullIfEmpty(rec.AdType)),
		sql.Named("CheckSum", rec.CheckSum),
		sql.Named("CreatedAt", rec.CreatedAt.UTC()),
	)
	if err != nil {
		var mssqlErr mssql.Error
		if errors.As(err, &mssqlErr) &&
			(mssqlErr.Number == errPrimaryKeyViolation || mssqlErr.Number == errUniqueIndexViolation) {
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

	query := `SELECT COUNT(*) FROM TblVehicleListings WHERE [URL] = @URL`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var count int
	err = stmt.QueryRowContext(ctx, sql.Named("URL", url)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}

	return count > 0, nil
}

// CountListings количество сохранённых объявлений
func (r *Repository) CountListings(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM TblVehicleListings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}

	return count, nil
}

func (r *Repository) ListListings(ctx context.Context) ([]storage.ListingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		SELECT [URL], [Model], [Category], [Price], [Description], [City], [Image],
			[Year], [Make], [Mileage], [AdType], [CheckSum], [CreatedAt]
		FROM TblVehicleListings
		ORDER BY [CreatedAt] DESC, [URL]
	`

	rows, err := r.db.QueryContext(ctx, query)
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
