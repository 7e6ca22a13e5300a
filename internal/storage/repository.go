package storage

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate запись с таким URL уже есть. Это штатный путь, а не сбой.
var ErrDuplicate = errors.New("listing already stored")

// ListingRecord строка таблицы объявлений. Пустые детальные поля пишутся как NULL.
type ListingRecord struct {
	URL         string
	Model       string
	Category    string
	Price       string
	Description string
	City        string
	Image       string
	Year        string
	Make        string
	Mileage     string
	AdType      string
	CheckSum    string // SHA256 объявления
	CreatedAt   time.Time
}

// Repository хранилище обработанных объявлений. Только вставка: существующие строки не обновляются.
type Repository interface {
	// EnsureSchema создаёт таблицу, если её ещё нет
	EnsureSchema(ctx context.Context) error

	// ExistsByURL проверяет наличие объявления по URL
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// InsertListing вставляет объявление; при нарушении первичного ключа возвращает ErrDuplicate
	InsertListing(ctx context.Context, rec *ListingRecord) error

	// CountListings количество сохранённых объявлений
	CountListings(ctx context.Context) (int, error)

	// ListListings все объявления, новые первыми
	ListListings(ctx context.Context) ([]ListingRecord, error)

	Close() error
}

// NullIfEmpty пустая строка -> nil, для nullable колонок
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
