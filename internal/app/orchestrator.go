package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"castanet-watch/internal/checksum"
	"castanet-watch/internal/config"
	"castanet-watch/internal/fetcher"
	"castanet-watch/internal/filter"
	"castanet-watch/internal/notify"
	"castanet-watch/internal/observability"
	"castanet-watch/internal/scraper"
	"castanet-watch/internal/storage"
)

// PageFetcher обычный HTTP или headless браузер
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.FetchResponse, error)
}

// Outcome конечное состояние обработки одного объявления
type Outcome int

const (
	OutcomeDropped Outcome = iota
	OutcomeSkippedDuplicate
	OutcomeStored
	OutcomeNotified
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDropped:
		return "dropped"
	case OutcomeSkippedDuplicate:
		return "skipped_duplicate"
	case OutcomeStored:
		return "stored"
	case OutcomeNotified:
		return "notified"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Orchestrator struct {
	cfg      *config.Config
	logger   *observability.Logger
	fetcher  PageFetcher
	scraper  *scraper.Scraper
	repo     storage.Repository
	notifier notify.Notifier
	policy   filter.Policy
	checksum *checksum.Generator
	now      func() time.Time
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	f PageFetcher,
	s *scraper.Scraper,
	repo storage.Repository,
	n notify.Notifier,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		fetcher:  f,
		scraper:  s,
		repo:     repo,
		notifier: n,
		policy: filter.Policy{
			CostCeiling:             cfg.Filter.CostCeiling,
			MileageCeiling:          cfg.Filter.MileageCeiling,
			ExcludedCategoryMarkers: cfg.Filter.ExcludedCategoryMarkers,
		},
		checksum: checksum.NewGenerator(),
		now:      time.Now,
	}
}

type RunStats struct {
	Pages         int
	Entries       int
	Dropped       int
	Duplicates    int
	Stored        int
	Notified      int
	Failed        int
	StoppedReason string
}

func (s *RunStats) record(o Outcome) {
	switch o {
	case OutcomeDropped:
		s.Dropped++
	case OutcomeSkippedDuplicate:
		s.Duplicates++
	case OutcomeStored:
		s.Stored++
	case OutcomeNotified:
		// уведомлённое объявление тоже сохранено
		s.Stored++
		s.Notified++
	case OutcomeFailed:
		s.Failed++
	}
}

// Run обрабатывает страницы списка по одной, объявления строго последовательно.
// Ошибка загрузки или разбора страницы списка прерывает прогон.
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	startPage := o.cfg.Pagination.StartPage
	lastPage := startPage + o.cfg.Pagination.MaxPages - 1

	o.logger.Info("Starting run",
		"base_url", o.cfg.Source.BaseURL,
		"per_page", o.cfg.Source.PerPage,
		"start_page", startPage,
		"max_pages", o.cfg.Pagination.MaxPages,
	)

	stats := &RunStats{}

	for page := startPage; page <= lastPage; page++ {
		if err := ctx.Err(); err != nil {
			stats.StoppedReason = "context cancelled"
			return stats, err
		}

		entries, err := o.processPage(ctx, page, stats)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("error at page %d: %v", page, err)
			o.logger.Error("Run aborted",
				"page", page,
				"error", err.Error(),
			)
			return stats, err
		}

		if entries == 0 {
			if page == startPage {
				o.logger.Warn("No entries on the first index page", "page", page)
			}
			stats.StoppedReason = fmt.Sprintf("no entries on page %d", page)
			break
		}
	}

	if stats.StoppedReason == "" {
		stats.StoppedReason = "max pages reached"
	}

	o.logger.Info("Run completed",
		"pages", stats.Pages,
		"entries", stats.Entries,
		"dropped", stats.Dropped,
		"duplicates", stats.Duplicates,
		"stored", stats.Stored,
		"notified", stats.Notified,
		"failed", stats.Failed,
		"reason", stats.StoppedReason,
	)

	return stats, nil
}

func (o *Orchestrator) processPage(ctx context.Context, page int, stats *RunStats) (int, error) {
	pageURL := fetcher.IndexURL(o.cfg.Source.BaseURL, o.cfg.Source.PerPage, page)

	o.logger.Info("Processing page", "page", page, "url", pageURL)

	resp, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return 0, fmt.Errorf("fetch index page: %w", err)
	}

	listings, err := o.scraper.ParseIndex(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse index page: %w", err)
	}

	stats.Pages++
	entries := 0

	for listing := range listings {
		entries++
		stats.Entries++

		outcome, err := o.ProcessListing(ctx, listing)
		if err != nil {
			o.logger.Error("Listing failed",
				"page", page,
				"url", listing.URL,
				"error", err.Error(),
			)
		}
		stats.record(outcome)

		o.logger.Debug("Listing processed",
			"page", page,
			"url", listing.URL,
			"outcome", outcome.String(),
		)
	}

	o.logger.Info("Page analysis",
		"page", page,
		"entries", entries,
	)

	return entries, nil
}

// ProcessListing проводит одно объявление через фильтр, дедупликацию, страницу объявления,
// сохранение и уведомление. Ошибка возвращается только вместе с OutcomeFailed.
func (o *Orchestrator) ProcessListing(ctx context.Context, listing *scraper.VehicleListing) (Outcome, error) {
	if !o.policy.QualifiesForStorage(listing.Category, listing.Price) {
		return OutcomeDropped, nil
	}

	// до загрузки страницы объявления: уже известные не грузим
	exists, err := o.repo.ExistsByURL(ctx, listing.URL)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("check existing listing: %w", err)
	}
	if exists {
		return OutcomeSkippedDuplicate, nil
	}

	detailURL, err := fetcher.DetailURL(o.cfg.Source.BaseURL, listing.URL)
	if err != nil {
		return OutcomeFailed, err
	}

	resp, err := o.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("fetch detail page: %w", err)
	}

	if err := o.scraper.ParseDetail(resp.Body, listing); err != nil {
		return OutcomeFailed, fmt.Errorf("parse detail page: %w", err)
	}

	// решающий сигнал дубликата: первичный ключ, а не проверка выше
	if err := o.repo.InsertListing(ctx, o.toRecord(listing)); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			o.logger.Debug("Listing already stored", "url", listing.URL)
			return OutcomeSkippedDuplicate, nil
		}
		return OutcomeFailed, fmt.Errorf("store listing: %w", err)
	}

	if !o.policy.Notifiable(listing) {
		return OutcomeStored, nil
	}

	msg := notify.NewMessage(listing, o.cfg.Source.BaseURL)
	if err := o.notifier.Notify(ctx, msg); err != nil {
		// запись уже сохранена и не откатывается
		o.logger.Warn("Notification failed",
			"url", listing.URL,
			"error", err.Error(),
		)
		return OutcomeStored, nil
	}

	o.logger.Info("Listing notified", "url", listing.URL, "headline", msg.Headline)
	return OutcomeNotified, nil
}

func (o *Orchestrator) toRecord(listing *scraper.VehicleListing) *storage.ListingRecord {
	return &storage.ListingRecord{
		URL:         listing.URL,
		Model:       listing.Model,
		Category:    listing.Category,
		Price:       listing.Price,
		Description: listing.Description,
		City:        listing.City,
		Image:       listing.Image,
		Year:        listing.Year,
		Make:        listing.Make,
		Mileage:     listing.Mileage,
		AdType:      listing.AdType,
		CheckSum:    o.checksum.GenerateListingHash(listing.URL, listing.Model, listing.Price, listing.Mileage),
		CreatedAt:   o.now().UTC(),
	}
}
