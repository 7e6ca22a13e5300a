package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"castanet-watch/internal/config"
	"castanet-watch/internal/fetcher"
	"castanet-watch/internal/notify"
	"castanet-watch/internal/observability"
	"castanet-watch/internal/scraper"
	"castanet-watch/internal/storage"
	"castanet-watch/internal/storage/sqlite"
)

const baseURL = "https://classifieds.castanet.net"

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.FetchResponse, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &fetcher.FetchError{URL: url, StatusCode: 404}
	}
	return &fetcher.FetchResponse{StatusCode: 200, Body: []byte(body), URL: url}, nil
}

func (f *fakeFetcher) fetched(url string) int {
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	messages []notify.Message
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

type entry struct {
	href, model, price, category string
}

func indexPage(entries ...entry) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="left_column">`)
	for _, e := range entries {
		fmt.Fprintf(&b, `<a class="prod_container" href="%s">
			<img src="https://img.castanet.net%smain.jpg">
			<h2>%s</h2><span>Summary text</span><span>Kelowna</span>
			<div class="price">%s</div><div class="cat_path">%s</div></a>`,
			e.href, e.href, e.model, e.price, e.category)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func detailPage(year, mk, model, mileage, adType string) string {
	cells := []string{
		"Year", year, "Make", mk, "Model", model, "Kilometers", mileage,
		"Transmission", "Automatic", "Fuel", "Gas", "Colour", "Blue", "Ad Type", adType,
	}
	var b strings.Builder
	b.WriteString(`<html><body><div class="prod_right"><table>`)
	for i := 0; i+1 < len(cells); i += 2 {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", cells[i], cells[i+1])
	}
	b.WriteString(`</table></div><div class="description">Header Email Seller Runs great, new brakes.</div></body></html>`)
	return b.String()
}

func indexURL(page int) string {
	return fetcher.IndexURL(baseURL, 100, page)
}

type harness struct {
	cfg      *config.Config
	fetcher  *fakeFetcher
	notifier *fakeNotifier
	repo     *sqlite.Repository
	orch     *Orchestrator
}

func newHarness(t *testing.T, dbPath string) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.Source.BaseURL = baseURL

	repo, err := sqlite.NewRepository(dbPath, 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))

	selectors, err := cfg.Selectors()
	require.NoError(t, err)
	s, err := scraper.NewScraper(selectors, NewNormalizer(cfg))
	require.NoError(t, err)

	f := newFakeFetcher()
	n := &fakeNotifier{}

	return &harness{
		cfg:      cfg,
		fetcher:  f,
		notifier: n,
		repo:     repo,
		orch:     NewOrchestrator(cfg, observability.NewNopLogger(), f, s, repo, n),
	}
}

// seedStandardPage: одно уведомляемое, одно только сохраняемое, два отброшенных
func (h *harness) seedStandardPage() {
	h.fetcher.pages[indexURL(1)] = indexPage(
		entry{"/details/2014-honda-civic/1001/", "2014 Honda Civic", "$12,500", "Vehicles > Cars"},
		entry{"/details/2010-ford-f150/1002/", "2010 Ford F150", "$9,000", "Vehicles > Trucks"},
		entry{"/details/2020-bmw-x5/1003/", "2020 BMW X5", "$45,000", "Vehicles > SUVs"},
		entry{"/details/2008-toyota-corolla/1004/", "2008 Toyota Corolla", "$4,000", "Vehicles > Cars"},
	)
	h.fetcher.pages[baseURL+"/details/2014-honda-civic/1001/"] = detailPage("2014", "Honda", "Civic", "85,000 km", "Private")
	h.fetcher.pages[baseURL+"/details/2008-toyota-corolla/1004/"] = detailPage("2008", "Toyota", "Corolla", "250,000 km", "Private")
}

func TestRunStoresAndNotifies(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))
	h.seedStandardPage()

	stats, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 4, stats.Entries)
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, 2, stats.Stored)
	assert.Equal(t, 1, stats.Notified)
	assert.Equal(t, 0, stats.Failed)

	require.Len(t, h.notifier.messages, 1)
	msg := h.notifier.messages[0]
	assert.Equal(t, "2014 Honda Civic", msg.Headline)
	assert.Equal(t,
		"2014 Honda Civic: $12,500, 85,000 km. https://img.castanet.net/details/2014-honda-civic/1001/main.jpg "+
			baseURL+"/details/2014-honda-civic/1001/",
		msg.Content,
	)
	assert.Equal(t, "Runs great, new brakes.", msg.Description)

	// отброшенные объявления не грузятся дальше списка
	assert.Equal(t, 0, h.fetcher.fetched(baseURL+"/details/2010-ford-f150/1002/"))
	assert.Equal(t, 0, h.fetcher.fetched(baseURL+"/details/2020-bmw-x5/1003/"))

	records, err := h.repo.ListListings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotEmpty(t, rec.CheckSum)
		assert.Equal(t, "Private", rec.AdType)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vehicles.db")

	first := newHarness(t, dbPath)
	first.seedStandardPage()
	_, err := first.orch.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.notifier.messages, 1)
	require.NoError(t, first.repo.Close())

	second := newHarness(t, dbPath)
	second.seedStandardPage()
	stats, err := second.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Duplicates)
	assert.Equal(t, 0, stats.Stored)
	assert.Empty(t, second.notifier.messages)
	// известные объявления не грузятся повторно
	assert.Equal(t, 0, second.fetcher.fetched(baseURL+"/details/2014-honda-civic/1001/"))

	count, err := second.repo.CountListings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunDetailFetchFailureContinues(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))
	h.seedStandardPage()
	h.fetcher.errs[baseURL+"/details/2014-honda-civic/1001/"] = &fetcher.FetchError{
		URL:        baseURL + "/details/2014-honda-civic/1001/",
		StatusCode: 503,
	}

	stats, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Stored)
	assert.Empty(t, h.notifier.messages)

	exists, err := h.repo.ExistsByURL(context.Background(), "/details/2014-honda-civic/1001/")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunNotificationFailureKeepsRecord(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))
	h.seedStandardPage()
	h.notifier.err = errors.New("webhook down")

	stats, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Stored)
	assert.Equal(t, 0, stats.Notified)
	assert.Equal(t, 0, stats.Failed)

	exists, err := h.repo.ExistsByURL(context.Background(), "/details/2014-honda-civic/1001/")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunIndexFetchFailureAborts(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))

	_, err := h.orch.Run(context.Background())
	require.Error(t, err)

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
}

func TestRunMarkupShapeAborts(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))
	h.fetcher.pages[indexURL(1)] = `<html><body><div id="redesigned"></div></body></html>`

	_, err := h.orch.Run(context.Background())
	require.ErrorIs(t, err, scraper.ErrMarkupShape)
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))
	h.cfg.Pagination.MaxPages = 3
	h.seedStandardPage()
	h.fetcher.pages[indexURL(2)] = indexPage()

	stats, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 0, h.fetcher.fetched(indexURL(3)))
}

type racingRepo struct {
	storage.Repository
}

// ExistsByURL пропускает запись, как если бы её вставил другой процесс между проверкой и вставкой
func (r racingRepo) ExistsByURL(context.Context, string) (bool, error) {
	return false, nil
}

func TestProcessListingDuplicateOnInsert(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))
	h.seedStandardPage()

	listing := &scraper.VehicleListing{
		URL:      "/details/2014-honda-civic/1001/",
		Model:    "2014 Honda Civic",
		Price:    "$12,500",
		Category: "Vehicles > Cars",
	}

	outcome, err := h.orch.ProcessListing(context.Background(), listing)
	require.NoError(t, err)
	require.Equal(t, OutcomeNotified, outcome)

	h.orch.repo = racingRepo{Repository: h.repo}
	again := *listing
	outcome, err = h.orch.ProcessListing(context.Background(), &again)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedDuplicate, outcome)
	assert.Len(t, h.notifier.messages, 1)
}

func TestProcessListingIncompleteNotNotified(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))
	h.fetcher.pages[baseURL+"/details/mystery/1005/"] = `<html><body><p>no table</p></body></html>`

	outcome, err := h.orch.ProcessListing(context.Background(), &scraper.VehicleListing{
		URL:      "/details/mystery/1005/",
		Price:    "$3,000",
		Category: "Vehicles > Cars",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStored, outcome)
	assert.Empty(t, h.notifier.messages)
}

func TestProcessListingCallForPriceDropped(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "vehicles.db"))

	outcome, err := h.orch.ProcessListing(context.Background(), &scraper.VehicleListing{
		URL:      "/details/2016-mazda-3/1006/",
		Price:    "Call for Price",
		Category: "Vehicles > Cars",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, outcome)
	assert.Empty(t, h.fetcher.calls)
}
