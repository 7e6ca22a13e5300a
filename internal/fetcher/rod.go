package fetcher

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"castanet-watch/internal/config"
	"castanet-watch/internal/observability"
)

// RodFetcher получает страницу через headless Chrome, когда обычного HTTP не хватает
type RodFetcher struct {
	browser     *rod.Browser
	cfg         *config.Config
	logger      *observability.Logger
	rateLimiter *RateLimiter
}

func NewRodFetcher(cfg *config.Config, logger *observability.Logger) (*RodFetcher, error) {
	controlURL, err := launcher.New().
		Bin(cfg.Rod.ChromePath).
		Headless(true).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser:     browser,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: NewRateLimiter(cfg.RateLimit.MaxConcurrentPerHost, cfg.RateLimit.RPM),
	}, nil
}

func (f *RodFetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	const host = "rod"
	if err := f.rateLimiter.Wait(ctx, host); err != nil {
		return nil, &FetchError{URL: urlStr, Err: fmt.Errorf("rate limit: %w", err)}
	}
	defer f.rateLimiter.Done(host)

	page, err := f.browser.Context(ctx).Timeout(f.cfg.GetRodPageTimeout()).Page(proto.TargetCreateTarget{URL: urlStr})
	if err != nil {
		return nil, &FetchError{URL: urlStr, Err: err}
	}
	defer func() {
		if err := page.Close(); err != nil {
			f.logger.Warn("Failed to close page", "url", urlStr, "error", err.Error())
		}
	}()

	if err := page.Timeout(f.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		return nil, &FetchError{URL: urlStr, Err: fmt.Errorf("wait load: %w", err)}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &FetchError{URL: urlStr, Err: err}
	}

	f.logger.Debug("Fetched page with browser", "url", urlStr, "bytes", len(html))

	return &FetchResponse{
		StatusCode: 200,
		Body:       []byte(html),
		URL:        urlStr,
	}, nil
}

func (f *RodFetcher) Close() error {
	return f.browser.Close()
}
