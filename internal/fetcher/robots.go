package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"castanet-watch/internal/observability"
)

type RobotsCache struct {
	cache  map[string]*robotsEntry
	ttl    time.Duration
	mu     sync.RWMutex
	logger *observability.Logger
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, logger *observability.Logger) *RobotsCache {
	return &RobotsCache{
		cache:  make(map[string]*robotsEntry),
		ttl:    ttl,
		logger: logger,
	}
}

// IsAllowed проверяет URL по robots.txt хоста. Если robots.txt недоступен по сети, разрешаем.
func (rc *RobotsCache) IsAllowed(ctx context.Context, target *url.URL, userAgent string, client *http.Client) bool {
	host := target.Host

	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		data := rc.fetch(ctx, target.Scheme, host, userAgent, client)
		if data == nil {
			return true
		}

		cached = &robotsEntry{data: data, expiresAt: time.Now().Add(rc.ttl)}
		rc.mu.Lock()
		rc.cache[host] = cached
		rc.mu.Unlock()
	}

	return cached.data.TestAgent(target.RequestURI(), userAgent)
}

func (rc *RobotsCache) fetch(ctx context.Context, scheme, host, userAgent string, client *http.Client) *robotstxt.RobotsData {
	robotsURL := (&url.URL{Scheme: scheme, Host: host, Path: "/robots.txt"}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		rc.logger.Debug("robots.txt unavailable, assuming allowed", "host", host, "error", err.Error())
		return nil
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			rc.logger.Warn("Failed to close response body", "error", err.Error())
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	// 4xx: всё разрешено, 5xx: всё запрещено
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		rc.logger.Warn("Failed to parse robots.txt", "host", host, "error", err.Error())
		return nil
	}
	return data
}
