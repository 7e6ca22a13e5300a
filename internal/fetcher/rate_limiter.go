package fetcher

import (
	"context"
	"sync"
	"time"
)

// RateLimiter ограничивает число одновременных запросов к хосту и их частоту (RPM).
// Запросы к одному хосту разносятся не меньше чем на минуту/RPM.
type RateLimiter struct {
	maxConcurrent int
	interval      time.Duration
	hosts         map[string]*hostLimiter
	mu            sync.Mutex
}

type hostLimiter struct {
	sem  chan struct{}
	next time.Time
	mu   sync.Mutex
}

func NewRateLimiter(maxConcurrent, rpm int) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	var interval time.Duration
	if rpm > 0 {
		interval = time.Minute / time.Duration(rpm)
	}

	return &RateLimiter{
		maxConcurrent: maxConcurrent,
		interval:      interval,
		hosts:         make(map[string]*hostLimiter),
	}
}

func (rl *RateLimiter) host(host string) *hostLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.hosts[host]
	if !exists {
		limiter = &hostLimiter{sem: make(chan struct{}, rl.maxConcurrent)}
		rl.hosts[host] = limiter
	}
	return limiter
}

// Wait занимает слот хоста и ждёт своей очереди. После запроса нужно вызвать Done.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	limiter := rl.host(host)

	select {
	case limiter.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	limiter.mu.Lock()
	now := time.Now()
	start := limiter.next
	if start.Before(now) {
		start = now
	}
	limiter.next = start.Add(rl.interval)
	limiter.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		<-limiter.sem
		return ctx.Err()
	}
}

// Done освобождает слот хоста
func (rl *RateLimiter) Done(host string) {
	limiter := rl.host(host)
	select {
	case <-limiter.sem:
	default:
	}
}
