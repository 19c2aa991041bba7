package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/metrics"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Defaults for the failover policy.
const (
	DefaultFailureThreshold = 3
	DefaultRateLimitRetries = 2
	DefaultBackoffBase      = 2 * time.Second
	DefaultBackoffMax       = 30 * time.Second
)

// Backend pairs a Provider with its rate limits.
type Backend struct {
	Provider          Provider
	RequestsPerMinute int
	MinDelay          time.Duration
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	failureThreshold int
	rateLimitRetries int
	backoffBase      time.Duration
	backoffMax       time.Duration
	requestTimeout   time.Duration
	cacheSize        int
	cacheTTL         time.Duration
	disableCache     bool
	sleep            Sleeper
	metrics          *metrics.Metrics
}

// WithFailureThreshold sets the consecutive failures that demote a backend.
func WithFailureThreshold(n int) Option {
	return func(o *managerOptions) {
		if n > 0 {
			o.failureThreshold = n
		}
	}
}

// WithRateLimitRetries sets how many backoff retries a model gets on HTTP 429.
func WithRateLimitRetries(n int) Option {
	return func(o *managerOptions) {
		if n >= 0 {
			o.rateLimitRetries = n
		}
	}
}

// WithBackoff sets the base and cap of the exponential 429 backoff.
func WithBackoff(base, max time.Duration) Option {
	return func(o *managerOptions) {
		if base > 0 {
			o.backoffBase = base
		}
		if max > 0 {
			o.backoffMax = max
		}
	}
}

// WithRequestTimeout bounds each backend call.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *managerOptions) {
		o.requestTimeout = d
	}
}

// WithCache sets the response cache size and TTL.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *managerOptions) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithoutCache disables response caching.
func WithoutCache() Option {
	return func(o *managerOptions) {
		o.disableCache = true
	}
}

// WithSleeper replaces the sleep used for backoff and rate limiting.
func WithSleeper(s Sleeper) Option {
	return func(o *managerOptions) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithMetrics reports provider activity to Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *managerOptions) {
		o.metrics = m
	}
}

type backendState struct {
	provider Provider
	limiter  *Limiter
	failures int
	usage    models.ProviderUsage
}

// Manager routes requests across backends. It is safe for concurrent use.
type Manager struct {
	opts     managerOptions
	cache    *responseCache
	mu       sync.Mutex
	backends []*backendState
}

// NewManager creates a Manager over backends in preference order.
func NewManager(backends []Backend, opts ...Option) *Manager {
	o := managerOptions{
		failureThreshold: DefaultFailureThreshold,
		rateLimitRetries: DefaultRateLimitRetries,
		backoffBase:      DefaultBackoffBase,
		backoffMax:       DefaultBackoffMax,
		cacheSize:        DefaultCacheSize,
		cacheTTL:         DefaultCacheTTL,
		sleep:            SleepContext,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{opts: o}
	if !o.disableCache {
		m.cache = newResponseCache(o.cacheSize, o.cacheTTL)
	}
	for _, b := range backends {
		if b.Provider == nil {
			continue
		}
		m.backends = append(m.backends, &backendState{
			provider: b.Provider,
			limiter:  NewLimiter(b.RequestsPerMinute, b.MinDelay),
		})
	}
	return m
}

// Providers returns backend names in preference order.
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.backends))
	for _, b := range m.backends {
		names = append(names, b.provider.Name())
	}
	return names
}

// Generate sends req to the first backend that answers.
//
// Within a backend, an HTTP 429 is retried with exponential backoff, then the
// next model tier is tried. Any other error moves on to the next backend.
// Backends with FailureThreshold consecutive failures are tried last until they
// succeed again. The returned error wraps ErrNoProviderAvailable.
func (m *Manager) Generate(ctx context.Context, req Request) (Completion, error) {
	candidates := m.candidates()
	if len(candidates) == 0 {
		return Completion{}, fmt.Errorf("%w: no backends configured", ErrNoProviderAvailable)
	}

	var lastErr error
	for i, b := range candidates {
		name := b.provider.Name()
		text, model, cached, err := m.tryBackend(ctx, b, req)
		if err == nil {
			m.recordSuccess(b)
			return Completion{Text: text, Provider: name, Model: model, Cached: cached}, nil
		}

		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Completion{}, fmt.Errorf("%w: %v", ErrNoProviderAvailable, ctxErr)
		}
		failures := m.recordFailure(b)
		if i+1 < len(candidates) {
			log.Printf("[provider] %s failed (%d consecutive): %v; falling back to %s",
				name, failures, err, candidates[i+1].provider.Name())
		} else {
			log.Printf("[provider] %s failed (%d consecutive): %v", name, failures, err)
		}
	}
	return Completion{}, fmt.Errorf("%w: %v", ErrNoProviderAvailable, lastErr)
}

// candidates orders healthy backends first, keeping preference order inside each group.
func (m *Manager) candidates() []*backendState {
	m.mu.Lock()
	defer m.mu.Unlock()

	healthy := make([]*backendState, 0, len(m.backends))
	var demoted []*backendState
	for _, b := range m.backends {
		if b.failures >= m.opts.failureThreshold {
			demoted = append(demoted, b)
		} else {
			healthy = append(healthy, b)
		}
	}
	if len(demoted) > 0 {
		logging.Debugf("[provider] demoted backends: %d of %d", len(demoted), len(m.backends))
	}
	return append(healthy, demoted...)
}

func (m *Manager) tryBackend(ctx context.Context, b *backendState, req Request) (text, model string, cached bool, err error) {
	name := b.provider.Name()
	tiers := b.provider.Models()
	if len(tiers) == 0 {
		tiers = []string{""}
	}

	for tier, model := range tiers {
		key := cacheKey(name, model, req)
		if text, ok := m.cache.get(key); ok {
			m.count(b, func(u *models.ProviderUsage) { u.CacheHits++ })
			m.opts.metrics.CacheLookup(true)
			m.opts.metrics.ProviderRequest(name, "cached")
			return text, model, true, nil
		}
		if m.cache != nil {
			m.opts.metrics.CacheLookup(false)
		}

		for attempt := 0; ; attempt++ {
			if err = b.limiter.Wait(ctx, m.opts.sleep); err != nil {
				return "", model, false, err
			}

			var resp Response
			resp, err = m.call(ctx, b.provider, model, req)
			m.count(b, func(u *models.ProviderUsage) {
				u.Requests++
				u.InputTokens += resp.InputTokens
				u.OutputTokens += resp.OutputTokens
			})
			m.opts.metrics.ProviderTokens(name, resp.InputTokens, resp.OutputTokens)

			if err == nil && strings.TrimSpace(resp.Text) == "" {
				err = &ProviderError{Provider: name, Message: ErrEmptyResponse.Error()}
			}
			if err == nil {
				m.opts.metrics.ProviderRequest(name, "ok")
				m.cache.add(key, resp.Text)
				return resp.Text, model, false, nil
			}

			if !IsRateLimited(err) {
				m.opts.metrics.ProviderRequest(name, "error")
				return "", model, false, err
			}

			m.count(b, func(u *models.ProviderUsage) { u.RateLimit++ })
			m.opts.metrics.ProviderRequest(name, "rate_limited")
			if attempt >= m.opts.rateLimitRetries {
				break
			}

			delay := m.backoff(attempt, retryAfter(err))
			logging.Debugf("[provider] %s/%s rate limited, retry %d in %s", name, model, attempt+1, delay)
			if serr := m.opts.sleep(ctx, delay); serr != nil {
				return "", model, false, serr
			}
		}

		if tier+1 < len(tiers) {
			log.Printf("[provider] %s: model %s still rate limited, degrading to %s", name, model, tiers[tier+1])
		}
	}
	return "", model, false, err
}

func (m *Manager) call(ctx context.Context, p Provider, model string, req Request) (Response, error) {
	if m.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.requestTimeout)
		defer cancel()
	}
	return p.Complete(ctx, model, req)
}

// backoff returns base*2^attempt capped at max, or the server's Retry-After when longer.
func (m *Manager) backoff(attempt int, serverDelay time.Duration) time.Duration {
	d := m.opts.backoffBase
	for i := 0; i < attempt && d < m.opts.backoffMax; i++ {
		d *= 2
	}
	if serverDelay > d {
		d = serverDelay
	}
	if d > m.opts.backoffMax {
		d = m.opts.backoffMax
	}
	return d
}

func (m *Manager) count(b *backendState, fn func(*models.ProviderUsage)) {
	m.mu.Lock()
	fn(&b.usage)
	m.mu.Unlock()
}

func (m *Manager) recordSuccess(b *backendState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.failures >= m.opts.failureThreshold {
		log.Printf("[provider] %s recovered", b.provider.Name())
	}
	b.failures = 0
}

func (m *Manager) recordFailure(b *backendState) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.failures++
	b.usage.Failures++
	return b.failures
}

// Stats returns a snapshot of per-backend usage.
func (m *Manager) Stats() map[string]models.ProviderUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.ProviderUsage, len(m.backends))
	for _, b := range m.backends {
		out[b.provider.Name()] = b.usage
	}
	return out
}

// Healthy reports whether the named backend is below the failure threshold.
func (m *Manager) Healthy(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.backends {
		if b.provider.Name() == name {
			return b.failures < m.opts.failureThreshold
		}
	}
	return false
}

// CacheLen returns the number of cached responses.
func (m *Manager) CacheLen() int {
	return m.cache.len()
}

// IsUnavailable reports whether err means no backend could serve a request.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNoProviderAvailable)
}
