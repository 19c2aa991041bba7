package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a requests-per-minute window and a minimum gap between requests.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time

	gap *rate.Limiter
}

// NewLimiter creates a limiter. rpm <= 0 disables the window; minDelay <= 0 disables the gap.
func NewLimiter(rpm int, minDelay time.Duration) *Limiter {
	l := &Limiter{
		limit:  rpm,
		window: time.Minute,
		now:    time.Now,
	}
	if minDelay > 0 {
		l.gap = rate.NewLimiter(rate.Every(minDelay), 1)
	}
	return l
}

// Wait blocks until a request may be sent. Every wait goes through sleep. A
// cancelled wait gives back the window slot and the gap reservation it held.
func (l *Limiter) Wait(ctx context.Context, sleep Sleeper) error {
	if l == nil {
		return nil
	}
	var stamp time.Time
	for {
		ts, d := l.reserve()
		if d <= 0 {
			stamp = ts
			break
		}
		if err := sleep(ctx, d); err != nil {
			return err
		}
	}
	if l.gap == nil {
		return nil
	}

	now := l.now()
	r := l.gap.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		if err := sleep(ctx, d); err != nil {
			r.CancelAt(l.now())
			l.release(stamp)
			return err
		}
	}
	return nil
}

// reserve records a request and returns its stamp, or returns how long to wait
// before retrying. The stamp is zero when the window is disabled.
func (l *Limiter) reserve() (time.Time, time.Duration) {
	if l.limit <= 0 {
		return time.Time{}, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	l.stamps = l.stamps[i:]

	if len(l.stamps) < l.limit {
		l.stamps = append(l.stamps, now)
		return now, 0
	}
	wait := l.stamps[0].Add(l.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return time.Time{}, wait
}

// release drops a stamp recorded by reserve for a request that was never sent.
func (l *Limiter) release(stamp time.Time) {
	if stamp.IsZero() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.stamps) - 1; i >= 0; i-- {
		if l.stamps[i].Equal(stamp) {
			l.stamps = append(l.stamps[:i], l.stamps[i+1:]...)
			return
		}
	}
}

// InWindow returns the number of requests recorded in the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.window)
	n := 0
	for _, s := range l.stamps {
		if s.After(cutoff) {
			n++
		}
	}
	return n
}
