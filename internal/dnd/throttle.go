package dnd

import (
	"sync"
	"time"

	"biolink-cli/internal/clock"
	"biolink-cli/internal/model"

	"golang.org/x/time/rate"
)

const DefaultThrottleInterval = 16 * time.Millisecond

// Throttle rate-limits recomputation under pointer-move floods. Between executed
// calculations it hands back the cached result untouched, whatever the input.
type Throttle struct {
	mu       sync.Mutex
	calc     Calculator
	clock    clock.Clock
	limiter  *rate.Limiter
	cached   Result
	hasCache bool
	executed int
	skipped  int
}

type ThrottleOptions struct {
	// Interval between executed calculations. Zero disables throttling.
	Interval time.Duration
	Clock    clock.Clock
}

func NewThrottle(calc Calculator, opts ThrottleOptions) *Throttle {
	if calc == nil {
		calc = Calculate
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &Throttle{
		calc:    calc,
		clock:   opts.Clock,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (t *Throttle) Calculate(mouseY float64, rect model.ElementRect, draggedIndex Index, targetIndex int) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.limiter.AllowN(t.clock.Now(), 1)
	if allowed || !t.hasCache {
		t.cached = t.calc(mouseY, rect, draggedIndex, targetIndex)
		t.hasCache = true
		t.executed++
		return t.cached
	}
	t.skipped++
	return t.cached
}

// Last returns the cached result, if any calculation has run.
func (t *Throttle) Last() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cached, t.hasCache
}

// Counts reports how many calls executed versus reused the cache.
func (t *Throttle) Counts() (executed, skipped int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executed, t.skipped
}
