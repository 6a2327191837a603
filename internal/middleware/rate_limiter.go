package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kerem-gursoy/uup/internal/apierror"
)

// windowCounter counts hits per client IP in fixed windows.
type windowCounter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count     int
	windowEnd time.Time
}

func newWindowCounter(limit int, window time.Duration) *windowCounter {
	return &windowCounter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*windowEntry),
	}
}

// hit records one request and reports whether it is allowed along with the
// end of the current window.
func (w *windowCounter) hit(key string) (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	e, ok := w.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(w.window)}
		w.entries[key] = e
	}
	e.count++
	return e.count <= w.limit, e.windowEnd
}

func (w *windowCounter) purge() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	purged := 0
	for key, e := range w.entries {
		if now.After(e.windowEnd) {
			delete(w.entries, key)
			purged++
		}
	}
	return purged
}

func (w *windowCounter) middleware(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, windowEnd := w.hit(c.ClientIP())
		if !allowed {
			retry := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
			return
		}
		c.Next()
	}
}

var (
	limitersMu sync.Mutex
	limiters   []*windowCounter
)

func register(w *windowCounter) *windowCounter {
	limitersMu.Lock()
	limiters = append(limiters, w)
	limitersMu.Unlock()
	return w
}

// LoginRateLimiter allows 20 login or register attempts per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return register(newWindowCounter(20, time.Minute)).
		middleware("too many login attempts, try again in a minute")
}

// RateLimiter limits every client IP to limit requests per window.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return register(newWindowCounter(limit, window)).
		middleware("too many requests, try again shortly")
}

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

// purgeExpiredEntries drops IPs whose window has ended so the maps do not grow
// without bound.
func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		limitersMu.Lock()
		current := append([]*windowCounter(nil), limiters...)
		limitersMu.Unlock()

		purged := 0
		for _, w := range current {
			purged += w.purge()
		}
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter entries purged")
		}
	}
}
