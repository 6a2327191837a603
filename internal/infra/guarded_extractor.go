package infra

import (
	"context"
	"errors"
	"time"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/extraction"
	"github.com/kerem-gursoy/uup/internal/metrics"
)

// GuardedExtractor bounds every extraction call with a timeout and routes it
// through a circuit breaker. Configuration errors never trip the breaker.
type GuardedExtractor struct {
	next    extraction.Extractor
	cb      *CircuitBreaker
	timeout time.Duration
}

func NewGuardedExtractor(next extraction.Extractor, cb *CircuitBreaker, timeout time.Duration) *GuardedExtractor {
	return &GuardedExtractor{next: next, cb: cb, timeout: timeout}
}

// IsExtractionFailure is the breaker classifier for extraction errors.
func IsExtractionFailure(err error) bool {
	return apierror.KindOf(err) != apierror.KindConfiguration
}

func (g *GuardedExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*extraction.Document, error) {
	start := time.Now()
	var doc *extraction.Document
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		var err error
		doc, err = g.next.Extract(ctx, data, mimeType)
		return err
	})
	metrics.ObserveExtraction(start, err)

	if errors.Is(err, ErrCircuitOpen) {
		return nil, apierror.Upstream("extraction service temporarily unavailable", err)
	}
	if err != nil && apierror.KindOf(err) == apierror.KindInternal {
		return nil, apierror.Upstream("extraction call failed", err)
	}
	return doc, err
}
