package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/extraction"
)

type stubExtractor struct {
	err   error
	calls int
	wait  bool
}

func (s *stubExtractor) Extract(ctx context.Context, _ []byte, _ string) (*extraction.Document, error) {
	s.calls++
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &extraction.Document{}, nil
}

func newGuarded(next extraction.Extractor, timeout time.Duration) *GuardedExtractor {
	cfg := DefaultCBConfig("extraction-test")
	cfg.FailureThreshold = 2
	cfg.IsFailure = IsExtractionFailure
	return NewGuardedExtractor(next, NewCircuitBreaker(cfg), timeout)
}

func TestGuardedExtractor_PassesThrough(t *testing.T) {
	g := newGuarded(&stubExtractor{}, time.Second)
	doc, err := g.Extract(context.Background(), []byte("x"), "image/png")
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestGuardedExtractor_WrapsRawErrors(t *testing.T) {
	g := newGuarded(&stubExtractor{err: errors.New("connection reset")}, time.Second)
	_, err := g.Extract(context.Background(), nil, "image/png")
	require.Error(t, err)
	assert.Equal(t, apierror.KindUpstream, apierror.KindOf(err))
}

func TestGuardedExtractor_Timeout(t *testing.T) {
	g := newGuarded(&stubExtractor{wait: true}, 20*time.Millisecond)
	_, err := g.Extract(context.Background(), nil, "image/png")
	assert.Equal(t, apierror.KindUpstream, apierror.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardedExtractor_OpenCircuit(t *testing.T) {
	stub := &stubExtractor{err: apierror.Upstream("extraction call failed", nil)}
	g := newGuarded(stub, time.Second)
	for i := 0; i < 2; i++ {
		_, _ = g.Extract(context.Background(), nil, "image/png")
	}

	_, err := g.Extract(context.Background(), nil, "image/png")
	assert.Equal(t, apierror.KindUpstream, apierror.KindOf(err))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, stub.calls)
}

func TestGuardedExtractor_ConfigurationErrorsDoNotTrip(t *testing.T) {
	stub := &stubExtractor{err: apierror.Configuration("GEMINI_API_KEY is not configured")}
	g := newGuarded(stub, time.Second)
	for i := 0; i < 5; i++ {
		_, err := g.Extract(context.Background(), nil, "image/png")
		assert.Equal(t, apierror.KindConfiguration, apierror.KindOf(err))
	}
	assert.Equal(t, 5, stub.calls)
	assert.Equal(t, CBClosed, g.cb.State())
}

func TestGeminiExtractor_NotConfigured(t *testing.T) {
	g, err := NewGeminiExtractor(context.Background(), "", "gemini-2.5-flash", 0)
	require.NoError(t, err)
	assert.False(t, g.Configured())

	_, err = g.Extract(context.Background(), []byte("x"), "image/jpeg")
	assert.Equal(t, apierror.KindConfiguration, apierror.KindOf(err))
	assert.EqualError(t, err, "GEMINI_API_KEY is not configured")
}
