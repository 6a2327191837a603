package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kerem-gursoy/uup/internal/apierror"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/kerem-gursoy/uup/internal/service")

func startInvoiceSpan(ctx context.Context, name string, invoiceID uint) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("invoice.id", int64(invoiceID))))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// runTx runs fn inside a transaction. A nil db (unit tests with stub repos)
// runs fn directly with a nil tx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// notFound converts gorm.ErrRecordNotFound into a NotFound error and wraps
// anything else with context.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// SummaryCache stores product summaries in Redis. A nil client disables it.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration) SummaryCache {
	return SummaryCache{rdb: rdb, ttl: ttl}
}

func summaryKey(productID uint) string { return fmt.Sprintf("summary:%d", productID) }

func (c SummaryCache) get(ctx context.Context, productID uint, dest any) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, summaryKey(productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Uint("product_id", productID).Msg("summary cache read failed")
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c SummaryCache) set(ctx context.Context, productID uint, v any) {
	if c.rdb == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, summaryKey(productID), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Uint("product_id", productID).Msg("summary cache write failed")
	}
}

func (c SummaryCache) invalidate(ctx context.Context, productIDs ...uint) {
	if c.rdb == nil || len(productIDs) == 0 {
		return
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = summaryKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("summary cache invalidation failed")
	}
}

func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
