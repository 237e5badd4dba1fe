package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venuepos/pkg/logger"
)

const (
	DefaultSaleNumberPrefix = "TXN"
	saleCounterTTL          = 48 * time.Hour
)

// NumberAllocator hands out human-readable sale numbers. Uniqueness is
// required; ordering is only advisory.
type NumberAllocator interface {
	Next(ctx context.Context, businessDate time.Time) (string, error)
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(parts ...string) string
}

// CounterAllocator numbers sales per business day from a shared redis counter:
// TXN-20261015-000042.
type CounterAllocator struct {
	counters counterStore
	prefix   string
}

// NewCounterAllocator builds a CounterAllocator.
func NewCounterAllocator(counters counterStore, prefix string) *CounterAllocator {
	return &CounterAllocator{counters: counters, prefix: normalizePrefix(prefix)}
}

func (a *CounterAllocator) Next(ctx context.Context, businessDate time.Time) (string, error) {
	day := businessDate.Format("20060102")
	n, err := a.counters.IncrWithTTL(ctx, a.counters.CounterKey("sale_number", day), saleCounterTTL)
	if err != nil {
		return "", fmt.Errorf("increment sale counter: %w", err)
	}
	return fmt.Sprintf("%s-%s-%06d", a.prefix, day, n), nil
}

// ClockAllocator derives sale numbers from the wall clock plus a random
// suffix: TXN-20261015-143005123-9f1c.
type ClockAllocator struct {
	prefix string
	now    func() time.Time
}

// NewClockAllocator builds a ClockAllocator.
func NewClockAllocator(prefix string) *ClockAllocator {
	return &ClockAllocator{prefix: normalizePrefix(prefix), now: time.Now}
}

func (a *ClockAllocator) Next(ctx context.Context, businessDate time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stamp := a.now().In(businessDate.Location())
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return fmt.Sprintf("%s-%s-%s%03d-%s",
		a.prefix,
		businessDate.Format("20060102"),
		stamp.Format("150405"),
		stamp.Nanosecond()/int(time.Millisecond),
		suffix,
	), nil
}

// FallbackAllocator tries primary and drops to secondary when it fails.
type FallbackAllocator struct {
	primary   NumberAllocator
	secondary NumberAllocator
	logg      *logger.Logger
}

// NewFallbackAllocator builds a FallbackAllocator. A nil primary always uses secondary.
func NewFallbackAllocator(primary, secondary NumberAllocator, logg *logger.Logger) *FallbackAllocator {
	if logg == nil {
		logg = logger.Nop()
	}
	return &FallbackAllocator{primary: primary, secondary: secondary, logg: logg}
}

func (a *FallbackAllocator) Next(ctx context.Context, businessDate time.Time) (string, error) {
	if a.primary != nil {
		number, err := a.primary.Next(ctx, businessDate)
		if err == nil {
			return number, nil
		}
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "sale counter unavailable, using clock sale number")
	}
	return a.secondary.Next(ctx, businessDate)
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return DefaultSaleNumberPrefix
	}
	return strings.ToUpper(prefix)
}
