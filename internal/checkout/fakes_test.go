package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venuepos/internal/products"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
)

type fakeSales struct {
	mu         sync.Mutex
	calls      int
	sales      []models.Sale
	lines      []models.SaleLine
	statuses   []enums.PaymentStatus
	createErrs []error
	lineErrAt  int
	lineErr    error
	updateErr  map[enums.PaymentStatus]error
}

func (f *fakeSales) CreateSale(ctx context.Context, sale *models.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	f.sales = append(f.sales, *sale)
	return nil
}

func (f *fakeSales) CreateSaleLine(ctx context.Context, line *models.SaleLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.lineErr != nil && len(f.lines)+1 == f.lineErrAt {
		return f.lineErr
	}
	f.lines = append(f.lines, *line)
	return nil
}

func (f *fakeSales) UpdatePaymentStatus(ctx context.Context, saleID uuid.UUID, status enums.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.updateErr[status]; err != nil {
		return err
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeSales) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStock struct {
	mu      sync.Mutex
	calls   int
	levels  map[uuid.UUID]int
	failFor uuid.UUID
	err     error
}

func (f *fakeStock) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (products.StockChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if productID == f.failFor && f.err != nil {
		return products.StockChange{ProductID: productID}, f.err
	}
	prev := f.levels[productID]
	next := max(prev-quantity, 0)
	f.levels[productID] = next
	return products.StockChange{ProductID: productID, Previous: prev, New: next}, nil
}

type fakeAllocator struct {
	mu     sync.Mutex
	n      int
	err    error
	prefix string
}

func (f *fakeAllocator) Next(ctx context.Context, businessDate time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.n++
	prefix := f.prefix
	if prefix == "" {
		prefix = "TXN"
	}
	return fmt.Sprintf("%s-%s-%06d", prefix, businessDate.Format("20060102"), f.n), nil
}

type fakeCounters struct {
	mu     sync.Mutex
	values map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func (f *fakeCounters) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.values == nil {
		f.values = map[string]int64{}
		f.ttls = map[string]time.Duration{}
	}
	f.values[key]++
	f.ttls[key] = ttl
	return f.values[key], nil
}

func (f *fakeCounters) CounterKey(parts ...string) string {
	key := "vp:counter"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

var errStore = errors.New("connection refused")
