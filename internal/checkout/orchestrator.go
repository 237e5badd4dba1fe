package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/venuepos/internal/cart"
	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/internal/products"
	"github.com/angelmondragon/venuepos/pkg/db"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"github.com/angelmondragon/venuepos/pkg/logger"
	"github.com/angelmondragon/venuepos/pkg/metrics"
)

const markFailedTimeout = 5 * time.Second

type saleStore interface {
	CreateSale(ctx context.Context, sale *models.Sale) error
	CreateSaleLine(ctx context.Context, line *models.SaleLine) error
	UpdatePaymentStatus(ctx context.Context, saleID uuid.UUID, status enums.PaymentStatus) error
}

type stockStore interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (products.StockChange, error)
}

// Result is the outcome of one commit attempt.
type Result struct {
	State      enums.CheckoutState `json:"state"`
	Success    bool                `json:"success"`
	SaleNumber string              `json:"sale_number,omitempty"`
	Sale       *models.Sale        `json:"sale,omitempty"`
	Err        error               `json:"-"`
}

// Options tunes an Orchestrator.
type Options struct {
	Engine   pricing.Engine
	Location *time.Location
	Timeout  time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.CheckoutMetrics
	Now      func() time.Time
}

// Orchestrator turns a cart snapshot into a durable sale. The store offers no
// multi-row transaction, so the sale is written pending first and only marked
// completed once every line and stock decrement has landed.
type Orchestrator struct {
	sales    saleStore
	stock    stockStore
	numbers  NumberAllocator
	engine   pricing.Engine
	location *time.Location
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	now      func() time.Time
}

// NewOrchestrator builds the checkout orchestrator.
func NewOrchestrator(sales saleStore, stock stockStore, numbers NumberAllocator, opts Options) (*Orchestrator, error) {
	if sales == nil {
		return nil, fmt.Errorf("sale store required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock store required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("sale number allocator required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Engine.IsZero() {
		opts.Engine = pricing.NewEngine(pricing.DefaultTaxRate)
	}
	return &Orchestrator{
		sales:    sales,
		stock:    stock,
		numbers:  numbers,
		engine:   opts.Engine,
		location: opts.Location,
		timeout:  opts.Timeout,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}, nil
}

// run tracks one commit through idle → processing → committed|failed.
type run struct {
	o       *Orchestrator
	ctx     context.Context
	state   enums.CheckoutState
	started time.Time
	saleID  uuid.UUID
	number  string
	applied []Step
}

func (r *run) transition(next enums.CheckoutState) {
	if !r.state.CanTransition(next) {
		r.o.logg.Warn(r.ctx, fmt.Sprintf("ignoring checkout transition %s -> %s", r.state, next))
		return
	}
	r.o.logg.Info(r.o.logg.WithFields(r.ctx, map[string]any{"from": r.state, "to": next}), "checkout state changed")
	r.state = next
}

func (r *run) fail(err error) Result {
	r.transition(enums.CheckoutStateFailed)
	outcome := metrics.OutcomeFailed
	if pkgerrors.HasCode(err, pkgerrors.CodePartialCommit) {
		outcome = metrics.OutcomePartial
		r.o.logg.Error(r.ctx, "checkout partially committed, reconciliation required", err)
	} else {
		r.o.logg.Warn(r.o.logg.WithField(r.ctx, "error", err.Error()), "checkout failed")
	}
	r.o.metrics.ObserveCheckout(outcome, time.Since(r.started))
	return Result{State: r.state, SaleNumber: r.number, Err: err}
}

// Commit records snapshot as a sale paid with method. Totals are recomputed
// from the snapshot lines; the snapshot's own totals are ignored. Nothing is
// rolled back or retried on failure.
func (o *Orchestrator) Commit(ctx context.Context, snapshot cart.Cart, operatorID string, method enums.PaymentMethod) Result {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	ctx = o.logg.WithOperatorID(ctx, operatorID)
	r := &run{o: o, ctx: ctx, state: enums.CheckoutStateIdle, started: time.Now()}

	if snapshot.IsEmpty() {
		return r.fail(ErrEmptyCart)
	}
	if operatorID == "" {
		return r.fail(pkgerrors.New(pkgerrors.CodeValidation, "operator id required"))
	}
	if !method.IsValid() {
		return r.fail(pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method)))
	}

	r.transition(enums.CheckoutStateProcessing)

	// Discounts are priced at the precision sale_lines stores them.
	inputs := make([]pricing.Line, 0, len(snapshot.Lines))
	lines := make([]models.SaleLine, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		discount := pricing.RoundPercent(line.DiscountPercent)
		lineTotal, err := pricing.LineTotal(line.Product.UnitPrice, line.Quantity, discount)
		if err != nil {
			return r.fail(err)
		}
		inputs = append(inputs, pricing.Line{
			UnitPrice:       line.Product.UnitPrice,
			Quantity:        line.Quantity,
			DiscountPercent: discount,
		})
		lines = append(lines, models.SaleLine{
			ProductID:       line.Product.ID,
			Quantity:        line.Quantity,
			UnitPrice:       line.Product.UnitPrice,
			DiscountPercent: discount,
			LineTotal:       lineTotal,
		})
	}
	totals, err := o.engine.Totals(inputs)
	if err != nil {
		return r.fail(err)
	}

	businessDate := o.businessDate()
	if err := ctx.Err(); err != nil {
		return r.fail(storeUnavailable("checkout canceled", err))
	}
	r.number, err = o.numbers.Next(ctx, businessDate)
	if err != nil {
		return r.fail(storeUnavailable("allocate sale number", err))
	}
	r.saleID = uuid.New()
	ctx = o.logg.WithSaleNumber(ctx, r.number)
	r.ctx = ctx

	sale := &models.Sale{
		ID:             r.saleID,
		SaleNumber:     r.number,
		OperatorID:     operatorID,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.Tax,
		DiscountAmount: totals.Discount,
		GrandTotal:     totals.GrandTotal,
		PaymentMethod:  method,
		PaymentStatus:  enums.PaymentStatusPending,
		BusinessDate:   businessDate,
	}
	if snapshot.Member != nil {
		memberID := snapshot.Member.ID
		sale.MemberID = &memberID
	}

	if err := o.createSale(ctx, sale, businessDate); err != nil {
		return r.fail(storeUnavailable("create sale", err))
	}
	r.number = sale.SaleNumber
	r.applied = append(r.applied, Step{Action: StepCreateSale})

	for i := range lines {
		line := &lines[i]
		line.ID = uuid.New()
		line.SaleID = sale.ID

		step := Step{Action: StepCreateSaleLine, ProductID: line.ProductID, Quantity: line.Quantity}
		if err := o.step(ctx, func(ctx context.Context) error { return o.sales.CreateSaleLine(ctx, line) }); err != nil {
			return r.fail(o.abandon(r, step, err))
		}
		r.applied = append(r.applied, step)

		step = Step{Action: StepDecrementStock, ProductID: line.ProductID, Quantity: line.Quantity}
		var change products.StockChange
		err := o.step(ctx, func(ctx context.Context) error {
			var decErr error
			change, decErr = o.stock.DecrementStock(ctx, line.ProductID, line.Quantity)
			return decErr
		})
		o.metrics.AddStockRetries(change.Retries)
		if err != nil {
			return r.fail(o.abandon(r, step, err))
		}
		if change.Previous < line.Quantity {
			o.logg.Warn(o.logg.WithFields(ctx, map[string]any{
				"product_id": line.ProductID.String(),
				"requested":  line.Quantity,
				"available":  change.Previous,
			}), "stock oversold, clamped at zero")
		}
		r.applied = append(r.applied, step)
	}

	step := Step{Action: StepCompleteSale}
	if err := o.step(ctx, func(ctx context.Context) error {
		return o.sales.UpdatePaymentStatus(ctx, sale.ID, enums.PaymentStatusCompleted)
	}); err != nil {
		return r.fail(o.abandon(r, step, err))
	}

	sale.PaymentStatus = enums.PaymentStatusCompleted
	sale.Lines = lines
	r.transition(enums.CheckoutStateCommitted)
	o.metrics.ObserveCheckout(metrics.OutcomeCommitted, time.Since(r.started))
	return Result{State: r.state, Success: true, SaleNumber: sale.SaleNumber, Sale: sale}
}

// step runs one store write unless the commit was already canceled.
func (o *Orchestrator) step(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// createSale inserts the pending sale. A sale number collision wrote nothing,
// so the number is reallocated once from the clock.
func (o *Orchestrator) createSale(ctx context.Context, sale *models.Sale, businessDate time.Time) error {
	err := o.step(ctx, func(ctx context.Context) error { return o.sales.CreateSale(ctx, sale) })
	if err == nil || !db.IsUniqueViolation(err, "sale_number") {
		return err
	}
	o.logg.Warn(ctx, "sale number collision, reallocating")
	number, numErr := NewClockAllocator(prefixOf(sale.SaleNumber)).Next(ctx, businessDate)
	if numErr != nil {
		return multierr.Append(err, numErr)
	}
	sale.SaleNumber = number
	return o.step(ctx, func(ctx context.Context) error { return o.sales.CreateSale(ctx, sale) })
}

// abandon builds the partial-commit error and makes a best-effort attempt to
// flag the provisional sale as failed so it is easy to find.
func (o *Orchestrator) abandon(r *run, failed Step, cause error) error {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), markFailedTimeout)
	defer cancel()
	if markErr := o.sales.UpdatePaymentStatus(markCtx, r.saleID, enums.PaymentStatusFailed); markErr != nil {
		cause = multierr.Append(cause, fmt.Errorf("mark sale failed: %w", markErr))
	}
	return partialCommit(r.saleID, r.number, r.applied, failed, cause)
}

func (o *Orchestrator) businessDate() time.Time {
	now := o.now().In(o.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, o.location)
}

func prefixOf(saleNumber string) string {
	for i, r := range saleNumber {
		if r == '-' {
			return saleNumber[:i]
		}
	}
	return DefaultSaleNumberPrefix
}
