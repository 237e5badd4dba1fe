package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
)

var (
	// ErrEmptyCart rejects a commit before anything touches the store.
	ErrEmptyCart = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")

	// ErrStoreUnavailable marks a failure that happened before any write.
	// Retrying the whole commit is safe.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrPartialCommit marks a failure after at least one write landed.
	// It needs operator reconciliation and must never be retried blindly.
	ErrPartialCommit = errors.New("sale partially committed")
)

// StepAction names one write of the commit protocol.
type StepAction string

const (
	StepCreateSale     StepAction = "create_sale"
	StepCreateSaleLine StepAction = "create_sale_line"
	StepDecrementStock StepAction = "decrement_stock"
	StepCompleteSale   StepAction = "complete_sale"
)

// Step is one write attempted against the record store.
type Step struct {
	Action    StepAction `json:"action"`
	ProductID uuid.UUID  `json:"product_id,omitempty"`
	Quantity  int        `json:"quantity,omitempty"`
}

func (s Step) String() string {
	if s.ProductID == uuid.Nil {
		return string(s.Action)
	}
	return fmt.Sprintf("%s(%s x%d)", s.Action, s.ProductID, s.Quantity)
}

// PartialCommitError describes which writes landed before the commit broke.
type PartialCommitError struct {
	SaleID     uuid.UUID
	SaleNumber string
	Applied    []Step
	Failed     Step
	Cause      error
}

func (e *PartialCommitError) Error() string {
	applied := make([]string, 0, len(e.Applied))
	for _, step := range e.Applied {
		applied = append(applied, step.String())
	}
	return fmt.Sprintf("sale %s partially committed: %s failed after [%s]: %v",
		e.SaleNumber, e.Failed, strings.Join(applied, ", "), e.Cause)
}

func (e *PartialCommitError) Unwrap() []error {
	return []error{ErrPartialCommit, e.Cause}
}

// PartialCommitDetails is the public shape of a partial commit.
type PartialCommitDetails struct {
	SaleNumber string `json:"sale_number"`
	Applied    []Step `json:"applied_steps"`
	Failed     Step   `json:"failed_step"`
}

func partialCommit(saleID uuid.UUID, saleNumber string, applied []Step, failed Step, cause error) error {
	partial := &PartialCommitError{
		SaleID:     saleID,
		SaleNumber: saleNumber,
		Applied:    append([]Step(nil), applied...),
		Failed:     failed,
		Cause:      cause,
	}
	return pkgerrors.Wrap(pkgerrors.CodePartialCommit, partial, "sale partially recorded").
		WithDetails(PartialCommitDetails{SaleNumber: saleNumber, Applied: partial.Applied, Failed: failed})
}

func storeUnavailable(step string, cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %w", ErrStoreUnavailable, cause), step)
}
