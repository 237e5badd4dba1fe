package register

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/venuepos/internal/cart"
	"github.com/angelmondragon/venuepos/internal/checkout"
	"github.com/angelmondragon/venuepos/internal/members"
	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
)

type stubCatalog struct {
	products map[uuid.UUID]models.Product
}

func (s *stubCatalog) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

type stubDirectory struct {
	member  models.Member
	matches []models.Member
	seqs    []uint64
}

func (s *stubDirectory) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	if id != s.member.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	m := s.member
	return &m, nil
}

func (s *stubDirectory) Lookup(ctx context.Context, tracker *members.Tracker, seq uint64, query string) ([]models.Member, error) {
	s.seqs = append(s.seqs, seq)
	if err := tracker.Claim(seq); err != nil {
		return nil, err
	}
	if err := tracker.Accept(seq, s.matches); err != nil {
		return nil, err
	}
	return s.matches, nil
}

type stubCommitter struct {
	mu        sync.Mutex
	result    checkout.Result
	snapshots []cart.Cart
	entered   chan struct{}
	proceed   chan struct{}
}

func (s *stubCommitter) Commit(ctx context.Context, snapshot cart.Cart, operatorID string, method enums.PaymentMethod) checkout.Result {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snapshot)
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.proceed
	}
	return s.result
}

type fixture struct {
	svc       *Service
	committer *stubCommitter
	directory *stubDirectory
	product   models.Product
}

func newFixture(t *testing.T, result checkout.Result) fixture {
	t.Helper()
	product := models.Product{ID: uuid.New(), Name: "Cola", Category: "drinks", UnitPrice: decimal.RequireFromString("2.00"), StockQuantity: 3, IsActive: true}
	directory := &stubDirectory{
		member:  models.Member{ID: uuid.New(), FullName: "Ana Lima", Status: enums.MembershipStatusActive},
		matches: []models.Member{{ID: uuid.New(), FullName: "Ana Lima"}},
	}
	committer := &stubCommitter{result: result}
	svc, err := NewService(
		pricing.NewEngine(decimal.RequireFromString("0.10")),
		&stubCatalog{products: map[uuid.UUID]models.Product{product.ID: product}},
		directory,
		committer,
		nil,
		nil,
	)
	require.NoError(t, err)
	return fixture{svc: svc, committer: committer, directory: directory, product: product}
}

func TestNewServiceValidatesDeps(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultTaxRate)
	_, err := NewService(engine, nil, &stubDirectory{}, &stubCommitter{}, nil, nil)
	require.Error(t, err)
	_, err = NewService(engine, &stubCatalog{}, nil, &stubCommitter{}, nil, nil)
	require.Error(t, err)
	_, err = NewService(engine, &stubCatalog{}, &stubDirectory{}, nil, nil, nil)
	require.Error(t, err)
}

func TestRegistersHaveIndependentCarts(t *testing.T) {
	f := newFixture(t, checkout.Result{})
	ctx := context.Background()

	snap, err := f.svc.AddProduct(ctx, "reg-1", f.product.ID)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)

	other, err := f.svc.Cart("reg-2")
	require.NoError(t, err)
	require.True(t, other.IsEmpty())

	_, err = f.svc.Cart("  ")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCartOperationsFlowThroughManager(t *testing.T) {
	f := newFixture(t, checkout.Result{})
	ctx := context.Background()

	_, err := f.svc.AddProduct(ctx, "reg-1", f.product.ID)
	require.NoError(t, err)
	snap, err := f.svc.SetQuantity("reg-1", f.product.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, snap.Lines[0].Quantity)

	snap, err = f.svc.SetDiscount("reg-1", f.product.ID, decimal.RequireFromString("120"))
	require.NoError(t, err)
	require.True(t, snap.Lines[0].DiscountPercent.Equal(decimal.NewFromInt(100)))

	snap, err = f.svc.AttachMember(ctx, "reg-1", f.directory.member.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.Member)

	_, err = f.svc.AttachMember(ctx, "reg-1", uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	snap, err = f.svc.DetachMember("reg-1")
	require.NoError(t, err)
	require.Nil(t, snap.Member)

	snap, err = f.svc.RemoveProduct("reg-1", f.product.ID)
	require.NoError(t, err)
	require.True(t, snap.IsEmpty())

	_, err = f.svc.AddProduct(ctx, "reg-1", uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCheckoutClearsCartOnlyWhenCommitted(t *testing.T) {
	f := newFixture(t, checkout.Result{State: enums.CheckoutStateFailed, Err: checkout.ErrStoreUnavailable})
	ctx := context.Background()
	_, err := f.svc.AddProduct(ctx, "reg-1", f.product.ID)
	require.NoError(t, err)

	res := f.svc.Checkout(ctx, "reg-1", "op-1", enums.PaymentMethodCash)
	require.False(t, res.Success)
	snap, err := f.svc.Cart("reg-1")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)

	f.committer.result = checkout.Result{State: enums.CheckoutStateCommitted, Success: true, SaleNumber: "TXN-1"}
	res = f.svc.Checkout(ctx, "reg-1", "op-1", enums.PaymentMethodCash)
	require.True(t, res.Success)
	snap, err = f.svc.Cart("reg-1")
	require.NoError(t, err)
	require.True(t, snap.IsEmpty())

	require.Len(t, f.committer.snapshots, 2)
	require.Len(t, f.committer.snapshots[1].Lines, 1)
}

func TestCheckoutRejectsConcurrentCommitOnSameRegister(t *testing.T) {
	f := newFixture(t, checkout.Result{State: enums.CheckoutStateCommitted, Success: true})
	f.committer.entered = make(chan struct{})
	f.committer.proceed = make(chan struct{})
	ctx := context.Background()
	_, err := f.svc.AddProduct(ctx, "reg-1", f.product.ID)
	require.NoError(t, err)

	done := make(chan checkout.Result, 1)
	go func() { done <- f.svc.Checkout(ctx, "reg-1", "op-1", enums.PaymentMethodCard) }()
	<-f.committer.entered

	second := f.svc.Checkout(ctx, "reg-1", "op-1", enums.PaymentMethodCard)
	require.ErrorIs(t, second.Err, ErrCheckoutInProgress)
	require.Equal(t, enums.CheckoutStateFailed, second.State)

	close(f.committer.proceed)
	first := <-done
	require.True(t, first.Success)
}

func TestClearCartResetsMemberSearch(t *testing.T) {
	f := newFixture(t, checkout.Result{})
	ctx := context.Background()

	matches, err := f.svc.SearchMembers(ctx, "reg-1", 0, "ana")
	require.NoError(t, err)
	require.Equal(t, uint64(1), matches.Seq)
	require.Len(t, matches.Members, 1)

	matches, err = f.svc.SearchMembers(ctx, "reg-1", 5, "ana l")
	require.NoError(t, err)
	require.Equal(t, uint64(5), matches.Seq)

	_, err = f.svc.SearchMembers(ctx, "reg-1", 4, "an")
	require.ErrorIs(t, err, members.ErrStaleQuery)

	_, err = f.svc.ClearCart("reg-1")
	require.NoError(t, err)

	// the reset superseded seq 5, so replaying it is stale
	_, err = f.svc.SearchMembers(ctx, "reg-1", 5, "ana")
	require.ErrorIs(t, err, members.ErrStaleQuery)

	matches, err = f.svc.SearchMembers(ctx, "reg-1", 0, "ana")
	require.NoError(t, err)
	require.Equal(t, uint64(7), matches.Seq)
}
