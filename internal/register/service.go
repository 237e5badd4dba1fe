package register

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venuepos/internal/cart"
	"github.com/angelmondragon/venuepos/internal/checkout"
	"github.com/angelmondragon/venuepos/internal/members"
	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

const releaseTimeout = 5 * time.Second

type productCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type memberDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Member, error)
	Lookup(ctx context.Context, tracker *members.Tracker, seq uint64, query string) ([]models.Member, error)
}

type committer interface {
	Commit(ctx context.Context, snapshot cart.Cart, operatorID string, method enums.PaymentMethod) checkout.Result
}

// session is one register's working state.
type session struct {
	cart    *cart.Manager
	tracker *members.Tracker
}

// MemberMatches is an accepted member search response.
type MemberMatches struct {
	Seq     uint64          `json:"seq"`
	Members []models.Member `json:"members"`
}

// Service owns one cart and one member search box per register and runs
// checkouts for them.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session

	engine   pricing.Engine
	catalog  productCatalog
	members  memberDirectory
	checkout committer
	guard    Guard
	logg     *logger.Logger
}

// NewService builds the register service. A nil guard falls back to an
// in-process guard.
func NewService(engine pricing.Engine, catalog productCatalog, directory memberDirectory, orchestrator committer, guard Guard, logg *logger.Logger) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if directory == nil {
		return nil, fmt.Errorf("member directory required")
	}
	if orchestrator == nil {
		return nil, fmt.Errorf("checkout orchestrator required")
	}
	if guard == nil {
		guard = NewLocalGuard()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		sessions: map[string]*session{},
		engine:   engine,
		catalog:  catalog,
		members:  directory,
		checkout: orchestrator,
		guard:    guard,
		logg:     logg,
	}, nil
}

func (s *Service) session(registerID string) (*session, error) {
	registerID = strings.TrimSpace(registerID)
	if registerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[registerID]
	if !ok {
		sess = &session{cart: cart.NewManager(s.engine), tracker: members.NewTracker()}
		s.sessions[registerID] = sess
	}
	return sess, nil
}

// Cart returns the register's current cart.
func (s *Service) Cart(registerID string) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	return sess.cart.Snapshot(), nil
}

// AddProduct adds one unit of an active catalog product.
func (s *Service) AddProduct(ctx context.Context, registerID string, productID uuid.UUID) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return cart.Cart{}, err
	}
	return sess.cart.AddItem(*product), nil
}

// SetQuantity replaces a line's quantity; zero or less removes it.
func (s *Service) SetQuantity(registerID string, productID uuid.UUID, quantity int) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	return sess.cart.SetQuantity(productID, quantity), nil
}

// SetDiscount sets a line's discount percent, clamped to [0, 100].
func (s *Service) SetDiscount(registerID string, productID uuid.UUID, pct decimal.Decimal) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	return sess.cart.SetDiscount(productID, pct), nil
}

// RemoveProduct drops a line.
func (s *Service) RemoveProduct(registerID string, productID uuid.UUID) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	return sess.cart.RemoveItem(productID), nil
}

// AttachMember links an active member to the cart.
func (s *Service) AttachMember(ctx context.Context, registerID string, memberID uuid.UUID) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return cart.Cart{}, err
	}
	return sess.cart.AttachMember(*member), nil
}

// DetachMember unlinks the cart's member.
func (s *Service) DetachMember(registerID string) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	return sess.cart.DetachMember(), nil
}

// ClearCart empties the cart and resets the member search box.
func (s *Service) ClearCart(registerID string) (cart.Cart, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return cart.Cart{}, err
	}
	sess.tracker.Reset()
	return sess.cart.Clear(), nil
}

// SearchMembers runs a last-query-wins member search. A zero seq asks the
// register to allocate the next sequence number.
func (s *Service) SearchMembers(ctx context.Context, registerID string, seq uint64, query string) (MemberMatches, error) {
	sess, err := s.session(registerID)
	if err != nil {
		return MemberMatches{}, err
	}
	if seq == 0 {
		seq = sess.tracker.Issue()
	}
	found, err := s.members.Lookup(ctx, sess.tracker, seq, query)
	if err != nil {
		return MemberMatches{Seq: seq}, err
	}
	return MemberMatches{Seq: seq, Members: found}, nil
}

// Checkout commits the register's cart. Only one checkout per register runs
// at a time, and the cart is cleared only when the sale is committed.
func (s *Service) Checkout(ctx context.Context, registerID, operatorID string, method enums.PaymentMethod) checkout.Result {
	sess, err := s.session(registerID)
	if err != nil {
		return checkout.Result{State: enums.CheckoutStateFailed, Err: err}
	}
	ctx = s.logg.WithRegisterID(ctx, registerID)

	release, err := s.guard.Acquire(ctx, registerID)
	if err != nil {
		return checkout.Result{State: enums.CheckoutStateFailed, Err: err}
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to release checkout guard")
		}
	}()

	result := s.checkout.Commit(ctx, sess.cart.Snapshot(), operatorID, method)
	if result.State == enums.CheckoutStateCommitted {
		sess.cart.Clear()
		sess.tracker.Reset()
	}
	return result
}
