package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/pkg/db/models"
)

// Manager owns a single mutable cart. All operations are serialized and each
// returns the snapshot taken right after the mutation.
type Manager struct {
	mu     sync.Mutex
	engine pricing.Engine
	order  []uuid.UUID
	lines  map[uuid.UUID]*Line
	member *models.Member
	totals pricing.Totals
}

// NewManager returns an empty cart priced by engine.
// An unconfigured engine prices at pricing.DefaultTaxRate.
func NewManager(engine pricing.Engine) *Manager {
	if engine.IsZero() {
		engine = pricing.NewEngine(pricing.DefaultTaxRate)
	}
	return &Manager{
		engine: engine,
		lines:  map[uuid.UUID]*Line{},
	}
}

// AddItem appends product with quantity 1, or increments the existing line.
// Stock is advisory and not checked here.
func (m *Manager) AddItem(product models.Product) Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	if line, ok := m.lines[product.ID]; ok {
		line.Quantity++
	} else {
		m.lines[product.ID] = &Line{Product: product, Quantity: 1, DiscountPercent: decimal.Zero}
		m.order = append(m.order, product.ID)
	}
	m.recompute()
	return m.snapshot()
}

// SetQuantity replaces a line's quantity. A quantity of zero or less removes
// the line; an unknown product is a no-op.
func (m *Manager) SetQuantity(productID uuid.UUID, quantity int) Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	line, ok := m.lines[productID]
	if !ok {
		return m.snapshot()
	}
	if quantity <= 0 {
		m.remove(productID)
	} else {
		line.Quantity = quantity
	}
	m.recompute()
	return m.snapshot()
}

// SetDiscount sets a line's discount, clamped to [0, 100]. Unknown products are ignored.
func (m *Manager) SetDiscount(productID uuid.UUID, pct decimal.Decimal) Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	line, ok := m.lines[productID]
	if !ok {
		return m.snapshot()
	}
	line.DiscountPercent = pricing.ClampDiscount(pct)
	m.recompute()
	return m.snapshot()
}

// RemoveItem drops the line for productID.
func (m *Manager) RemoveItem(productID uuid.UUID) Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(productID)
	m.recompute()
	return m.snapshot()
}

// AttachMember links member to the cart, replacing any previous one.
func (m *Manager) AttachMember(member models.Member) Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.member = cloneMember(&member)
	return m.snapshot()
}

// DetachMember unlinks the current member, if any.
func (m *Manager) DetachMember() Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.member = nil
	return m.snapshot()
}

// Clear empties the cart and detaches the member.
func (m *Manager) Clear() Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = nil
	m.lines = map[uuid.UUID]*Line{}
	m.member = nil
	m.totals = pricing.Totals{}
	return m.snapshot()
}

// Snapshot returns an immutable copy of the cart and its totals.
func (m *Manager) Snapshot() Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Manager) remove(productID uuid.UUID) {
	if _, ok := m.lines[productID]; !ok {
		return
	}
	delete(m.lines, productID)
	for i, id := range m.order {
		if id == productID {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
}

// recompute refreshes every line total and the cart totals. Lines always hold
// a positive quantity and a clamped discount, so pricing cannot fail here.
func (m *Manager) recompute() {
	inputs := make([]pricing.Line, 0, len(m.order))
	for _, id := range m.order {
		line := m.lines[id]
		total, err := pricing.LineTotal(line.Product.UnitPrice, line.Quantity, line.DiscountPercent)
		if err != nil {
			total = decimal.Zero
		}
		line.LineTotal = total
		inputs = append(inputs, pricing.Line{
			UnitPrice:       line.Product.UnitPrice,
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent,
		})
	}
	totals, err := m.engine.Totals(inputs)
	if err != nil {
		totals = pricing.Totals{}
	}
	m.totals = totals
}

func (m *Manager) snapshot() Cart {
	lines := make([]Line, 0, len(m.order))
	for _, id := range m.order {
		lines = append(lines, *m.lines[id])
	}
	return Cart{Lines: lines, Member: cloneMember(m.member), Totals: m.totals}
}

func cloneMember(member *models.Member) *models.Member {
	if member == nil {
		return nil
	}
	copied := *member
	if member.Phone != nil {
		phone := *member.Phone
		copied.Phone = &phone
	}
	return &copied
}
