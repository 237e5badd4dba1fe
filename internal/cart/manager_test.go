package cart

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newProduct(name, price string) models.Product {
	return models.Product{
		ID:            uuid.New(),
		Name:          name,
		Category:      "snacks",
		UnitPrice:     dec(price),
		StockQuantity: 5,
		IsActive:      true,
	}
}

func newManager() *Manager {
	return NewManager(pricing.NewEngine(dec("0.10")))
}

func TestAddItemTwiceIncrementsSingleLine(t *testing.T) {
	m := newManager()
	p := newProduct("Chips", "2.50")

	m.AddItem(p)
	snap := m.AddItem(p)

	require.Len(t, snap.Lines, 1)
	require.Equal(t, 2, snap.Lines[0].Quantity)
	require.True(t, snap.Lines[0].LineTotal.Equal(dec("5.00")))
	require.Equal(t, 2, snap.ItemCount())
}

func TestAddItemIgnoresStock(t *testing.T) {
	m := newManager()
	p := newProduct("Last one", "1.00")
	p.StockQuantity = 0

	snap := m.AddItem(p)
	require.Len(t, snap.Lines, 1)
}

func TestLinesKeepInsertionOrder(t *testing.T) {
	m := newManager()
	a, b, c := newProduct("A", "1.00"), newProduct("B", "2.00"), newProduct("C", "3.00")
	m.AddItem(a)
	m.AddItem(b)
	m.AddItem(c)
	snap := m.RemoveItem(b.ID)

	require.Len(t, snap.Lines, 2)
	require.Equal(t, a.ID, snap.Lines[0].Product.ID)
	require.Equal(t, c.ID, snap.Lines[1].Product.ID)

	snap = m.AddItem(b)
	require.Equal(t, b.ID, snap.Lines[2].Product.ID)
}

func TestSetQuantity(t *testing.T) {
	m := newManager()
	p := newProduct("Soda", "1.75")
	m.AddItem(p)

	snap := m.SetQuantity(p.ID, 4)
	require.Equal(t, 4, snap.Lines[0].Quantity)
	require.True(t, snap.Totals.Subtotal.Equal(dec("7.00")))

	snap = m.SetQuantity(uuid.New(), 9)
	require.Len(t, snap.Lines, 1)

	snap = m.SetQuantity(p.ID, 0)
	require.True(t, snap.IsEmpty())
	require.True(t, snap.Totals.GrandTotal.IsZero())

	m.AddItem(p)
	snap = m.SetQuantity(p.ID, -2)
	require.True(t, snap.IsEmpty())
}

func TestSetDiscountClamps(t *testing.T) {
	m := newManager()
	p := newProduct("Beer", "6.00")
	m.AddItem(p)

	snap := m.SetDiscount(p.ID, dec("-10"))
	require.True(t, snap.Lines[0].DiscountPercent.IsZero())
	require.True(t, snap.Lines[0].LineTotal.Equal(dec("6.00")))

	snap = m.SetDiscount(p.ID, dec("150"))
	require.True(t, snap.Lines[0].DiscountPercent.Equal(dec("100")))
	require.True(t, snap.Lines[0].LineTotal.IsZero())

	snap = m.SetDiscount(p.ID, dec("25"))
	require.True(t, snap.Lines[0].LineTotal.Equal(dec("4.50")))

	snap = m.SetDiscount(uuid.New(), dec("50"))
	require.Len(t, snap.Lines, 1)
	require.True(t, snap.Lines[0].DiscountPercent.Equal(dec("25")))
}

func TestSetDiscountKeepsTwoDecimals(t *testing.T) {
	m := newManager()
	p := newProduct("Bottle", "100.00")
	m.AddItem(p)

	snap := m.SetDiscount(p.ID, dec("12.345"))
	line := snap.Lines[0]
	require.True(t, line.DiscountPercent.Equal(dec("12.35")), "got %s", line.DiscountPercent)
	require.GreaterOrEqual(t, line.DiscountPercent.Exponent(), int32(-2))

	recomputed, err := pricing.LineTotal(line.Product.UnitPrice, line.Quantity, line.DiscountPercent)
	require.NoError(t, err)
	require.True(t, line.LineTotal.Equal(dec("87.65")), "got %s", line.LineTotal)
	require.True(t, recomputed.Equal(line.LineTotal))
}

func TestZeroEngineUsesDefaultTaxRate(t *testing.T) {
	m := NewManager(pricing.Engine{})
	snap := m.AddItem(newProduct("A", "10.00"))
	require.True(t, snap.Totals.Tax.Equal(dec("1.00")), "got %s", snap.Totals.Tax)
	require.True(t, snap.Totals.GrandTotal.Equal(dec("11.00")))
}

func TestWorkedExampleTotals(t *testing.T) {
	m := newManager()
	a := newProduct("A", "10.00")
	b := newProduct("B", "5.00")
	m.AddItem(a)
	m.AddItem(a)
	m.AddItem(b)
	snap := m.SetDiscount(b.ID, dec("10"))

	require.True(t, snap.Totals.Subtotal.Equal(dec("24.50")))
	require.True(t, snap.Totals.Tax.Equal(dec("2.45")))
	require.True(t, snap.Totals.GrandTotal.Equal(dec("26.95")))
}

func TestMemberAttachDetachAndClear(t *testing.T) {
	m := newManager()
	member := models.Member{
		ID:             uuid.New(),
		MemberNumber:   "M-0001",
		FullName:       "Dana Reyes",
		MembershipTier: enums.MembershipTierPremium,
		Status:         enums.MembershipStatusActive,
	}

	snap := m.AttachMember(member)
	require.NotNil(t, snap.Member)
	require.Equal(t, member.ID, snap.Member.ID)

	snap = m.DetachMember()
	require.Nil(t, snap.Member)

	m.AttachMember(member)
	m.AddItem(newProduct("A", "1.00"))
	snap = m.Clear()
	require.True(t, snap.IsEmpty())
	require.Nil(t, snap.Member)
	require.True(t, snap.Totals.Subtotal.IsZero())
}

func TestSnapshotIsIsolatedFromLaterMutations(t *testing.T) {
	m := newManager()
	p := newProduct("A", "1.00")
	m.AddItem(p)
	m.AttachMember(models.Member{ID: uuid.New(), FullName: "Before"})

	snap := m.Snapshot()
	m.SetQuantity(p.ID, 9)
	m.AttachMember(models.Member{ID: uuid.New(), FullName: "After"})

	require.Equal(t, 1, snap.Lines[0].Quantity)
	require.Equal(t, "Before", snap.Member.FullName)

	snap.Lines[0].Quantity = 42
	line, ok := m.Snapshot().Line(p.ID)
	require.True(t, ok)
	require.Equal(t, 9, line.Quantity)
}

func TestSnapshotMemberPhoneIsCopied(t *testing.T) {
	m := newManager()
	phone := "555-0100"
	member := models.Member{ID: uuid.New(), FullName: "Dana Reyes", Phone: &phone}

	snap := m.AttachMember(member)
	phone = "555-9999"
	require.Equal(t, "555-0100", *snap.Member.Phone)

	*snap.Member.Phone = "000-0000"
	again := m.Snapshot()
	require.Equal(t, "555-0100", *again.Member.Phone)
	require.NotSame(t, snap.Member.Phone, again.Member.Phone)
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	m := newManager()
	p := newProduct("A", "0.10")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AddItem(p)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	require.Len(t, snap.Lines, 1)
	require.Equal(t, 50, snap.Lines[0].Quantity)
	require.True(t, snap.Totals.Subtotal.Equal(dec("5.00")))
}

func TestPricingLines(t *testing.T) {
	m := newManager()
	p := newProduct("A", "3.00")
	m.AddItem(p)
	snap := m.SetDiscount(p.ID, dec("50"))

	lines := snap.PricingLines()
	require.Len(t, lines, 1)
	require.Equal(t, 1, lines[0].Quantity)
	require.True(t, lines[0].DiscountPercent.Equal(dec("50")))
}
