package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// ChannelLocal is the in-store sales channel
const ChannelLocal = "local"

// PaymentMethod is how a sale was paid
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "efectivo"
	PaymentCard  PaymentMethod = "tarjeta"
	PaymentMixed PaymentMethod = "mixto"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMixed:
		return true
	}
	return false
}

// SaleItem is one line of a sale, tied to the lot it was served from
type SaleItem struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	LotID     *uuid.UUID
	Qty       int
	UnitPrice decimal.Decimal
	PromoID   *uuid.UUID
}

// Subtotal returns qty * unit price
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Sale is a completed sale with its items
type Sale struct {
	shared.BaseEntity
	SoldAt        time.Time
	Channel       string
	PaymentMethod PaymentMethod
	ReceiptNo     string
	Total         decimal.Decimal
	Items         []SaleItem
}

// NewSale creates an empty sale
func NewSale(soldAt time.Time, channel string, payment PaymentMethod, receiptNo string) (*Sale, error) {
	if channel == "" {
		channel = ChannelLocal
	}
	if !payment.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(payment))
	}
	if soldAt.IsZero() {
		soldAt = time.Now()
	}
	return &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		SoldAt:        soldAt,
		Channel:       channel,
		PaymentMethod: payment,
		ReceiptNo:     receiptNo,
		Total:         decimal.Zero,
		Items:         make([]SaleItem, 0),
	}, nil
}

// AddItem appends a line and adds its subtotal to the sale total
func (s *Sale) AddItem(productID uuid.UUID, lotID *uuid.UUID, qty int, unitPrice decimal.Decimal, promoID *uuid.UUID) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Sale item must reference a product")
	}
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Sale item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	item := SaleItem{
		ID:        uuid.New(),
		SaleID:    s.ID,
		ProductID: productID,
		LotID:     lotID,
		Qty:       qty,
		UnitPrice: unitPrice,
		PromoID:   promoID,
	}
	s.Items = append(s.Items, item)
	s.Total = s.Total.Add(item.Subtotal())
	return nil
}

// ItemsTotal sums qty * unit price over the items
func (s *Sale) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TotalMatchesItems reports whether the stored total equals the item sum.
// Totals are not enforced, so imported sales may disagree.
func (s *Sale) TotalMatchesItems() bool {
	return s.Total.Equal(s.ItemsTotal())
}

// QtyByProduct sums item quantities per product
func (s *Sale) QtyByProduct() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(s.Items))
	for _, item := range s.Items {
		out[item.ProductID] += item.Qty
	}
	return out
}

// ChangePaymentMethod corrects the payment method of a recorded sale
func (s *Sale) ChangePaymentMethod(m PaymentMethod) error {
	if !m.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(m))
	}
	s.PaymentMethod = m
	s.Touch()
	return nil
}
