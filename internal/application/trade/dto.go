package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
)

// SaleLineRequest is one product sold
type SaleLineRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Qty       int              `json:"qty" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price" binding:"omitempty,dec_nonneg"`
	PromoID   *uuid.UUID       `json:"promo_id"`
}

// RegisterSaleRequest represents a sale to allocate against the lot ledger
type RegisterSaleRequest struct {
	SoldAt        *time.Time        `json:"sold_at"`
	Channel       string            `json:"channel" binding:"max=30"`
	PaymentMethod string            `json:"payment_method" binding:"required,oneof=efectivo tarjeta mixto"`
	ReceiptNo     string            `json:"receipt_no" binding:"max=50"`
	Lines         []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`

	// RejectOnShortfall overrides the service default. When true, a line that
	// cannot be fully served rolls back the whole sale.
	RejectOnShortfall *bool `json:"reject_on_shortfall"`

	// IdempotencyKey comes from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// SaleItemResponse represents a sale item in API responses
type SaleItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	LotID     *uuid.UUID      `json:"lot_id,omitempty"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	PromoID   *uuid.UUID      `json:"promo_id,omitempty"`
}

// LotTakeResponse is the quantity taken from one lot
type LotTakeResponse struct {
	LotID      uuid.UUID  `json:"lot_id"`
	LotCode    string     `json:"lot_code"`
	Qty        int        `json:"qty"`
	Expiration *time.Time `json:"expiration,omitempty"`
	Remaining  int        `json:"remaining"`
	Exhausted  bool       `json:"exhausted"`
	Pass       string     `json:"pass"`
}

// AllocationResponse reports how one product line was served
type AllocationResponse struct {
	ProductID      uuid.UUID         `json:"product_id"`
	Requested      int               `json:"requested"`
	Allocated      int               `json:"allocated"`
	Shortfall      int               `json:"shortfall"`
	FullySatisfied bool              `json:"fully_satisfied"`
	Takes          []LotTakeResponse `json:"takes"`
}

// ToAllocationResponse converts a domain allocation
func ToAllocationResponse(a *inventory.Allocation) AllocationResponse {
	takes := make([]LotTakeResponse, len(a.Takes))
	for i, t := range a.Takes {
		takes[i] = LotTakeResponse{
			LotID:      t.LotID,
			LotCode:    t.LotCode,
			Qty:        t.Qty,
			Expiration: t.Expiration,
			Remaining:  t.Remaining,
			Exhausted:  t.Exhausted,
			Pass:       string(t.Pass),
		}
	}
	return AllocationResponse{
		ProductID:      a.ProductID,
		Requested:      a.Requested,
		Allocated:      a.Allocated,
		Shortfall:      a.Shortfall(),
		FullySatisfied: a.FullySatisfied,
		Takes:          takes,
	}
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID             uuid.UUID            `json:"id"`
	SoldAt         time.Time            `json:"sold_at"`
	Channel        string               `json:"channel"`
	PaymentMethod  string               `json:"payment_method"`
	ReceiptNo      string               `json:"receipt_no,omitempty"`
	Total          decimal.Decimal      `json:"total"`
	Items          []SaleItemResponse   `json:"items,omitempty"`
	FullySatisfied *bool                `json:"fully_satisfied,omitempty"`
	Allocations    []AllocationResponse `json:"allocations,omitempty"`
}

// ToSaleResponse converts a domain sale
func ToSaleResponse(s *trade.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			LotID:     item.LotID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
			PromoID:   item.PromoID,
		}
	}
	return SaleResponse{
		ID:            s.ID,
		SoldAt:        s.SoldAt,
		Channel:       s.Channel,
		PaymentMethod: string(s.PaymentMethod),
		ReceiptNo:     s.ReceiptNo,
		Total:         s.Total,
		Items:         items,
	}
}

// SaleListFilter represents filter options for sale listings
type SaleListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ChangePaymentMethodRequest corrects the payment method of a sale
type ChangePaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=efectivo tarjeta mixto"`
}
