package pricing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// ScopeKind names the level a margin rule applies to
type ScopeKind string

const (
	ScopeKindGlobal   ScopeKind = "global"
	ScopeKindCategory ScopeKind = "category"
	ScopeKindProduct  ScopeKind = "product"
)

// MarginScope is a closed set of rule targets: GlobalScope, CategoryScope or
// ProductScope. Use a type switch to match on it.
type MarginScope interface {
	Kind() ScopeKind
	// Ref is the persisted reference: "" for global, the category name, or the product id
	Ref() string
	String() string
	isMarginScope()
}

// GlobalScope applies to every product
type GlobalScope struct{}

func (GlobalScope) Kind() ScopeKind {
	return ScopeKindGlobal
}

func (GlobalScope) Ref() string {
	return ""
}

func (GlobalScope) String() string {
	return "global"
}

func (GlobalScope) isMarginScope() {}

// CategoryScope applies to every product of a category
type CategoryScope struct {
	Name string
}

func (s CategoryScope) Kind() ScopeKind {
	return ScopeKindCategory
}

func (s CategoryScope) Ref() string {
	return s.Name
}

func (s CategoryScope) String() string {
	return "category:" + s.Name
}

func (CategoryScope) isMarginScope() {}

// ProductScope applies to a single product
type ProductScope struct {
	ProductID uuid.UUID
}

func (s ProductScope) Kind() ScopeKind {
	return ScopeKindProduct
}

func (s ProductScope) Ref() string {
	return s.ProductID.String()
}

func (s ProductScope) String() string {
	return "product:" + s.ProductID.String()
}

func (ProductScope) isMarginScope() {}

// ParseScope rebuilds a scope from its persisted kind and reference
func ParseScope(kind, ref string) (MarginScope, error) {
	switch ScopeKind(strings.ToLower(strings.TrimSpace(kind))) {
	case ScopeKindGlobal:
		return GlobalScope{}, nil
	case ScopeKindCategory:
		if strings.TrimSpace(ref) == "" {
			return nil, shared.NewDomainError("INVALID_SCOPE", "Category scope requires a category name")
		}
		return CategoryScope{Name: strings.TrimSpace(ref)}, nil
	case ScopeKindProduct:
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_SCOPE", fmt.Sprintf("Product scope requires a product id, got %q", ref))
		}
		return ProductScope{ProductID: id}, nil
	default:
		return nil, shared.NewDomainError("INVALID_SCOPE", fmt.Sprintf("Unknown margin scope %q", kind))
	}
}
