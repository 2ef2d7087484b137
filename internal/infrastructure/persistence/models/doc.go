// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns. Each model has a ToDomain method and a FromDomain constructor.
//
// Structure:
//   - base.go: BaseModel and the model list used by tests
//   - catalog.go: products and suppliers
//   - inventory.go: lots, purchases and waste
//   - trade.go: sales and sale items
//   - pricing.go: margin rules and promotions
//   - setting.go: key/value settings and the audit log
package models
