// Package setting holds the key/value store settings the engine reads.
package setting

import "context"

// Known setting keys
const (
	KeyCurrency         = "currency"
	KeyAlertDaysExpiry  = "alert_days_expiry"
	KeyMarginMinPercent = "margin_min_percent"
)

// Defaults seeded on first migration
var Defaults = map[string]string{
	KeyCurrency:         "CLP",
	KeyAlertDaysExpiry:  "7",
	KeyMarginMinPercent: "0.22",
}

// Setting is a single key/value pair
type Setting struct {
	Key   string
	Value string
}

// Repository reads and writes settings.
// Get returns found=false when the key is absent; err is reserved for lookup failures.
type Repository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) ([]Setting, error)
}
