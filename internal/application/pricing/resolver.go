package pricing

import (
	"context"

	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"go.uber.org/zap"
)

// LoggingResolver wraps a resolver and logs every tier that had to be skipped
// because its lookup failed or held a malformed value.
type LoggingResolver struct {
	next   pricing.MinMarginResolver
	logger *zap.Logger
}

// NewLoggingResolver creates a LoggingResolver
func NewLoggingResolver(next pricing.MinMarginResolver, logger *zap.Logger) *LoggingResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve implements pricing.MinMarginResolver
func (r *LoggingResolver) Resolve(ctx context.Context, product *catalog.Product) pricing.Resolution {
	res := r.next.Resolve(ctx, product)
	for _, skipped := range res.Skipped {
		r.logger.Warn("Margin tier skipped",
			zap.String("product_id", product.ID.String()),
			zap.String("tier", string(skipped.Source)),
			zap.String("resolved_from", string(res.Source)),
			zap.Error(skipped.Err),
		)
	}
	return res
}
