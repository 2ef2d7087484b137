package scheduler

import (
	"context"
	"time"

	appinv "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/inventory"
	"go.uber.org/zap"
)

// ExpirySweepJobName is the name the expiry sweep is registered under
const ExpirySweepJobName = "lot_expiry_sweep"

// LotExpirer marks lots past their expiration date as vencido
type LotExpirer interface {
	ExpireDueLots(ctx context.Context) (*appinv.SweepResult, error)
}

// NewExpirySweepJob builds the periodic job that moves expired vigente lots
// to vencido. It runs once at start so lots that expired while the server
// was down are caught up immediately.
func NewExpirySweepJob(expirer LotExpirer, interval time.Duration, logger *zap.Logger) Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Job{
		Name:       ExpirySweepJobName,
		Interval:   interval,
		Timeout:    time.Minute,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			result, err := expirer.ExpireDueLots(ctx)
			if err != nil {
				return err
			}
			if len(result.Expired) > 0 {
				logger.Info("Expired lots swept",
					zap.Int("count", len(result.Expired)),
					zap.Time("ran_at", result.RanAt),
				)
			}
			return nil
		},
	}
}
