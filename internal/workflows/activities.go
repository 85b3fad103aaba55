package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/usecases"
)

// WarmupActivities holds the activity implementations for the cache warmup workflow.
type WarmupActivities struct {
	Warmup *usecases.WarmupService
}

// WarmRegion caches the popular spots of one region and returns how many were cached.
func (a *WarmupActivities) WarmRegion(ctx context.Context, region string) (int, error) {
	n, err := a.Warmup.WarmRegion(ctx, region)
	if err != nil {
		if domain.IsValidation(err) {
			return 0, temporal.NewNonRetryableApplicationError(err.Error(), "validation", err)
		}
		return 0, fmt.Errorf("warm region %q: %w", region, err)
	}
	return n, nil
}

// WarmSpots caches the details of the given spots.
func (a *WarmupActivities) WarmSpots(ctx context.Context, ids []string) (int, error) {
	n, err := a.Warmup.WarmSpots(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("warm spots: %w", err)
	}
	return n, nil
}
