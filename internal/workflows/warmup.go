package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// CacheWarmupInput is the input for the cache warmup workflow.
type CacheWarmupInput struct {
	Regions []string
	// SpotIDs are warmed in addition to the regions, e.g. the spots of
	// recently served courses.
	SpotIDs []string
}

// CacheWarmupResult summarises one warmup run.
type CacheWarmupResult struct {
	Warmed        int
	FailedRegions []string
}

// CacheWarmupWorkflow preloads spot details for each region in turn. A failing
// region does not stop the others; it is reported in the result.
func CacheWarmupWorkflow(ctx workflow.Context, input CacheWarmupInput) (CacheWarmupResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting cache warmup workflow", "regions", len(input.Regions))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 2 * time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result CacheWarmupResult
	for _, region := range input.Regions {
		var n int
		if err := workflow.ExecuteActivity(ctx, "WarmRegion", region).Get(ctx, &n); err != nil {
			logger.Warn("region warmup failed", "region", region, "error", err)
			result.FailedRegions = append(result.FailedRegions, region)
			continue
		}
		result.Warmed += n
	}

	if len(input.SpotIDs) > 0 {
		var n int
		if err := workflow.ExecuteActivity(ctx, "WarmSpots", input.SpotIDs).Get(ctx, &n); err != nil {
			return result, err
		}
		result.Warmed += n
	}

	logger.Info("Cache warmup finished", "warmed", result.Warmed, "failed", len(result.FailedRegions))
	return result, nil
}
