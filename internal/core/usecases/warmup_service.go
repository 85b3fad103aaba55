package usecases

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/pkg/logging"
	"github.com/samirrijal/coursemate/internal/pkg/telemetry"
)

// WarmupService preloads the details of popular spots into the cache so the
// first recommendations after a deploy or cache flush are served warm.
type WarmupService struct {
	source  ports.DataSource
	catalog *SpotCatalog
	depth   int
}

// NewWarmupService creates a WarmupService that warms the top depth spots
// per region.
func NewWarmupService(source ports.DataSource, catalog *SpotCatalog, depth int) *WarmupService {
	if depth <= 0 {
		depth = 20
	}
	return &WarmupService{source: source, catalog: catalog, depth: depth}
}

// WarmRegion caches the details of the most popular spots of region and
// returns how many were cached.
func (w *WarmupService) WarmRegion(ctx context.Context, region string) (int, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return 0, domain.ErrRegionRequired
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanWarmRegion)
	defer span.End()
	span.SetAttributes(attribute.String("region", region))

	sess, err := w.source.Acquire(ctx)
	if err != nil {
		return 0, dataErr("acquire", err)
	}
	defer sess.Release()

	rows, err := sess.PopularInRegion(ctx, region, nil, w.depth)
	if err != nil {
		return 0, dataErr("popular_in_region", err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.SpotID
	}

	spots, err := w.catalog.Details(ctx, sess, ids)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("region warmed", "region", region, "spots", len(spots))
	return len(spots), nil
}

// WarmSpots caches the details of the given spots, e.g. those of a course
// that was just served.
func (w *WarmupService) WarmSpots(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sess, err := w.source.Acquire(ctx)
	if err != nil {
		return 0, dataErr("acquire", err)
	}
	defer sess.Release()

	spots, err := w.catalog.Details(ctx, sess, ids)
	if err != nil {
		return 0, err
	}
	return len(spots), nil
}

// WarmRegions warms every region concurrently, each on its own session.
// It returns the total number of cached spots and the first error.
func (w *WarmupService) WarmRegions(ctx context.Context, regions []string) (int, error) {
	counts := make([]int, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			n, err := w.WarmRegion(gctx, region)
			counts[i] = n
			return err
		})
	}
	err := g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, err
}
