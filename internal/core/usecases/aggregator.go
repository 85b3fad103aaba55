package usecases

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/core/scoring"
	"github.com/samirrijal/coursemate/internal/pkg/logging"
	"github.com/samirrijal/coursemate/internal/pkg/telemetry"
)

// AggregatorConfig tunes the EvidenceAggregator.
type AggregatorConfig struct {
	MaxSpots         int
	FallbackBaseline float64
	DefaultTags      []string
}

// EvidenceAggregator ranks spots of a region from tag-matched review
// evidence, falling back to regional popularity when nothing matches.
type EvidenceAggregator struct {
	maxSpots    int
	baseline    float64
	defaultTags []string
}

// NewEvidenceAggregator applies defaults for zero config values.
func NewEvidenceAggregator(cfg AggregatorConfig) *EvidenceAggregator {
	if cfg.MaxSpots <= 0 {
		cfg.MaxSpots = 3
	}
	if cfg.FallbackBaseline <= 0 {
		cfg.FallbackBaseline = 1.0
	}
	tags := scoring.NormalizeTags(cfg.DefaultTags)
	if len(tags) == 0 {
		tags = scoring.NormalizeTags(scoring.DefaultTags)
	}
	return &EvidenceAggregator{
		maxSpots:    cfg.MaxSpots,
		baseline:    cfg.FallbackBaseline,
		defaultTags: tags,
	}
}

// MaxSpots is the candidate cap.
func (a *EvidenceAggregator) MaxSpots() int { return a.maxSpots }

// Rank returns at most MaxSpots candidates, best first. fallback reports
// whether the popularity ranking was used.
func (a *EvidenceAggregator) Rank(ctx context.Context, repo ports.EvidenceRepository, tags []string, region string, exclude domain.ExcludeSet) (candidates []domain.RankedCandidate, fallback bool, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRank)
	defer span.End()

	log := logging.FromContext(ctx)

	matchTags := scoring.NormalizeTags(tags)
	if len(matchTags) == 0 {
		matchTags = a.defaultTags
	}
	excludeIDs := exclude.IDs()

	records, err := repo.QueryByTagsAndRegion(ctx, matchTags, region, excludeIDs)
	if err != nil {
		return nil, false, dataErr("query_evidence", err)
	}

	candidates = scoring.Aggregate(records, exclude, a.maxSpots)
	span.SetAttributes(
		attribute.Int("evidence.records", len(records)),
		attribute.Int("evidence.candidates", len(candidates)),
	)
	if len(candidates) > 0 {
		return candidates, false, nil
	}

	log.Info("no tag-matched evidence, using regional popularity",
		"region", region, "tags", len(matchTags))

	ctx, fbSpan := telemetry.Tracer().Start(ctx, telemetry.SpanFallback)
	defer fbSpan.End()

	// Over-fetch by the exclude count so filtering here cannot starve the result.
	rows, err := repo.PopularInRegion(ctx, region, excludeIDs, a.maxSpots+len(exclude))
	if err != nil {
		return nil, true, dataErr("popular_in_region", err)
	}
	return scoring.RankPopular(rows, exclude, a.maxSpots, a.baseline), true, nil
}
