package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/usecases"
)

func TestEvidenceAggregator_ConfiguredCap(t *testing.T) {
	sess := &mockSession{
		queryFn: func(ctx context.Context, tags []string, region string, excl []string) ([]domain.SentimentRecord, error) {
			return []domain.SentimentRecord{
				crawled("A", domain.PolarityPositive, 1),
				crawled("B", domain.PolarityPositive, 0.9),
				crawled("C", domain.PolarityPositive, 0.8),
				crawled("D", domain.PolarityPositive, 0.7),
				crawled("E", domain.PolarityPositive, 0.6),
			}, nil
		},
	}
	agg := usecases.NewEvidenceAggregator(usecases.AggregatorConfig{MaxSpots: 5})
	got, fallback, err := agg.Rank(context.Background(), sess, []string{"x"}, "서울", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback {
		t.Error("did not expect fallback")
	}
	if len(got) != 5 || got[0].SpotID != "A" || got[4].SpotID != "E" {
		t.Errorf("unexpected ranking %v", got)
	}
}

func TestEvidenceAggregator_NegativeOnlyFallsBack(t *testing.T) {
	sess := &mockSession{
		queryFn: func(ctx context.Context, tags []string, region string, excl []string) ([]domain.SentimentRecord, error) {
			return []domain.SentimentRecord{
				crawled("A", domain.PolarityNegative, 1),
				user("B", domain.PolarityNeutral, 5),
			}, nil
		},
		popularFn: func(ctx context.Context, region string, excl []string, limit int) ([]domain.PopularSpot, error) {
			return []domain.PopularSpot{{SpotID: "B", ReviewCount: 2}}, nil
		},
	}
	agg := usecases.NewEvidenceAggregator(usecases.AggregatorConfig{FallbackBaseline: 2})
	got, fallback, err := agg.Rank(context.Background(), sess, nil, "서울", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fallback {
		t.Error("expected fallback when no spot has a positive total")
	}
	if len(got) != 1 || got[0].RawScore != 2 {
		t.Errorf("expected baseline-scored fallback, got %v", got)
	}
}

func TestEvidenceAggregator_ConfiguredDefaultTags(t *testing.T) {
	var queried []string
	sess := &mockSession{
		queryFn: func(ctx context.Context, tags []string, region string, excl []string) ([]domain.SentimentRecord, error) {
			queried = tags
			return nil, nil
		},
	}
	agg := usecases.NewEvidenceAggregator(usecases.AggregatorConfig{DefaultTags: []string{"#Fun", "fun"}})
	if _, _, err := agg.Rank(context.Background(), sess, []string{"#", ""}, "서울", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queried) != 1 || queried[0] != "fun" {
		t.Errorf("expected folded default tag, got %v", queried)
	}
}
