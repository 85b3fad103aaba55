package scoring

import (
	"sort"

	"github.com/samirrijal/coursemate/internal/core/domain"
)

// Aggregate sums the contributions of records per spot and returns at most
// limit spots with a positive total, highest first. Excluded spots are
// dropped even if the store returned them. Equal totals are ordered by spot
// ID so a ranking is reproducible.
func Aggregate(records []domain.SentimentRecord, exclude domain.ExcludeSet, limit int) []domain.RankedCandidate {
	totals := make(map[string]float64)
	for _, r := range records {
		if r.SpotID == "" || exclude.Has(r.SpotID) {
			continue
		}
		totals[r.SpotID] += Contribution(r)
	}

	ranked := make([]domain.RankedCandidate, 0, len(totals))
	for id, score := range totals {
		if score > 0 {
			ranked = append(ranked, domain.RankedCandidate{SpotID: id, RawScore: score})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RawScore != ranked[j].RawScore {
			return ranked[i].RawScore > ranked[j].RawScore
		}
		return ranked[i].SpotID < ranked[j].SpotID
	})

	return truncate(ranked, limit)
}

// RankPopular orders popularity rows by review count, then average
// sentiment, then spot ID, and assigns each of the first limit rows the same
// baseline raw score.
func RankPopular(rows []domain.PopularSpot, exclude domain.ExcludeSet, limit int, baseline float64) []domain.RankedCandidate {
	eligible := make([]domain.PopularSpot, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.SpotID == "" || exclude.Has(r.SpotID) {
			continue
		}
		if _, dup := seen[r.SpotID]; dup {
			continue
		}
		seen[r.SpotID] = struct{}{}
		eligible = append(eligible, r)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		if a.AvgSentiment != b.AvgSentiment {
			return a.AvgSentiment > b.AvgSentiment
		}
		return a.SpotID < b.SpotID
	})

	ranked := make([]domain.RankedCandidate, 0, len(eligible))
	for _, r := range eligible {
		ranked = append(ranked, domain.RankedCandidate{SpotID: r.SpotID, RawScore: baseline})
	}
	return truncate(ranked, limit)
}

func truncate(c []domain.RankedCandidate, limit int) []domain.RankedCandidate {
	if limit >= 0 && len(c) > limit {
		return c[:limit]
	}
	return c
}
