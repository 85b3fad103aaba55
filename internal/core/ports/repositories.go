package ports

import (
	"context"

	"github.com/samirrijal/coursemate/internal/core/domain"
)

// DataSource hands out request-scoped sessions over the backing store.
// Every acquired session must be released, including on error paths.
type DataSource interface {
	Acquire(ctx context.Context) (DataSession, error)
}

// DataSession groups the read capabilities the recommender needs.
type DataSession interface {
	PreferenceRepository
	EvidenceRepository
	SpotRepository
	Release()
}

// PreferenceRepository reads a user's taste tags.
type PreferenceRepository interface {
	TagsForUser(ctx context.Context, userID string) ([]string, error)
}

// EvidenceRepository answers the two ranking queries. Implementations own
// query construction; callers never pass query text.
type EvidenceRepository interface {
	// QueryByTagsAndRegion returns sentiment records of spots in region whose
	// matched text contains at least one tag, skipping excluded spots.
	QueryByTagsAndRegion(ctx context.Context, tags []string, region string, excludeIDs []string) ([]domain.SentimentRecord, error)
	// PopularInRegion ranks spots in region by crawled review volume, then
	// average crawled sentiment.
	PopularInRegion(ctx context.Context, region string, excludeIDs []string, limit int) ([]domain.PopularSpot, error)
}

// SpotRepository reads spot details.
type SpotRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Spot, error)
	// GetByIDs returns the found spots in arbitrary order; unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Spot, error)
}
