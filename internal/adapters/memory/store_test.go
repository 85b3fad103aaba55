package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/coursemate/internal/adapters/memory"
	"github.com/samirrijal/coursemate/internal/core/domain"
)

func fixture() *memory.Store {
	s := memory.New()
	s.AddSpot(domain.Spot{ID: "A", Name: "Palace", Address: "Seoul Jongno-gu", Location: domain.GeoPoint{Lat: 37.57, Lng: 126.97}})
	s.AddSpot(domain.Spot{ID: "B", Name: "Forest", Address: "Seoul Seongdong-gu", Location: domain.GeoPoint{Lat: 37.54, Lng: 127.03}})
	s.AddSpot(domain.Spot{ID: "C", Name: "Beach", Address: "Busan Haeundae-gu", Location: domain.GeoPoint{Lat: 35.15, Lng: 129.16}})
	s.AddSpot(domain.Spot{ID: "D", Name: "Museum", Address: "Seoul Yongsan-gu", Location: domain.GeoPoint{Lat: 37.52, Lng: 126.98}})

	s.AddCrawledReview(memory.CrawledReview{SpotID: "A", Keywords: "walk,history", Sentiment: "Positive", Score: 0.8})
	s.AddCrawledReview(memory.CrawledReview{SpotID: "A", Keywords: "crowded", Sentiment: "Negative", Score: 0.4})
	s.AddCrawledReview(memory.CrawledReview{SpotID: "B", Keywords: "Walk,kids", Sentiment: "positive", Score: 90})
	s.AddCrawledReview(memory.CrawledReview{SpotID: "C", Keywords: "walk,sea", Sentiment: "Positive", Score: 0.9})
	s.AddUserReview(memory.UserReview{SpotID: "B", Content: "great walk with kids", Rating: 5, Sentiment: "P"})
	s.AddUserReview(memory.UserReview{SpotID: "D", Content: "history lesson", Rating: 4, Sentiment: "Positive"})
	s.SetPreferences("u1", "#walk")
	return s
}

func TestStore_QueryByTagsAndRegion(t *testing.T) {
	s := fixture()
	ctx := context.Background()

	recs, err := s.QueryByTagsAndRegion(ctx, []string{"#WALK"}, "Seoul", nil)
	require.NoError(t, err)

	bySpot := map[string][]domain.SentimentRecord{}
	for _, r := range recs {
		bySpot[r.SpotID] = append(bySpot[r.SpotID], r)
	}
	assert.Len(t, bySpot["A"], 1, "only the matching crawled review of A")
	assert.Len(t, bySpot["B"], 2, "crawled keyword and user content both match")
	assert.NotContains(t, bySpot, "C", "Busan is outside the region")
	assert.NotContains(t, bySpot, "D")

	for _, r := range bySpot["B"] {
		if r.Source == domain.SourceCrawled {
			assert.InDelta(t, 0.9, r.Magnitude, 1e-9, "percent strengths are scaled")
		} else {
			assert.Equal(t, 5.0, r.Magnitude)
			assert.Equal(t, domain.PolarityPositive, r.Polarity)
		}
	}
}

func TestStore_QueryByTagsAndRegion_Exclusion(t *testing.T) {
	s := fixture()
	recs, err := s.QueryByTagsAndRegion(context.Background(), []string{"walk"}, "Seoul", []string{"B"})
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotEqual(t, "B", r.SpotID)
	}
}

func TestStore_QueryByTagsAndRegion_NoUsableTags(t *testing.T) {
	recs, err := fixture().QueryByTagsAndRegion(context.Background(), []string{"#", " "}, "Seoul", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_PopularInRegion(t *testing.T) {
	s := fixture()
	rows, err := s.PopularInRegion(context.Background(), "Seoul", nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "A", rows[0].SpotID)
	assert.Equal(t, 2, rows[0].ReviewCount)
	assert.Equal(t, "B", rows[1].SpotID)
	// D has no crawled reviews but is still a candidate.
	assert.Equal(t, "D", rows[2].SpotID)
	assert.Zero(t, rows[2].ReviewCount)
}

func TestStore_PopularInRegion_PercentScoresScaled(t *testing.T) {
	s := memory.New()
	s.AddSpot(domain.Spot{ID: "M", Name: "Museum", Address: "Daegu Jung-gu"})
	s.AddSpot(domain.Spot{ID: "G", Name: "Gallery", Address: "Daegu Jung-gu"})
	s.AddCrawledReview(memory.CrawledReview{SpotID: "M", Keywords: "museum", Sentiment: "Positive", Score: 90})
	s.AddCrawledReview(memory.CrawledReview{SpotID: "M", Keywords: "museum", Sentiment: "Positive", Score: 10})
	s.AddCrawledReview(memory.CrawledReview{SpotID: "G", Keywords: "gallery", Sentiment: "Positive", Score: 0.8})
	s.AddCrawledReview(memory.CrawledReview{SpotID: "G", Keywords: "gallery", Sentiment: "Positive", Score: 0.8})

	rows, err := s.PopularInRegion(context.Background(), "Daegu", nil, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "G", rows[0].SpotID)
	assert.Equal(t, "M", rows[1].SpotID)
	assert.InDelta(t, 0.5, rows[1].AvgSentiment, 1e-9)
}

func TestStore_PopularInRegion_LimitAndExclude(t *testing.T) {
	rows, err := fixture().PopularInRegion(context.Background(), "Seoul", []string{"A"}, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].SpotID)
}

func TestStore_Spots(t *testing.T) {
	s := fixture()
	ctx := context.Background()

	sp, err := s.GetByID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Palace", sp.Name)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSpotNotFound)

	spots, err := s.GetByIDs(ctx, []string{"A", "missing", "C"})
	require.NoError(t, err)
	assert.Len(t, spots, 2)
}

func TestStore_TagsForUser(t *testing.T) {
	s := fixture()
	tags, err := s.TagsForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"#walk"}, tags)

	tags, err = s.TagsForUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestStore_Acquire(t *testing.T) {
	s := fixture()
	sess, err := s.Acquire(context.Background())
	require.NoError(t, err)
	sess.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	seed := `{
		"spots": [{"spot_id": "X", "name": "X", "address": "Seoul", "location": {"lat": 37.5, "lng": 127.0}}],
		"crawled_reviews": [{"spot_id": "X", "keywords": "good", "sentiment": "Positive", "sentiment_score": 50}],
		"preferences": {"u": ["#good"]}
	}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	s, err := memory.LoadFile(path)
	require.NoError(t, err)

	recs, err := s.QueryByTagsAndRegion(context.Background(), []string{"good"}, "seoul", nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 0.5, recs[0].Magnitude, 1e-9)

	_, err = memory.LoadFile(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)
}

func TestLoadFile_ShippedSeed(t *testing.T) {
	s, err := memory.LoadFile("../../../configs/seed.json")
	require.NoError(t, err)
	sp, err := s.GetByID(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "경복궁", sp.Name)
}
