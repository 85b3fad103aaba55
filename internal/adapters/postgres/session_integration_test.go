//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/coursemate/internal/adapters/postgres"
	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/pkg/config"
)

// setupTestDB connects to the test database, applies the schema and seeds a
// small fixture under the "it-" ID prefix.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("coursemate-test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../../migrations/001_core_tables.sql")
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `DELETE FROM tour_spots WHERE spot_id LIKE 'it-%'`)
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO tour_spots (spot_id, name, address, latitude, longitude) VALUES
		('it-1', 'Palace', 'Seoul Jongno-gu', 37.579, 126.977),
		('it-2', 'Forest', 'Seoul Seongdong-gu', 37.544, 127.037),
		('it-3', 'Beach', 'Busan Haeundae-gu', 35.158, 129.160),
		('it-5', 'Museum', 'Daegu Jung-gu', 35.869, 128.593),
		('it-6', 'Gallery', 'Daegu Jung-gu', 35.871, 128.601)
	`)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO crawled_reviews (spot_id, keywords, sentiment, sentiment_score) VALUES
		('it-1', 'walk,history', 'Positive', 97.0),
		('it-1', 'crowded', 'Negative', 0.5),
		('it-2', 'Walk,kids', 'Positive', 0.9),
		('it-3', 'walk,sea', 'Positive', 0.9),
		('it-5', 'museum', 'Positive', 90.0),
		('it-5', 'museum', 'Positive', 10.0),
		('it-6', 'gallery', 'Positive', 0.8),
		('it-6', 'gallery', 'Positive', 0.8)
	`)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO reviews (spot_id, user_id, rating, content, sentiment) VALUES
		('it-2', 'u', 5, 'a 100% great walk', 'P')
	`)
	require.NoError(t, err)

	return db
}

func TestSession_QueryByTagsAndRegion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sess, err := db.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	recs, err := sess.QueryByTagsAndRegion(ctx, []string{"#walk"}, "Seoul", []string{"it-1"})
	require.NoError(t, err)

	var crawled, user int
	for _, r := range recs {
		if r.SpotID == "it-1" || r.SpotID == "it-3" {
			t.Fatalf("unexpected spot %s", r.SpotID)
		}
		if r.SpotID != "it-2" {
			continue
		}
		switch r.Source {
		case domain.SourceCrawled:
			crawled++
		case domain.SourceUser:
			user++
		}
	}
	assert.Equal(t, 1, crawled)
	assert.Equal(t, 1, user)

	// A literal percent sign must not act as a wildcard.
	recs, err = sess.QueryByTagsAndRegion(ctx, []string{"0%g"}, "Seoul", nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSession_PercentStrengthScaled(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sess, err := db.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	recs, err := sess.QueryByTagsAndRegion(ctx, []string{"history"}, "Jongno", nil)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	for _, r := range recs {
		assert.LessOrEqual(t, r.Magnitude, 1.0)
	}
}

// it-5 averages 50.0 unscaled but 0.5 scaled, so it must rank below it-6 (0.8).
func TestSession_PopularScalesPercentScores(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sess, err := db.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	rows, err := sess.PopularInRegion(ctx, "Daegu", nil, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "it-6", rows[0].SpotID)
	assert.Equal(t, "it-5", rows[1].SpotID)
	assert.InDelta(t, 0.5, rows[1].AvgSentiment, 1e-9)
}

func TestSession_PopularAndSpots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sess, err := db.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	rows, err := sess.PopularInRegion(ctx, "Seoul Jongno", nil, 3)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "it-1", rows[0].SpotID)
	assert.Equal(t, 2, rows[0].ReviewCount)

	sp, err := sess.GetByID(ctx, "it-2")
	require.NoError(t, err)
	assert.Equal(t, "Forest", sp.Name)

	_, err = sess.GetByID(ctx, "it-missing")
	assert.ErrorIs(t, err, domain.ErrSpotNotFound)

	spots, err := sess.GetByIDs(ctx, []string{"it-1", "it-3", "it-missing"})
	require.NoError(t, err)
	assert.Len(t, spots, 2)
}
