package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/coursemate/internal/adapters/memory"
	"github.com/samirrijal/coursemate/internal/core/scoring"
	"github.com/samirrijal/coursemate/internal/pkg/config"
)

// seedUser owns imported in-app reviews, which carry no author.
const seedUser = "seed"

const batchSize = 500

func main() {
	cfg, err := config.Load("coursemate-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	seedPath := "configs/seed.json"
	if len(os.Args) > 1 {
		seedPath = os.Args[1]
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		log.Fatalf("read seed: %v", err)
	}

	var seed memory.Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatalf("parse seed: %v", err)
	}

	log.Printf("CourseMate ingestor: %d spots, %d crawled reviews, %d user reviews from %s",
		len(seed.Spots), len(seed.CrawledReviews), len(seed.UserReviews), seedPath)

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	steps := []struct {
		name string
		fn   func(context.Context, pgx.Tx, *memory.Seed) (int, error)
	}{
		{"spots", importSpots},
		{"crawled_reviews", importCrawled},
		{"reviews", importReviews},
		{"preferences", importPreferences},
	}
	for _, s := range steps {
		n, err := s.fn(ctx, tx, &seed)
		if err != nil {
			log.Fatalf("%s: %v", s.name, err)
		}
		log.Printf("  %s: %d", s.name, n)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}
	log.Println("ingestion complete")
}

func importSpots(ctx context.Context, tx pgx.Tx, seed *memory.Seed) (int, error) {
	w := newBatchWriter(tx)
	for _, sp := range seed.Spots {
		if strings.TrimSpace(sp.ID) == "" {
			continue
		}
		err := w.queue(ctx, `
			INSERT INTO tour_spots (spot_id, name, address, category, latitude, longitude, avg_rating)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (spot_id) DO UPDATE
			SET name = EXCLUDED.name, address = EXCLUDED.address, category = EXCLUDED.category,
			    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			    avg_rating = EXCLUDED.avg_rating
		`, sp.ID, sp.Name, sp.Address, nilEmpty(sp.Category), sp.Location.Lat, sp.Location.Lng, sp.AvgRating)
		if err != nil {
			return w.total, err
		}
	}
	return w.total, w.flush(ctx)
}

// importCrawled replaces the crawled reviews of every spot present in the seed.
func importCrawled(ctx context.Context, tx pgx.Tx, seed *memory.Seed) (int, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM crawled_reviews WHERE spot_id = ANY($1)`, spotIDs(seed)); err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	w := newBatchWriter(tx)
	for _, c := range seed.CrawledReviews {
		err := w.queue(ctx, `
			INSERT INTO crawled_reviews (spot_id, content, keywords, sentiment, sentiment_score)
			VALUES ($1, $2, $3, $4, $5)
		`, c.SpotID, nilEmpty(c.Content), c.Keywords, c.Sentiment, scoring.CrawledStrength(c.Score))
		if err != nil {
			return w.total, err
		}
	}
	return w.total, w.flush(ctx)
}

// importReviews replaces the seed user's reviews of every spot present in the seed.
func importReviews(ctx context.Context, tx pgx.Tx, seed *memory.Seed) (int, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1 AND spot_id = ANY($2)`, seedUser, spotIDs(seed)); err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	w := newBatchWriter(tx)
	for _, r := range seed.UserReviews {
		rating := int16(math.Round(r.Rating))
		if rating < 1 || rating > 5 {
			log.Printf("  skipping review of %s: rating %.1f out of range", r.SpotID, r.Rating)
			continue
		}
		err := w.queue(ctx, `
			INSERT INTO reviews (spot_id, user_id, rating, content, sentiment)
			VALUES ($1, $2, $3, $4, $5)
		`, r.SpotID, seedUser, rating, r.Content, r.Sentiment)
		if err != nil {
			return w.total, err
		}
	}
	return w.total, w.flush(ctx)
}

func importPreferences(ctx context.Context, tx pgx.Tx, seed *memory.Seed) (int, error) {
	w := newBatchWriter(tx)
	for user, tags := range seed.Preferences {
		if _, err := tx.Exec(ctx, `DELETE FROM user_preferences WHERE user_id = $1`, user); err != nil {
			return w.total, fmt.Errorf("clear %s: %w", user, err)
		}
		for _, tag := range tags {
			if tag = strings.TrimSpace(tag); tag == "" {
				continue
			}
			err := w.queue(ctx, `
				WITH t AS (
					INSERT INTO tags (tag_name) VALUES ($2)
					ON CONFLICT (tag_name) DO UPDATE SET tag_name = EXCLUDED.tag_name
					RETURNING tag_id
				)
				INSERT INTO user_preferences (user_id, tag_id)
				SELECT $1, tag_id FROM t
				ON CONFLICT DO NOTHING
			`, user, tag)
			if err != nil {
				return w.total, err
			}
		}
	}
	return w.total, w.flush(ctx)
}

func spotIDs(seed *memory.Seed) []string {
	ids := make([]string, 0, len(seed.Spots))
	for _, sp := range seed.Spots {
		ids = append(ids, sp.ID)
	}
	return ids
}

// ---------------------------------------------------------------------------
// Batching
// ---------------------------------------------------------------------------

type batchWriter struct {
	tx    pgx.Tx
	batch *pgx.Batch
	count int
	total int
}

func newBatchWriter(tx pgx.Tx) *batchWriter {
	return &batchWriter{tx: tx, batch: &pgx.Batch{}}
}

func (w *batchWriter) queue(ctx context.Context, sql string, args ...any) error {
	w.batch.Queue(sql, args...)
	w.count++
	w.total++
	if w.count >= batchSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *batchWriter) flush(ctx context.Context) error {
	if w.count == 0 {
		return nil
	}
	br := w.tx.SendBatch(ctx, w.batch)
	defer br.Close()
	for i := 0; i < w.count; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	w.batch = &pgx.Batch{}
	w.count = 0
	return nil
}

func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
