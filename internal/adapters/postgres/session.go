package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/scoring"
)

// Session implements ports.DataSession on a single pooled connection.
// It is not safe for concurrent use.
type Session struct {
	conn *pgxpool.Conn
}

// Release returns the connection to the pool. Calling it twice is a no-op.
func (s *Session) Release() {
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
}

// TagsForUser returns the tag names a user selected as preferences.
func (s *Session) TagsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT t.tag_name
		FROM user_preferences up
		JOIN tags t ON up.tag_id = t.tag_id
		WHERE up.user_id = $1
		ORDER BY t.tag_id
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// QueryByTagsAndRegion returns one record per matching review. Crawled
// reviews match on their keyword list, user reviews on their text.
func (s *Session) QueryByTagsAndRegion(ctx context.Context, tags []string, region string, excludeIDs []string) ([]domain.SentimentRecord, error) {
	patterns := likePatterns(scoring.NormalizeTags(tags))
	if len(patterns) == 0 {
		return nil, nil
	}
	if excludeIDs == nil {
		excludeIDs = []string{}
	}

	rows, err := s.conn.Query(ctx, `
		SELECT m.spot_id, m.source, m.sentiment, m.magnitude, m.matched
		FROM (
			SELECT c.spot_id, 'crawled' AS source, c.sentiment,
			       c.sentiment_score::float8 AS magnitude, c.keywords AS matched
			FROM crawled_reviews c
			WHERE c.keywords ILIKE ANY($1)
			UNION ALL
			SELECT r.spot_id, 'user' AS source, r.sentiment,
			       r.rating::float8 AS magnitude, r.content AS matched
			FROM reviews r
			WHERE r.content ILIKE ANY($1)
		) m
		JOIN tour_spots t ON t.spot_id = m.spot_id
		WHERE t.address ILIKE $2
		  AND NOT (m.spot_id = ANY($3))
	`, patterns, "%"+escapeLike(region)+"%", excludeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SentimentRecord
	for rows.Next() {
		var (
			rec       domain.SentimentRecord
			source    string
			sentiment string
		)
		if err := rows.Scan(&rec.SpotID, &source, &sentiment, &rec.Magnitude, &rec.MatchedText); err != nil {
			return nil, err
		}
		rec.Source = domain.SourceKind(source)
		rec.Polarity = domain.ParsePolarity(sentiment)
		if rec.Source == domain.SourceCrawled {
			rec.Magnitude = scoring.CrawledStrength(rec.Magnitude)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PopularInRegion ranks spots in region by crawled review volume, then
// average crawled sentiment. Spots without reviews are included. Percentage
// scores are averaged on the same [0,1] scale as CrawledStrength.
func (s *Session) PopularInRegion(ctx context.Context, region string, excludeIDs []string, limit int) ([]domain.PopularSpot, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}

	rows, err := s.conn.Query(ctx, `
		SELECT t.spot_id,
		       COUNT(c.crawl_id) AS review_count,
		       COALESCE(AVG(CASE WHEN c.sentiment_score > 1
		                         THEN c.sentiment_score / 100
		                         ELSE c.sentiment_score END), 0)::float8 AS avg_score
		FROM tour_spots t
		LEFT JOIN crawled_reviews c ON t.spot_id = c.spot_id
		WHERE t.address ILIKE $1
		  AND NOT (t.spot_id = ANY($2))
		GROUP BY t.spot_id
		ORDER BY review_count DESC, avg_score DESC, t.spot_id
		LIMIT $3
	`, "%"+escapeLike(region)+"%", excludeIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PopularSpot
	for rows.Next() {
		var p domain.PopularSpot
		if err := rows.Scan(&p.SpotID, &p.ReviewCount, &p.AvgSentiment); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const spotColumns = `spot_id, name, address, COALESCE(category, ''),
	latitude, longitude, COALESCE(avg_rating, 0)::float8`

func scanSpot(row pgx.Row) (domain.Spot, error) {
	var sp domain.Spot
	err := row.Scan(&sp.ID, &sp.Name, &sp.Address, &sp.Category,
		&sp.Location.Lat, &sp.Location.Lng, &sp.AvgRating)
	return sp, err
}

// GetByID returns a spot or domain.ErrSpotNotFound.
func (s *Session) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	sp, err := scanSpot(s.conn.QueryRow(ctx,
		`SELECT `+spotColumns+` FROM tour_spots WHERE spot_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSpotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get spot %s: %w", id, err)
	}
	return &sp, nil
}

// GetByIDs returns multiple spots in arbitrary order.
func (s *Session) GetByIDs(ctx context.Context, ids []string) ([]domain.Spot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx,
		`SELECT `+spotColumns+` FROM tour_spots WHERE spot_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []domain.Spot
	for rows.Next() {
		sp, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE metacharacters so user input only ever matches
// literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func likePatterns(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, "%"+escapeLike(t)+"%")
	}
	return out
}
