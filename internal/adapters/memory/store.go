// Package memory is an in-process implementation of the data-source ports,
// used for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/core/scoring"
)

// CrawledReview is a third-party review with precomputed sentiment.
type CrawledReview struct {
	SpotID    string  `json:"spot_id"`
	Content   string  `json:"content"`
	Keywords  string  `json:"keywords"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"sentiment_score"`
}

// UserReview is an in-app review with a 1-5 star rating.
type UserReview struct {
	SpotID    string  `json:"spot_id"`
	Content   string  `json:"content"`
	Rating    float64 `json:"rating"`
	Sentiment string  `json:"sentiment"`
}

// Seed is the JSON layout accepted by LoadFile.
type Seed struct {
	Spots          []domain.Spot       `json:"spots"`
	CrawledReviews []CrawledReview     `json:"crawled_reviews"`
	UserReviews    []UserReview        `json:"user_reviews"`
	Preferences    map[string][]string `json:"preferences"`
}

// Store holds spots, reviews and preferences in memory. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	spots   map[string]domain.Spot
	order   []string
	crawled []CrawledReview
	reviews []UserReview
	prefs   map[string][]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		spots: make(map[string]domain.Spot),
		prefs: make(map[string][]string),
	}
}

// LoadFile reads a JSON seed file into a new Store.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	s := New()
	for _, sp := range seed.Spots {
		s.AddSpot(sp)
	}
	for _, c := range seed.CrawledReviews {
		s.AddCrawledReview(c)
	}
	for _, r := range seed.UserReviews {
		s.AddUserReview(r)
	}
	for user, tags := range seed.Preferences {
		s.SetPreferences(user, tags...)
	}
	return s, nil
}

// AddSpot inserts or replaces a spot.
func (s *Store) AddSpot(sp domain.Spot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.spots[sp.ID]; !exists {
		s.order = append(s.order, sp.ID)
	}
	s.spots[sp.ID] = sp
}

// AddCrawledReview appends a crawled review. Scores given as percentages
// (e.g. 97.07) are scaled into [0,1].
func (s *Store) AddCrawledReview(c CrawledReview) {
	c.Score = scoring.CrawledStrength(c.Score)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crawled = append(s.crawled, c)
}

// AddUserReview appends an in-app review.
func (s *Store) AddUserReview(r UserReview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, r)
}

// SetPreferences replaces the taste tags of a user.
func (s *Store) SetPreferences(userID string, tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = append([]string(nil), tags...)
}

// Acquire implements ports.DataSource. Sessions hold no resources.
func (s *Store) Acquire(ctx context.Context) (ports.DataSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return session{s}, nil
}

type session struct{ *Store }

func (session) Release() {}

// TagsForUser returns the stored tags of a user, or none.
func (s *Store) TagsForUser(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.prefs[userID]...), nil
}

// QueryByTagsAndRegion matches crawled keywords and user review content
// against tags by case-insensitive substring.
func (s *Store) QueryByTagsAndRegion(ctx context.Context, tags []string, region string, excludeIDs []string) ([]domain.SentimentRecord, error) {
	norm := scoring.NormalizeTags(tags)
	if len(norm) == 0 {
		return nil, nil
	}
	exclude := domain.NewExcludeSet(excludeIDs...)

	s.mu.RLock()
	defer s.mu.RUnlock()

	eligible := func(spotID string) bool {
		sp, ok := s.spots[spotID]
		return ok && !exclude.Has(spotID) && scoring.ContainsFold(sp.Address, region)
	}

	var out []domain.SentimentRecord
	for _, c := range s.crawled {
		if eligible(c.SpotID) && scoring.ContainsAny(c.Keywords, norm) {
			out = append(out, domain.SentimentRecord{
				SpotID:      c.SpotID,
				Source:      domain.SourceCrawled,
				Polarity:    domain.ParsePolarity(c.Sentiment),
				Magnitude:   c.Score,
				MatchedText: c.Keywords,
			})
		}
	}
	for _, r := range s.reviews {
		if eligible(r.SpotID) && scoring.ContainsAny(r.Content, norm) {
			out = append(out, domain.SentimentRecord{
				SpotID:      r.SpotID,
				Source:      domain.SourceUser,
				Polarity:    domain.ParsePolarity(r.Sentiment),
				Magnitude:   r.Rating,
				MatchedText: r.Content,
			})
		}
	}
	return out, nil
}

// PopularInRegion counts crawled reviews per spot in region, spots without
// reviews included.
func (s *Store) PopularInRegion(ctx context.Context, region string, excludeIDs []string, limit int) ([]domain.PopularSpot, error) {
	exclude := domain.NewExcludeSet(excludeIDs...)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		count int
		sum   float64
	}
	stats := make(map[string]*agg)
	for _, id := range s.order {
		sp := s.spots[id]
		if !exclude.Has(id) && scoring.ContainsFold(sp.Address, region) {
			stats[id] = &agg{}
		}
	}
	for _, c := range s.crawled {
		if a, ok := stats[c.SpotID]; ok {
			a.count++
			a.sum += c.Score
		}
	}

	out := make([]domain.PopularSpot, 0, len(stats))
	for id, a := range stats {
		p := domain.PopularSpot{SpotID: id, ReviewCount: a.count}
		if a.count > 0 {
			p.AvgSentiment = a.sum / float64(a.count)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReviewCount != out[j].ReviewCount {
			return out[i].ReviewCount > out[j].ReviewCount
		}
		if out[i].AvgSentiment != out[j].AvgSentiment {
			return out[i].AvgSentiment > out[j].AvgSentiment
		}
		return out[i].SpotID < out[j].SpotID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetByID returns a spot or domain.ErrSpotNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spots[id]
	if !ok {
		return nil, domain.ErrSpotNotFound
	}
	return &sp, nil
}

// GetByIDs returns the known spots among ids.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]domain.Spot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Spot
	for _, id := range ids {
		if sp, ok := s.spots[id]; ok {
			out = append(out, sp)
		}
	}
	return out, nil
}
