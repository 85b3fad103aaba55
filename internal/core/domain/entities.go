package domain

import (
	"sort"
	"strings"
	"time"
)

// Spot is a tourist spot as stored by the catalogue.
type Spot struct {
	ID        string   `json:"spot_id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Category  string   `json:"category,omitempty"`
	Location  GeoPoint `json:"location"`
	AvgRating float64  `json:"avg_rating"`
}

// SourceKind identifies which evidence source produced a record.
type SourceKind string

const (
	SourceCrawled SourceKind = "crawled"
	SourceUser    SourceKind = "user"
)

// Polarity is the precomputed sentiment of a review.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// SentimentRecord is one piece of evidence about a spot.
// Crawled records carry a sentiment strength in [0,1] as Magnitude,
// user records carry their 1-5 star rating.
type SentimentRecord struct {
	SpotID      string     `json:"spot_id"`
	Source      SourceKind `json:"source"`
	Polarity    Polarity   `json:"polarity"`
	Magnitude   float64    `json:"magnitude"`
	MatchedText string     `json:"matched_text,omitempty"`
}

// PopularSpot is a row of the popularity fallback ranking.
type PopularSpot struct {
	SpotID       string  `json:"spot_id"`
	ReviewCount  int     `json:"review_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// RankedCandidate is a spot with its aggregated evidence score.
type RankedCandidate struct {
	SpotID   string  `json:"spot_id"`
	RawScore float64 `json:"raw_score"`
}

// RecommendedSpot is a single stop of a Course.
type RecommendedSpot struct {
	SpotID     string   `json:"spotId"`
	SpotName   string   `json:"spotName"`
	Address    string   `json:"address"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	MatchScore float64  `json:"matchScore"`
	Features   []string `json:"features"`
}

// Course is the ordered itinerary returned to the caller.
type Course struct {
	Spots    []RecommendedSpot `json:"course"`
	MapLink  string            `json:"mapLink,omitempty"`
	Message  string            `json:"-"`
	Fallback bool              `json:"-"`
}

// RecommendMode distinguishes a fresh recommendation from a retry.
type RecommendMode string

const (
	ModeFresh RecommendMode = "fresh"
	ModeRetry RecommendMode = "retry"
)

// RecommendationRequest is the input of both recommendation operations.
// Tags, when empty, are resolved from the user's stored preferences.
type RecommendationRequest struct {
	UserID   string
	Region   string
	Tags     []string
	Location *GeoPoint
	Exclude  ExcludeSet
}

// CourseEvent is published every time a course is served.
type CourseEvent struct {
	Mode      RecommendMode `json:"mode"`
	UserID    string        `json:"user_id,omitempty"`
	Region    string        `json:"region"`
	SpotIDs   []string      `json:"spot_ids"`
	Fallback  bool          `json:"fallback"`
	ServedAt  time.Time     `json:"served_at"`
	RequestID string        `json:"request_id,omitempty"`
}

// ExcludeSet is a set of spot IDs that must not be recommended.
type ExcludeSet map[string]struct{}

// NewExcludeSet builds a set from ids, ignoring blanks.
func NewExcludeSet(ids ...string) ExcludeSet {
	s := make(ExcludeSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is excluded. A nil set excludes nothing.
func (s ExcludeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in sorted order.
func (s ExcludeSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParsePolarity maps the labels used by the review stores ("Positive",
// "P", "negative", ...) to a Polarity. Unknown labels are neutral.
func ParsePolarity(label string) Polarity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "p", "pos":
		return PolarityPositive
	case "negative", "n", "neg":
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}
