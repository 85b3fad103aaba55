package scoring

import "github.com/samirrijal/coursemate/internal/core/domain"

const (
	crawledPositiveWeight = 0.9
	crawledNegativeWeight = -0.7
	userWeight            = 1.3
	maxRating             = 5.0
)

// CrawledStrength scales a crawled sentiment score into [0,1]. Older crawls
// stored percentages (97.07 for 0.9707).
func CrawledStrength(score float64) float64 {
	if score > 1 {
		return score / 100
	}
	return score
}

// Contribution returns the signed score a single record adds to its spot.
func Contribution(r domain.SentimentRecord) float64 {
	switch r.Source {
	case domain.SourceCrawled:
		switch r.Polarity {
		case domain.PolarityPositive:
			return r.Magnitude * crawledPositiveWeight
		case domain.PolarityNegative:
			return r.Magnitude * crawledNegativeWeight
		}
	case domain.SourceUser:
		switch r.Polarity {
		case domain.PolarityPositive:
			return (r.Magnitude / maxRating) * userWeight
		case domain.PolarityNegative:
			return (r.Magnitude / maxRating) * -userWeight
		}
	}
	return 0
}
