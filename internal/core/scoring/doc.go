// Package scoring turns sentiment evidence into ranked recommendation
// candidates.
//
// Two evidence sources feed the ranking. Crawled third-party reviews
// contribute their sentiment strength (0.9x when positive, -0.7x when
// negative); first-party user reviews contribute rating/5 scaled by 1.3 in
// the direction of their polarity. Contributions are summed per spot, spots
// with a non-positive total are dropped and the rest are ordered by total.
//
// When no evidence matches, RankPopular orders a region's spots by crawled
// review volume and gives every pick the same baseline score.
//
// Normalize compresses a raw score into the displayed match score:
//
//	min(0.5 + 0.1*ln(max(raw, 0) + 1), 0.99), rounded to two decimals
package scoring
