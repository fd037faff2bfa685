package rating

import "math"

// DefaultKFactor is the K used for all ranked matches unless a caller
// supplies its own via ComputeRatingsK.
const DefaultKFactor = 32

// ComputeRatings computes new Elo ratings for a set of competitors given
// their prior ratings and 1-based placements. ratings and placements are
// parallel slices, one entry per competitor, ties permitted.
//
// Every ordered pair of competitors is treated as a head-to-head game:
// the expected score follows the standard logistic curve on the rating
// difference, the actual score is 1 / 0.5 / 0 for a win / tie / loss, and
// each opponent contributes K*(actual-expected)/(N-1) to the delta. The
// accumulated delta is rounded to the nearest integer.
func ComputeRatings(ratings []int, placements []int) ([]int, []int, error) {
	return ComputeRatingsK(ratings, placements, DefaultKFactor)
}

// ComputeRatingsK is ComputeRatings with an explicit K-factor.
func ComputeRatingsK(ratings []int, placements []int, k int) ([]int, []int, error) {
	if len(ratings) != len(placements) {
		return nil, nil, ErrRatingInputMismatch()
	}
	if len(ratings) < 2 {
		return nil, nil, ErrTooFewCompetitors()
	}

	n := len(ratings)
	deltas := make([]int, n)
	newRatings := make([]int, n)

	for i := 0; i < n; i++ {
		acc := 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			expected := expectedScore(ratings[i], ratings[j])
			actual := placementScore(placements[i], placements[j])
			acc += float64(k) * (actual - expected) / float64(n-1)
		}
		deltas[i] = int(math.Round(acc))
		newRatings[i] = ratings[i] + deltas[i]
	}

	return newRatings, deltas, nil
}

func expectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

func placementScore(placementA, placementB int) float64 {
	switch {
	case placementA < placementB:
		return 1
	case placementA == placementB:
		return 0.5
	default:
		return 0
	}
}
