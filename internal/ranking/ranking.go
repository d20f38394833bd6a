package ranking

import (
	"sort"

	"github.com/example/motorambos/internal/models"
)

// Rank orders provider candidates by distance ascending, breaking ties
// by rating descending (missing rating counts as zero). The sort is
// stable, so equal candidates keep their incoming order, and ranking an
// already-ranked list is a no-op.
func Rank(list []models.ProviderCandidate) []models.ProviderCandidate {
	out := make([]models.ProviderCandidate, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].RatingOrZero() > out[j].RatingOrZero()
	})
	return out
}
