package ranking

import (
	"testing"

	"github.com/example/motorambos/internal/models"
)

func rate(v float64) *float64 { return &v }

func TestRankDistanceThenRating(t *testing.T) {
	in := []models.ProviderCandidate{
		{ID: "1", DistanceKm: 5, Rating: rate(3)},
		{ID: "2", DistanceKm: 5, Rating: rate(4.5)},
		{ID: "3", DistanceKm: 2, Rating: rate(1)},
	}
	out := Rank(in)
	want := []string{"3", "2", "1"}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, out[i].ID)
		}
	}
}

func TestRankMissingRatingIsZero(t *testing.T) {
	in := []models.ProviderCandidate{
		{ID: "unrated", DistanceKm: 1},
		{ID: "rated", DistanceKm: 1, Rating: rate(0.5)},
	}
	out := Rank(in)
	if out[0].ID != "rated" {
		t.Fatalf("expected rated first, got %s", out[0].ID)
	}
}

func TestRankIdempotent(t *testing.T) {
	in := []models.ProviderCandidate{
		{ID: "a", DistanceKm: 3, Rating: rate(2)},
		{ID: "b", DistanceKm: 1},
		{ID: "c", DistanceKm: 3, Rating: rate(5)},
		{ID: "d", DistanceKm: 3, Rating: rate(2)},
	}
	once := Rank(in)
	twice := Rank(once)
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("position %d changed between rankings: %s vs %s", i, once[i].ID, twice[i].ID)
		}
	}
	// equal distance and rating keep their incoming order
	var ai, di int
	for i, p := range once {
		if p.ID == "a" {
			ai = i
		}
		if p.ID == "d" {
			di = i
		}
	}
	if ai > di {
		t.Fatalf("stable sort violated: a at %d after d at %d", ai, di)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []models.ProviderCandidate{
		{ID: "far", DistanceKm: 9},
		{ID: "near", DistanceKm: 1},
	}
	_ = Rank(in)
	if in[0].ID != "far" {
		t.Fatal("input slice was reordered")
	}
}
