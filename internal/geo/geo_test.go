package geo

import (
	"context"
	"math"
	"testing"

	"github.com/example/motorambos/internal/models"
)

func TestHaversineZero(t *testing.T) {
	if d := HaversineKm(0, 0, 0, 0); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Accra city center to Tema, roughly 25 km
	d := HaversineKm(5.5600, -0.2057, 5.6698, 0.0166)
	if math.Abs(d-27) > 3 {
		t.Fatalf("expected ~27km, got %f", d)
	}
}

func TestNearbyFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	tire := []models.OfferedService{{Code: "tire", Name: "Tire change"}}

	_ = idx.Upsert(ctx, models.Provider{ID: "near", Loc: models.Coord{Lat: 5.60, Lon: -0.18}, Online: true, Services: tire})
	_ = idx.Upsert(ctx, models.Provider{ID: "far", Loc: models.Coord{Lat: 5.70, Lon: -0.18}, Online: true, Services: tire})
	_ = idx.Upsert(ctx, models.Provider{ID: "offline", Loc: models.Coord{Lat: 5.60, Lon: -0.18}, Online: false, Services: tire})
	_ = idx.Upsert(ctx, models.Provider{ID: "wrong-service", Loc: models.Coord{Lat: 5.60, Lon: -0.18}, Online: true,
		Services: []models.OfferedService{{Code: "tow"}}})

	out, err := idx.Nearby(ctx, models.HelpTire, 5.60, -0.18, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(out), out)
	}
	if out[0].ID != "near" || out[1].ID != "far" {
		t.Fatalf("wrong order: %v", out)
	}
	if out[0].DistanceKm >= out[1].DistanceKm {
		t.Fatalf("distances not ascending: %f vs %f", out[0].DistanceKm, out[1].DistanceKm)
	}
}

func TestNearbyRespectsCoverageRadius(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	// ~11km away with a 5km coverage radius
	_ = idx.Upsert(ctx, models.Provider{ID: "limited", Loc: models.Coord{Lat: 5.70, Lon: -0.18}, Online: true, CoverageKm: 5})
	out, err := idx.Nearby(ctx, models.HelpBattery, 5.60, -0.18, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected provider outside its coverage to be excluded, got %v", out)
	}
}

func TestGeneralistMatchesEveryService(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	_ = idx.Upsert(ctx, models.Provider{ID: "general", Loc: models.Coord{Lat: 5.60, Lon: -0.18}, Online: true})
	for _, ht := range models.HelpTypes {
		out, _ := idx.Nearby(ctx, ht, 5.60, -0.18, 10)
		if len(out) != 1 {
			t.Fatalf("%s: expected generalist to match", ht)
		}
	}
}

func TestNearbyLimit(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	for i := 0; i < 5; i++ {
		_ = idx.Upsert(ctx, models.Provider{ID: string(rune('a' + i)), Loc: models.Coord{Lat: 5.60 + float64(i)*0.01, Lon: -0.18}, Online: true})
	}
	out, _ := idx.Nearby(ctx, models.HelpFuel, 5.60, -0.18, 3)
	if len(out) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(out))
	}
}

func TestCandidateOmitsZeroRating(t *testing.T) {
	c := Candidate(models.Provider{ID: "x"}, 1)
	if c.Rating != nil {
		t.Fatal("zero rating should map to nil")
	}
	c = Candidate(models.Provider{ID: "x", Rating: 4.5}, 1)
	if c.Rating == nil || *c.Rating != 4.5 {
		t.Fatalf("expected rating 4.5, got %v", c.Rating)
	}
}
