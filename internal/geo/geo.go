package geo

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/example/motorambos/internal/models"
)

// Geo indexes provider positions and answers nearest-provider queries.
// The spatial filtering lives here, server-side; the wizard only ranks
// what it receives.
type Geo interface {
	Upsert(ctx context.Context, p models.Provider) error
	Nearby(ctx context.Context, helpType models.HelpType, lat, lon float64, limit int) ([]models.ProviderCandidate, error)
}

// ProviderDirectory is optionally implemented by geo backends that can
// resolve a provider record by id, used for display copy.
type ProviderDirectory interface {
	Get(ctx context.Context, id string) (models.Provider, bool)
}

// Index is the in-memory implementation, a naive scan over all
// providers. Fine for a single node; use the Redis index beyond that.
type Index struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
}

func NewIndex() *Index {
	return &Index{providers: make(map[string]models.Provider)}
}

func (g *Index) Upsert(ctx context.Context, p models.Provider) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p.Updated = time.Now()
	g.providers[p.ID] = p
	return nil
}

func (g *Index) Get(ctx context.Context, id string) (models.Provider, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.providers[id]
	return p, ok
}

func (g *Index) Nearby(ctx context.Context, helpType models.HelpType, lat, lon float64, limit int) ([]models.ProviderCandidate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	type pair struct {
		p      models.Provider
		distKm float64
	}
	arr := make([]pair, 0, len(g.providers))
	for _, p := range g.providers {
		if !p.Online || !OffersService(p, helpType) {
			continue
		}
		distKm := HaversineKm(lat, lon, p.Loc.Lat, p.Loc.Lon)
		if p.CoverageKm > 0 && distKm > p.CoverageKm {
			continue
		}
		arr = append(arr, pair{p, distKm})
	}
	// partial selection sort for top-N
	n := limit
	if n > len(arr) {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].distKm < arr[minIdx].distKm {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	out := make([]models.ProviderCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate(arr[i].p, arr[i].distKm))
	}
	return out, nil
}

// OffersService reports whether the provider covers the given help
// type. A provider with no listed services is treated as a generalist.
func OffersService(p models.Provider, helpType models.HelpType) bool {
	if len(p.Services) == 0 {
		return true
	}
	for _, s := range p.Services {
		if s.Code == string(helpType) {
			return true
		}
	}
	return false
}

// Candidate converts a provider record plus a computed distance into
// the read-only shape the wizard consumes.
func Candidate(p models.Provider, distKm float64) models.ProviderCandidate {
	c := models.ProviderCandidate{
		ID:              p.ID,
		Name:            p.Name,
		Phone:           p.Phone,
		DistanceKm:      distKm,
		JobsCompleted:   p.JobsCompleted,
		MinCalloutFee:   p.MinCalloutFee,
		CoverageKm:      p.CoverageKm,
		OfferedServices: p.Services,
		Loc:             p.Loc,
	}
	if p.Rating > 0 {
		r := p.Rating
		c.Rating = &r
	}
	return c
}

// HaversineKm is the great-circle distance in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
