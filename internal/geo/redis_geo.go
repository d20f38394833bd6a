package geo

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/motorambos/internal/models"
)

// RedisGeo implements Geo using Redis GEO commands. Positions are kept
// in one geo set per offered service so a nearby query only touches
// providers that can actually take the job; metadata lives in a hash
// per provider.
type RedisGeo struct {
	client *redis.Client
	prefix string
	// SearchRadiusKm bounds the GEORADIUS query; coverage filtering is
	// applied on top of it per provider.
	SearchRadiusKm float64
}

const defaultSearchRadiusKm = 25

func NewRedisGeo(addr, password, prefix string) *RedisGeo {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisGeo{client: c, prefix: prefix, SearchRadiusKm: defaultSearchRadiusKm}
}

func (r *RedisGeo) Upsert(ctx context.Context, p models.Provider) error {
	types := make([]models.HelpType, 0, len(models.HelpTypes))
	if len(p.Services) == 0 {
		types = append(types, models.HelpTypes...)
	} else {
		for _, s := range p.Services {
			if t := models.HelpType(s.Code); t.Valid() {
				types = append(types, t)
			}
		}
	}
	for _, t := range types {
		if err := r.client.GeoAdd(ctx, r.geoKey(t), &redis.GeoLocation{
			Longitude: p.Loc.Lon, Latitude: p.Loc.Lat, Name: p.ID,
		}).Err(); err != nil {
			return err
		}
	}
	return r.client.HSet(ctx, r.metaKey(p.ID), map[string]interface{}{
		"name":        p.Name,
		"phone":       p.Phone,
		"rating":      strconv.FormatFloat(p.Rating, 'f', -1, 64),
		"jobs":        strconv.Itoa(p.JobsCompleted),
		"callout_fee": strconv.FormatFloat(p.MinCalloutFee, 'f', -1, 64),
		"coverage_km": strconv.FormatFloat(p.CoverageKm, 'f', -1, 64),
		"online":      strconv.FormatBool(p.Online),
		"updated":     time.Now().Format(time.RFC3339),
	}).Err()
}

func (r *RedisGeo) Nearby(ctx context.Context, helpType models.HelpType, lat, lon float64, limit int) ([]models.ProviderCandidate, error) {
	res, err := r.client.GeoRadius(ctx, r.geoKey(helpType), lon, lat, &redis.GeoRadiusQuery{
		Radius: r.SearchRadiusKm, Unit: "km", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.ProviderCandidate, 0, len(res))
	for _, g := range res {
		p := models.Provider{ID: g.Name, Loc: models.Coord{Lat: g.Latitude, Lon: g.Longitude}}
		m, err := r.client.HGetAll(ctx, r.metaKey(g.Name)).Result()
		if err == nil {
			hydrate(&p, m)
		}
		if !p.Online {
			continue
		}
		if p.CoverageKm > 0 && g.Dist > p.CoverageKm {
			continue
		}
		out = append(out, Candidate(p, g.Dist))
	}
	return out, nil
}

func hydrate(p *models.Provider, m map[string]string) {
	p.Name = m["name"]
	p.Phone = m["phone"]
	if v, err := strconv.ParseFloat(m["rating"], 64); err == nil {
		p.Rating = v
	}
	if v, err := strconv.Atoi(m["jobs"]); err == nil {
		p.JobsCompleted = v
	}
	if v, err := strconv.ParseFloat(m["callout_fee"], 64); err == nil {
		p.MinCalloutFee = v
	}
	if v, err := strconv.ParseFloat(m["coverage_km"], 64); err == nil {
		p.CoverageKm = v
	}
	p.Online = m["online"] == "true"
}

// Get resolves a provider's metadata by id. Position is not restored;
// callers only need display fields here.
func (r *RedisGeo) Get(ctx context.Context, id string) (models.Provider, bool) {
	m, err := r.client.HGetAll(ctx, r.metaKey(id)).Result()
	if err != nil || len(m) == 0 {
		return models.Provider{}, false
	}
	p := models.Provider{ID: id}
	hydrate(&p, m)
	return p, true
}

func (r *RedisGeo) Close() error { return r.client.Close() }

func (r *RedisGeo) geoKey(t models.HelpType) string { return r.prefix + ":geo:" + string(t) }
func (r *RedisGeo) metaKey(id string) string        { return r.prefix + ":meta:" + id }
