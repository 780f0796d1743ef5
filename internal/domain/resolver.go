package domain

import (
	"fmt"
	"math"
	"sort"
)

// Resolution is the outcome of matching an entity hint against the
// metadata table.
type Resolution struct {
	Station    Station
	DistanceKM float64 // 0 for exact matches
	Method     string  // "id", "name", or "nearest"
}

// Resolver joins entity hints to station/region metadata. Matching order:
// exact entity ID, exact display name, then nearest station by haversine
// distance when the hint carries coordinates. Ties between equidistant
// stations break to the lexicographically smallest entity ID, so
// resolution never depends on iteration order.
type Resolver struct {
	byID   map[string]Station
	byName map[string]Station
	// sorted by EntityID; the strict-less nearest scan over this order
	// implements the documented tie-break.
	stations []Station

	maxDistanceKM float64
	cache         *nearestCache
}

// NewResolver indexes the metadata table. When several rows share an ID or
// display name, the first row in table order wins (the loader preserves
// file order). maxDistanceKM bounds nearest matches; cacheSize bounds the
// nearest-match memo (0 disables it).
func NewResolver(stations []Station, maxDistanceKM float64, cacheSize int) *Resolver {
	r := &Resolver{
		byID:          make(map[string]Station, len(stations)),
		byName:        make(map[string]Station, len(stations)),
		stations:      make([]Station, len(stations)),
		maxDistanceKM: maxDistanceKM,
	}
	for _, s := range stations {
		if _, ok := r.byID[s.EntityID]; !ok {
			r.byID[s.EntityID] = s
		}
		if s.DisplayName != "" {
			if _, ok := r.byName[s.DisplayName]; !ok {
				r.byName[s.DisplayName] = s
			}
		}
	}
	copy(r.stations, stations)
	sort.Slice(r.stations, func(i, j int) bool { return r.stations[i].EntityID < r.stations[j].EntityID })

	if cacheSize > 0 {
		r.cache = newNearestCache(cacheSize)
	}
	return r
}

// Resolve matches one hint. Zero matches fail with ErrUnresolvedEntity;
// the caller excludes and counts the observation.
func (r *Resolver) Resolve(hint EntityHint) (Resolution, error) {
	if hint.ID != "" {
		if s, ok := r.byID[hint.ID]; ok {
			return Resolution{Station: s, Method: "id"}, nil
		}
	}
	if hint.Name != "" {
		if s, ok := r.byName[hint.Name]; ok {
			return Resolution{Station: s, Method: "name"}, nil
		}
	}
	if hint.HasCoords {
		if res, ok := r.nearest(hint.Lat, hint.Lon); ok {
			return res, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w: id=%q name=%q", ErrUnresolvedEntity, hint.ID, hint.Name)
}

// CacheStats reports nearest-match memo hits and misses for the run summary.
func (r *Resolver) CacheStats() (hits, misses uint64) {
	if r.cache == nil {
		return 0, 0
	}
	return r.cache.stats()
}

func (r *Resolver) nearest(lat, lon float64) (Resolution, bool) {
	// Daily records repeat the same station coordinates for every date and
	// metric, so memoizing by rounded coordinates collapses the scan to
	// one per station.
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if r.cache != nil {
		if res, ok := r.cache.get(key); ok {
			return res, true
		}
	}

	best := Resolution{DistanceKM: math.Inf(1)}
	found := false
	for _, s := range r.stations {
		d := haversineKM(lat, lon, s.Lat, s.Lon)
		if d < best.DistanceKM {
			best = Resolution{Station: s, DistanceKM: d, Method: "nearest"}
			found = true
		}
	}
	if !found || best.DistanceKM > r.maxDistanceKM {
		return Resolution{}, false
	}
	if r.cache != nil {
		r.cache.put(key, best)
	}
	return best, true
}

// haversineKM computes the great-circle distance between two WGS-84
// points in kilometers.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
