package coverage

import "math"

// earthRadiusKm is the radius of the spherical Earth used for distances.
const earthRadiusKm = 6371

// A HaversineMode selects how the haversine formula treats latitudes in its
// cosine term.
type HaversineMode int

const (
	// HaversineDegreesCosine passes latitudes in degrees to the cosine term.
	// This is slightly wrong, but it is what existing scores were computed
	// with, so it is the default.
	HaversineDegreesCosine HaversineMode = iota
	// HaversineRadiansCosine is the textbook haversine formula. Scores
	// computed with it are not comparable with HaversineDegreesCosine
	// scores.
	HaversineRadiansCosine
)

func (m HaversineMode) String() string {
	switch m {
	case HaversineDegreesCosine:
		return "degrees"
	case HaversineRadiansCosine:
		return "radians"
	default:
		return "unknown"
	}
}

// DistanceToTile returns the distance in kilometers from c to the nearest
// point of t at zoom. The nearest point is found by clamping each axis
// independently, so it is zero when c lies inside t.
func DistanceToTile(c LatLng, t TileCoord, zoom int, mode HaversineMode) float64 {
	bounds := BoundsForTile(t, zoom)
	nearest := LatLng{
		Lat: clamp(c.Lat, bounds.LatMin, bounds.LatMax),
		Lng: clamp(c.Lng, bounds.LngMin, bounds.LngMax),
	}
	return haversine(c, nearest, mode)
}

// haversine returns the great circle distance between a and b in
// kilometers.
func haversine(a, b LatLng, mode HaversineMode) float64 {
	dLat := (a.Lat - b.Lat) * math.Pi / 180
	dLng := (a.Lng - b.Lng) * math.Pi / 180
	latA, latB := a.Lat, b.Lat
	if mode == HaversineRadiansCosine {
		latA *= math.Pi / 180
		latB *= math.Pi / 180
	}
	sinDLat, sinDLng := math.Sin(dLat/2), math.Sin(dLng/2)
	h := sinDLat*sinDLat + math.Cos(latA)*math.Cos(latB)*sinDLng*sinDLng
	// With HaversineDegreesCosine, h can leave [0, 1] when the cosines have
	// opposite signs.
	h = min(max(h, 0), 1)
	return 2 * math.Asin(math.Sqrt(h)) * earthRadiusKm
}

func clamp(value, lo, hi float64) float64 {
	switch {
	case value < lo:
		return lo
	case value > hi:
		return hi
	default:
		return value
	}
}
