package coverage

import "math"

// maxSinLat keeps the Mercator projection finite at the poles.
const maxSinLat = 0.9999

// TileForLatLng returns the spherical Mercator tile containing c at zoom.
func TileForLatLng(c LatLng, zoom int) TileCoord {
	scale := float64(int(1) << zoom)
	sinLat := min(max(math.Sin(c.Lat*math.Pi/180), -maxSinLat), maxSinLat)
	return TileCoord{
		X: int(math.Floor(scale * (0.5 + c.Lng/360))),
		Y: int(math.Floor(scale * (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)))),
	}
}

// CornerForTile returns the north-west corner of t at zoom. It is the
// inverse of TileForLatLng for tile corners.
func CornerForTile(t TileCoord, zoom int) LatLng {
	scale := float64(int(1) << zoom)
	e := math.Exp((0.5 - float64(t.Y)/scale) * 4 * math.Pi)
	sinLat := (e - 1) / (e + 1)
	return LatLng{
		Lat: 180 / math.Pi * math.Asin(sinLat),
		Lng: 360 * (float64(t.X)/scale - 0.5),
	}
}

// BoundsForTile returns the geographic bounds of t at zoom.
func BoundsForTile(t TileCoord, zoom int) TileBounds {
	northWest := CornerForTile(t, zoom)
	southEast := CornerForTile(TileCoord{X: t.X + 1, Y: t.Y + 1}, zoom)
	return TileBounds{
		LatMin: min(northWest.Lat, southEast.Lat),
		LatMax: max(northWest.Lat, southEast.Lat),
		LngMin: min(northWest.Lng, southEast.Lng),
		LngMax: max(northWest.Lng, southEast.Lng),
	}
}
