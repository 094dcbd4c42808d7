package coverage_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/twpayne/go-coverage"
)

func TestTileForLatLng(t *testing.T) {
	for _, tc := range []struct {
		name     string
		coord    coverage.LatLng
		zoom     int
		expected coverage.TileCoord
	}{
		{
			name:     "london",
			coord:    coverage.LatLng{Lat: 51.5074, Lng: -0.1278},
			zoom:     12,
			expected: coverage.TileCoord{X: 2046, Y: 1362},
		},
		{
			name:     "sydney",
			coord:    coverage.LatLng{Lat: -33.8688, Lng: 151.2093},
			zoom:     12,
			expected: coverage.TileCoord{X: 3768, Y: 2457},
		},
		{
			name:     "new_york",
			coord:    coverage.LatLng{Lat: 40.7128, Lng: -74.0060},
			zoom:     12,
			expected: coverage.TileCoord{X: 1205, Y: 1540},
		},
		{
			name:     "north_pole",
			coord:    coverage.LatLng{Lat: 90, Lng: 0},
			zoom:     12,
			expected: coverage.TileCoord{X: 2048, Y: -1181},
		},
		{
			name:     "south_pole",
			coord:    coverage.LatLng{Lat: -90, Lng: 0},
			zoom:     12,
			expected: coverage.TileCoord{X: 2048, Y: 5276},
		},
		{
			name:     "zoom_0",
			coord:    coverage.LatLng{Lat: 10, Lng: 10},
			zoom:     0,
			expected: coverage.TileCoord{X: 0, Y: 0},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, coverage.TileForLatLng(tc.coord, tc.zoom))
		})
	}
}

func TestTileForLatLngMatchesMaptile(t *testing.T) {
	for _, coord := range []coverage.LatLng{
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 35.6762, Lng: 139.6503},
		{Lat: -22.9068, Lng: -43.1729},
		{Lat: 64.1466, Lng: -21.9426},
	} {
		for _, zoom := range []int{1, 5, 12, 16} {
			tile := maptile.At(orb.Point{coord.Lng, coord.Lat}, maptile.Zoom(zoom))
			expected := coverage.TileCoord{X: int(tile.X), Y: int(tile.Y)}
			assert.Equal(t, expected, coverage.TileForLatLng(coord, zoom))
		}
	}
}

func TestCornerForTileRoundTrip(t *testing.T) {
	for _, zoom := range []int{1, 4, 12} {
		scale := 1 << zoom
		step := max(scale/64, 1)
		for y := 0; y < scale; y += step {
			for x := 0; x < scale; x += step {
				tileCoord := coverage.TileCoord{X: x, Y: y}
				bounds := coverage.BoundsForTile(tileCoord, zoom)
				center := coverage.LatLng{
					Lat: (bounds.LatMin + bounds.LatMax) / 2,
					Lng: (bounds.LngMin + bounds.LngMax) / 2,
				}
				assert.Equal(t, tileCoord, coverage.TileForLatLng(center, zoom))

				// Nudge the north-west corner into the tile.
				corner := coverage.CornerForTile(tileCoord, zoom)
				inside := coverage.LatLng{
					Lat: corner.Lat - 1e-9,
					Lng: corner.Lng + 1e-9,
				}
				assert.Equal(t, tileCoord, coverage.TileForLatLng(inside, zoom))
			}
		}
	}
}

func TestBoundsForTile(t *testing.T) {
	bounds := coverage.BoundsForTile(coverage.TileCoord{X: 2046, Y: 1362}, 12)
	assertClose(t, 51.45400691005982, bounds.LatMin)
	assertClose(t, 51.50874245880333, bounds.LatMax)
	assert.Equal(t, -0.17578125, bounds.LngMin)
	assert.Equal(t, -0.087890625, bounds.LngMax)

	world := coverage.BoundsForTile(coverage.TileCoord{}, 0)
	assertClose(t, -85.05112877980659, world.LatMin)
	assertClose(t, 85.05112877980659, world.LatMax)
	assert.Equal(t, -180.0, world.LngMin)
	assert.Equal(t, 180.0, world.LngMax)
}

func TestBoundsForTileOrdered(t *testing.T) {
	for _, zoom := range []int{0, 1, 3, 12} {
		scale := 1 << zoom
		step := max(scale/32, 1)
		for y := 0; y < scale; y += step {
			for x := 0; x < scale; x += step {
				bounds := coverage.BoundsForTile(coverage.TileCoord{X: x, Y: y}, zoom)
				assert.True(t, bounds.LatMin < bounds.LatMax)
				assert.True(t, bounds.LngMin < bounds.LngMax)
			}
		}
	}
}

func TestTileCoordInRange(t *testing.T) {
	for _, tc := range []struct {
		tileCoord coverage.TileCoord
		zoom      int
		expected  bool
	}{
		{tileCoord: coverage.TileCoord{X: 0, Y: 0}, zoom: 0, expected: true},
		{tileCoord: coverage.TileCoord{X: 1, Y: 0}, zoom: 0, expected: false},
		{tileCoord: coverage.TileCoord{X: 4095, Y: 4095}, zoom: 12, expected: true},
		{tileCoord: coverage.TileCoord{X: 4096, Y: 0}, zoom: 12, expected: false},
		{tileCoord: coverage.TileCoord{X: -1, Y: 0}, zoom: 12, expected: false},
		{tileCoord: coverage.TileCoord{X: 0, Y: -1}, zoom: 12, expected: false},
		{tileCoord: coverage.TileCoord{X: 0, Y: 0}, zoom: coverage.MaxZoom + 1, expected: false},
	} {
		assert.Equal(t, tc.expected, tc.tileCoord.InRange(tc.zoom))
	}
}

func TestLatLngValid(t *testing.T) {
	for _, tc := range []struct {
		coord    coverage.LatLng
		expected bool
	}{
		{coord: coverage.LatLng{Lat: 0, Lng: 0}, expected: true},
		{coord: coverage.LatLng{Lat: 90, Lng: 180}, expected: true},
		{coord: coverage.LatLng{Lat: -90, Lng: -180}, expected: true},
		{coord: coverage.LatLng{Lat: 90.5, Lng: 0}, expected: false},
		{coord: coverage.LatLng{Lat: 0, Lng: -180.5}, expected: false},
		{coord: coverage.LatLng{Lat: math.NaN(), Lng: 0}, expected: false},
		{coord: coverage.LatLng{Lat: 0, Lng: math.Inf(1)}, expected: false},
	} {
		assert.Equal(t, tc.expected, tc.coord.Valid())
	}
}

func assertClose(t *testing.T, expected, actual float64) {
	t.Helper()
	if math.Abs(expected-actual) > 1e-9*max(1, math.Abs(expected)) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}
