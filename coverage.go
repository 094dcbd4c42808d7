// Package coverage estimates how densely a location is covered by
// street-level imagery, using a pyramid of paletted coverage tiles.
package coverage

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest supported zoom level.
const MaxZoom = 24

var ErrInvalidInput = errors.New("invalid input")

// A LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// A TileCoord is a tile coordinate at an implicit zoom level. It may lie
// outside the tile grid.
type TileCoord struct {
	X int
	Y int
}

// TileBounds is the geographic rectangle covered by a tile.
type TileBounds struct {
	LatMin float64
	LatMax float64
	LngMin float64
	LngMax float64
}

// Valid returns whether c is a finite coordinate within the usual ranges.
func (c LatLng) Valid() bool {
	switch {
	case math.IsNaN(c.Lat) || math.IsNaN(c.Lng):
		return false
	case c.Lat < -90 || 90 < c.Lat:
		return false
	case c.Lng < -180 || 180 < c.Lng:
		return false
	default:
		return true
	}
}

func (c LatLng) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lng)
}

// InRange returns whether t addresses a tile that exists at zoom.
func (t TileCoord) InRange(zoom int) bool {
	if t.X < 0 || t.Y < 0 || zoom < 0 || zoom > MaxZoom {
		return false
	}
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(zoom)).Valid()
}

func (t TileCoord) String() string {
	return fmt.Sprintf("%d/%d", t.X, t.Y)
}

// Contains returns whether c lies inside or on the edge of b.
func (b TileBounds) Contains(c LatLng) bool {
	return b.Bound().Contains(orb.Point{c.Lng, c.Lat})
}

// Bound returns b as an orb.Bound, with X as longitude and Y as latitude.
func (b TileBounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.LngMin, b.LatMin},
		Max: orb.Point{b.LngMax, b.LatMax},
	}
}

func validateZoom(zoom int) error {
	if zoom < 0 || zoom > MaxZoom {
		return fmt.Errorf("zoom %d: %w", zoom, ErrInvalidInput)
	}
	return nil
}
