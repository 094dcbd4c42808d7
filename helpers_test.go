package coverage_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-coverage"
)

const tileSize = 256

// testPalette has a transparent background, two road colors and a bright
// background color.
var testPalette = color.Palette{
	color.NRGBA{R: 0, G: 0, B: 0, A: 0},
	color.NRGBA{R: 84, G: 160, B: 220, A: 255},
	color.NRGBA{R: 50, G: 100, B: 200, A: 255},
	color.NRGBA{R: 255, G: 255, B: 255, A: 255},
}

// newTile returns a tile whose pixels have palette index f(x, y).
func newTile(palette color.Palette, f func(x, y int) uint8) *image.Paletted {
	paletted := image.NewPaletted(image.Rect(0, 0, tileSize, tileSize), palette)
	for y := range tileSize {
		for x := range tileSize {
			paletted.SetColorIndex(x, y, f(x, y))
		}
	}
	return paletted
}

func uniformTile(index uint8) *image.Paletted {
	return newTile(testPalette, func(int, int) uint8 { return index })
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buffer := &bytes.Buffer{}
	assert.NoError(t, png.Encode(buffer, img))
	return buffer.Bytes()
}

// tileFS returns a filesystem holding tiles in the default layout.
func tileFS(t *testing.T, zoom int, tiles map[coverage.TileCoord]*image.Paletted) fstest.MapFS {
	t.Helper()
	fsys := make(fstest.MapFS)
	for tileCoord, tile := range tiles {
		fsys[coverage.DefaultTileFilename(tileCoord, zoom)] = &fstest.MapFile{
			Data: encodePNG(t, tile),
		}
	}
	return fsys
}

// funcTileStore is a TileStore that returns f's tiles and counts lookups.
type funcTileStore struct {
	mutex  sync.Mutex
	f      func(coverage.TileCoord) *image.Paletted
	counts map[coverage.TileCoord]int
}

func newFuncTileStore(f func(coverage.TileCoord) *image.Paletted) *funcTileStore {
	return &funcTileStore{
		f:      f,
		counts: make(map[coverage.TileCoord]int),
	}
}

func (s *funcTileStore) Tile(ctx context.Context, tileCoord coverage.TileCoord, zoom int) (*image.Paletted, error) {
	s.mutex.Lock()
	s.counts[tileCoord]++
	s.mutex.Unlock()
	return s.f(tileCoord), nil
}

func (s *funcTileStore) count(tileCoord coverage.TileCoord) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.counts[tileCoord]
}

func newTestScorer(t *testing.T, store coverage.TileStore, zoom int, options ...coverage.TileScorerOption) *coverage.Scorer {
	t.Helper()
	tileScorer, err := coverage.NewTileScorer(store, zoom, options...)
	assert.NoError(t, err)
	return coverage.NewScorer(tileScorer)
}
