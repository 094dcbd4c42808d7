package coverage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/maypok86/otter/v2"
)

// maxAcceptableRed is the exclusive upper bound on the red channel of
// palette colors that mark roads with imagery. Brighter colors are
// background.
const maxAcceptableRed = 100

// A PixelCountMode selects which pixels of a tile count towards its raw
// score.
type PixelCountMode int

const (
	// CountAboveFirstAcceptable counts pixels whose palette index is greater
	// than the smallest acceptable palette index. Existing scores were
	// computed this way.
	CountAboveFirstAcceptable PixelCountMode = iota
	// CountAcceptable counts pixels whose palette index is acceptable.
	CountAcceptable
)

func (m PixelCountMode) String() string {
	switch m {
	case CountAboveFirstAcceptable:
		return "above-first-acceptable"
	case CountAcceptable:
		return "acceptable"
	default:
		return "unknown"
	}
}

// ParsePixelCountMode parses s as returned by PixelCountMode.String.
func ParsePixelCountMode(s string) (PixelCountMode, error) {
	for _, m := range []PixelCountMode{CountAboveFirstAcceptable, CountAcceptable} {
		if s == m.String() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrInvalidInput)
}

// A TileScorer computes raw tile scores, caching them by tile coordinate.
type TileScorer struct {
	store          TileStore
	zoom           int
	cacheEnabled   bool
	cacheSize      int
	pixelCountMode PixelCountMode
	cache          *otter.Cache[TileCoord, int]
}

// A TileScorerOption sets an option on a TileScorer.
type TileScorerOption func(*TileScorer)

// NewTileScorer returns a new TileScorer reading tiles at zoom from store.
func NewTileScorer(store TileStore, zoom int, options ...TileScorerOption) (*TileScorer, error) {
	if err := validateZoom(zoom); err != nil {
		return nil, err
	}
	s := &TileScorer{
		store:        store,
		zoom:         zoom,
		cacheEnabled: true,
	}
	for _, option := range options {
		option(s)
	}
	if s.cacheSize < 0 {
		return nil, fmt.Errorf("cache size %d: %w", s.cacheSize, ErrInvalidInput)
	}

	if s.cacheEnabled {
		var err error
		s.cache, err = otter.New(&otter.Options[TileCoord, int]{
			MaximumSize: s.cacheSize,
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithCacheEnabled sets whether tile scores are cached. Without the cache,
// every lookup decodes the tile again.
func WithCacheEnabled(cacheEnabled bool) TileScorerOption {
	return func(s *TileScorer) {
		s.cacheEnabled = cacheEnabled
	}
}

// WithCacheSize bounds the number of cached tile scores. Zero, the default,
// means that cached scores are never evicted.
func WithCacheSize(cacheSize int) TileScorerOption {
	return func(s *TileScorer) {
		s.cacheSize = cacheSize
	}
}

func WithPixelCountMode(pixelCountMode PixelCountMode) TileScorerOption {
	return func(s *TileScorer) {
		s.pixelCountMode = pixelCountMode
	}
}

// Zoom returns s's zoom level.
func (s *TileScorer) Zoom() int {
	return s.zoom
}

// TileScore returns the raw score of the tile at tileCoord. Missing tiles
// score zero and are not cached, so tiles that appear later are picked up.
func (s *TileScorer) TileScore(ctx context.Context, tileCoord TileCoord) (int, error) {
	if s.cache == nil {
		score, err := s.loadTileScore(ctx, tileCoord)
		if errors.Is(err, otter.ErrNotFound) {
			return 0, nil
		}
		return score, err
	}

	if score, ok := s.cache.GetIfPresent(tileCoord); ok {
		tileScoreCacheHits.Inc()
		return score, nil
	}
	tileScoreCacheMisses.Inc()

	switch score, err := s.cache.Get(ctx, tileCoord, otter.LoaderFunc[TileCoord, int](s.loadTileScore)); {
	case errors.Is(err, otter.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	default:
		return score, nil
	}
}

// loadTileScore reads and scores the tile at tileCoord. It returns
// otter.ErrNotFound if the tile is missing.
func (s *TileScorer) loadTileScore(ctx context.Context, tileCoord TileCoord) (int, error) {
	paletted, err := s.store.Tile(ctx, tileCoord, s.zoom)
	switch {
	case err != nil:
		return 0, fmt.Errorf("tile %d/%s: %w", s.zoom, tileCoord, err)
	case paletted == nil:
		missingTiles.Inc()
		return 0, otter.ErrNotFound
	default:
		return RawScore(paletted, s.pixelCountMode), nil
	}
}

// RawScore returns the number of pixels in paletted that count towards its
// score under mode.
func RawScore(paletted *image.Paletted, mode PixelCountMode) int {
	acceptable, first, ok := acceptableIndexes(paletted.Palette)
	if !ok {
		return 0
	}

	var counted [256]bool
	for index := range counted {
		switch mode {
		case CountAboveFirstAcceptable:
			counted[index] = index > first
		case CountAcceptable:
			counted[index] = index < len(acceptable) && acceptable[index]
		}
	}

	score := 0
	bounds := paletted.Rect
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		offset := paletted.PixOffset(bounds.Min.X, y)
		for _, index := range paletted.Pix[offset : offset+bounds.Dx()] {
			if counted[index] {
				score++
			}
		}
	}
	return score
}

// acceptableIndexes returns which entries of palette are acceptable and the
// smallest acceptable index. ok is false if no entry is acceptable.
func acceptableIndexes(palette color.Palette) (acceptable []bool, first int, ok bool) {
	acceptable = make([]bool, len(palette))
	first = -1
	for index, c := range palette {
		r := color.NRGBAModel.Convert(c).(color.NRGBA).R
		if 0 < r && r < maxAcceptableRed {
			acceptable[index] = true
			if first < 0 {
				first = index
			}
		}
	}
	return acceptable, first, first >= 0
}
