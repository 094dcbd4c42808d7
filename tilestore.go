package coverage

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"io/fs"

	_ "golang.org/x/image/tiff"
)

var ErrUnsupportedRaster = errors.New("unsupported raster")

// A TileStore returns the coverage raster for a tile. A nil raster with a
// nil error means that the store has no raster for the tile.
type TileStore interface {
	Tile(ctx context.Context, tileCoord TileCoord, zoom int) (*image.Paletted, error)
}

// A TileFilenameFunc returns the filename of the tile at tileCoord and zoom.
type TileFilenameFunc func(tileCoord TileCoord, zoom int) string

// DefaultTileFilename is the filename layout used by the tile downloader,
// for example z12x2048y1361.png.
func DefaultTileFilename(tileCoord TileCoord, zoom int) string {
	return fmt.Sprintf("z%dx%dy%d.png", zoom, tileCoord.X, tileCoord.Y)
}

// An FSTileStore is a TileStore backed by a filesystem.
type FSTileStore struct {
	fsys             fs.FS
	tileFilenameFunc TileFilenameFunc
}

// An FSTileStoreOption sets an option on an FSTileStore.
type FSTileStoreOption func(*FSTileStore)

// NewFSTileStore returns a new FSTileStore that reads tiles from fsys.
func NewFSTileStore(fsys fs.FS, options ...FSTileStoreOption) *FSTileStore {
	s := &FSTileStore{
		fsys:             fsys,
		tileFilenameFunc: DefaultTileFilename,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func WithTileFilenameFunc(tileFilenameFunc TileFilenameFunc) FSTileStoreOption {
	return func(s *FSTileStore) {
		s.tileFilenameFunc = tileFilenameFunc
	}
}

// Tile implements TileStore.Tile.
func (s *FSTileStore) Tile(ctx context.Context, tileCoord TileCoord, zoom int) (*image.Paletted, error) {
	if !tileCoord.InRange(zoom) {
		return nil, nil
	}
	filename := s.tileFilenameFunc(tileCoord, zoom)
	switch file, err := s.fsys.Open(filename); {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, err
	default:
		defer file.Close()
		paletted, err := decodePalettedTile(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return paletted, nil
	}
}

// decodePalettedTile decodes a paletted raster from r.
func decodePalettedTile(r io.Reader) (*image.Paletted, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	tileDecodes.Inc()
	paletted, ok := img.(*image.Paletted)
	if !ok {
		return nil, fmt.Errorf("%s image of type %T: %w", format, img, ErrUnsupportedRaster)
	}
	return paletted, nil
}
