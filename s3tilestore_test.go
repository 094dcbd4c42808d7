package coverage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/minio/minio-go/v7"
)

func TestS3TileStoreObjectName(t *testing.T) {
	for _, tc := range []struct {
		options  []S3TileStoreOption
		expected string
	}{
		{
			expected: "z12x2046y1362.png",
		},
		{
			options:  []S3TileStoreOption{WithPrefix("tiles")},
			expected: "tiles/z12x2046y1362.png",
		},
		{
			options: []S3TileStoreOption{
				WithPrefix("svv/"),
				WithObjectNameFunc(func(tileCoord TileCoord, zoom int) string {
					return fmt.Sprintf("%d/%d/%d.png", zoom, tileCoord.X, tileCoord.Y)
				}),
			},
			expected: "svv/12/2046/1362.png",
		},
	} {
		s := NewS3TileStore(nil, "coverage", tc.options...)
		assert.Equal(t, tc.expected, s.ObjectName(TileCoord{X: 2046, Y: 1362}, 12))
	}
}

func TestIsNoSuchKey(t *testing.T) {
	assert.False(t, isNoSuchKey(nil))
	assert.False(t, isNoSuchKey(errors.New("connection refused")))
	assert.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.True(t, isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
}

func TestS3TileStoreOutOfRange(t *testing.T) {
	s := NewS3TileStore(nil, "coverage")
	paletted, err := s.Tile(t.Context(), TileCoord{X: -1, Y: 0}, 12)
	assert.NoError(t, err)
	assert.Zero(t, paletted)
}
