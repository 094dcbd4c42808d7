package coverage

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// An S3TileStore is a TileStore backed by an S3-compatible bucket.
type S3TileStore struct {
	client           *minio.Client
	bucket           string
	prefix           string
	tileFilenameFunc TileFilenameFunc
}

// An S3TileStoreOption sets an option on an S3TileStore.
type S3TileStoreOption func(*S3TileStore)

// NewS3TileStore returns a new S3TileStore that reads tiles from bucket.
func NewS3TileStore(client *minio.Client, bucket string, options ...S3TileStoreOption) *S3TileStore {
	s := &S3TileStore{
		client:           client,
		bucket:           bucket,
		tileFilenameFunc: DefaultTileFilename,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// WithPrefix sets the object name prefix under which tiles are stored.
func WithPrefix(prefix string) S3TileStoreOption {
	return func(s *S3TileStore) {
		s.prefix = prefix
	}
}

func WithObjectNameFunc(tileFilenameFunc TileFilenameFunc) S3TileStoreOption {
	return func(s *S3TileStore) {
		s.tileFilenameFunc = tileFilenameFunc
	}
}

// NewS3Client returns a client for S3-compatible object storage, configured
// from a JSON file holding the endpoint and credentials.
func NewS3Client(keyPath string) (*minio.Client, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	var config struct{ Endpoint, Key, Secret string }
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%s: %w", keyPath, err)
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Key, config.Secret, ""),
		Secure: true,
	})
	if err != nil {
		return nil, err
	}
	client.SetAppInfo("CoverageDensity", "0.1")
	return client, nil
}

// ObjectName returns the name of the object holding the tile at tileCoord.
func (s *S3TileStore) ObjectName(tileCoord TileCoord, zoom int) string {
	return path.Join(s.prefix, s.tileFilenameFunc(tileCoord, zoom))
}

// Tile implements TileStore.Tile.
func (s *S3TileStore) Tile(ctx context.Context, tileCoord TileCoord, zoom int) (*image.Paletted, error) {
	if !tileCoord.InRange(zoom) {
		return nil, nil
	}
	objectName := s.ObjectName(tileCoord, zoom)
	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	// GetObject is lazy, so missing objects are only reported by Stat.
	switch _, err := object.Stat(); {
	case isNoSuchKey(err):
		return nil, nil
	case err != nil:
		return nil, err
	}

	paletted, err := decodePalettedTile(object)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", s.bucket, objectName, err)
	}
	return paletted, nil
}

func isNoSuchKey(err error) bool {
	return err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey"
}
