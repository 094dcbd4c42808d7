package coverage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultDedupeCacheSize is the number of recent coordinates a LineSource
// remembers when removing duplicates.
const defaultDedupeCacheSize = 1 << 16

// A LineSource is a CoordinateSource that reads one "lat,lng" or "lat lng"
// coordinate per line. Blank lines and lines starting with # are ignored.
// Duplicates are removed as long as they are within the most recent
// dedupeCacheSize distinct coordinates.
type LineSource struct {
	r               io.Reader
	dedupeCacheSize int
}

// A LineSourceOption sets an option on a LineSource.
type LineSourceOption func(*LineSource)

// NewLineSource returns a new LineSource reading from r.
func NewLineSource(r io.Reader, options ...LineSourceOption) *LineSource {
	s := &LineSource{
		r:               r,
		dedupeCacheSize: defaultDedupeCacheSize,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func WithDedupeCacheSize(dedupeCacheSize int) LineSourceOption {
	return func(s *LineSource) {
		s.dedupeCacheSize = dedupeCacheSize
	}
}

// Coordinates implements CoordinateSource.Coordinates.
func (s *LineSource) Coordinates(ctx context.Context) ([]LatLng, error) {
	seen, err := lru.New[LatLng, struct{}](s.dedupeCacheSize)
	if err != nil {
		return nil, err
	}

	var coords []LatLng
	scanner := bufio.NewScanner(s.r)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := ParseLatLng(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if ok, _ := seen.ContainsOrAdd(c, struct{}{}); ok {
			continue
		}
		coords = append(coords, c)
	}
	return coords, scanner.Err()
}

// ParseLatLng parses a coordinate of the form "lat,lng" or "lat lng".
func ParseLatLng(s string) (LatLng, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return LatLng{}, fmt.Errorf("%q: %w", s, ErrInvalidInput)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("%q: %w", s, ErrInvalidInput)
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("%q: %w", s, ErrInvalidInput)
	}
	c := LatLng{Lat: lat, Lng: lng}
	if !c.Valid() {
		return LatLng{}, fmt.Errorf("%q: %w", s, ErrInvalidInput)
	}
	return c, nil
}

// A WriterSink is a ScoreSink that writes "lat,lng,score" lines.
type WriterSink struct {
	mutex sync.Mutex
	w     *bufio.Writer
}

// NewWriterSink returns a new WriterSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{
		w: bufio.NewWriter(w),
	}
}

// StoreScore implements ScoreSink.StoreScore.
func (s *WriterSink) StoreScore(ctx context.Context, c LatLng, score int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, err := fmt.Fprintf(s.w, "%s,%d\n", c, score)
	return err
}

// Flush implements ScoreSink.Flush.
func (s *WriterSink) Flush(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.w.Flush()
}
