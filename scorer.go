package coverage

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
)

const (
	// DefaultZoom is the zoom level of the coverage tiles.
	DefaultZoom = 12

	// MaxScore is the score of a neighborhood in which every pixel counts.
	// Scores are not clamped, so pathological input may exceed it.
	MaxScore = 10000

	// rawScoreScale maps raw pixel counts onto [0, MaxScore]. It must not
	// change, otherwise stored scores become incomparable.
	rawScoreScale = 1 << 16

	// weightDistanceKm is the distance at which the unsquared weight of a
	// tile falls to one half.
	weightDistanceKm = 10
)

// A Sample is the contribution of one tile to a coordinate's score.
type Sample struct {
	Tile     TileCoord
	Distance float64 // Kilometers.
	RawScore int
	Weight   float64
	Score    float64 // RawScore * Weight.
	Kept     bool
}

// A Scorer computes coverage density scores for coordinates.
type Scorer struct {
	tileScorer    *TileScorer
	haversineMode HaversineMode
	logger        *slog.Logger
}

// A ScorerOption sets an option on a Scorer.
type ScorerOption func(*Scorer)

// NewScorer returns a new Scorer that uses tileScorer for raw tile scores.
// The number of neighborhood rings equals tileScorer's zoom level.
func NewScorer(tileScorer *TileScorer, options ...ScorerOption) *Scorer {
	s := &Scorer{
		tileScorer: tileScorer,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func WithHaversineMode(haversineMode HaversineMode) ScorerOption {
	return func(s *Scorer) {
		s.haversineMode = haversineMode
	}
}

func WithLogger(logger *slog.Logger) ScorerOption {
	return func(s *Scorer) {
		s.logger = logger
	}
}

// Zoom returns s's zoom level.
func (s *Scorer) Zoom() int {
	return s.tileScorer.Zoom()
}

// Score returns the coverage density score of c, between 0 for no coverage
// and MaxScore for impossibly dense coverage.
func (s *Scorer) Score(ctx context.Context, c LatLng) (int, error) {
	_, score, err := s.Samples(ctx, c)
	return score, err
}

// Samples returns the score of c and every sample that it was computed
// from, in descending order of contribution.
//
// Each tile in the diamond-shaped neighborhood of c's tile is weighted by
// (10/(10+d))², where d is its distance from c in km. Only the top third of
// samples by weighted score is kept, so that nearby water or unmapped land
// does not drag down an otherwise well-covered location.
func (s *Scorer) Samples(ctx context.Context, c LatLng) ([]Sample, int, error) {
	if !c.Valid() {
		return nil, 0, fmt.Errorf("%s: %w", c, ErrInvalidInput)
	}

	zoom := s.Zoom()
	tileCoords := Neighborhood(TileForLatLng(c, zoom), zoom)
	samples := make([]Sample, 0, len(tileCoords))
	for _, tileCoord := range tileCoords {
		rawScore, err := s.tileScorer.TileScore(ctx, tileCoord)
		if err != nil {
			return nil, 0, err
		}
		distance := DistanceToTile(c, tileCoord, zoom, s.haversineMode)
		weight := weightDistanceKm / (weightDistanceKm + distance)
		weight *= weight
		samples = append(samples, Sample{
			Tile:     tileCoord,
			Distance: distance,
			RawScore: rawScore,
			Weight:   weight,
			Score:    float64(rawScore) * weight,
		})
	}
	if len(samples) == 0 {
		return samples, 0, nil
	}

	// Ties keep their neighborhood order so the kept set is deterministic.
	slices.SortStableFunc(samples, func(a, b Sample) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	kept := (len(samples) + 2) / 3
	var scoreSum, weightSum float64
	for i := range samples[:kept] {
		samples[i].Kept = true
		scoreSum += samples[i].Score
		weightSum += samples[i].Weight
	}
	score := int(math.RoundToEven(scoreSum / weightSum * MaxScore / rawScoreScale))

	coordinatesScored.Inc()
	s.logger.Debug("scored coordinate",
		slog.String("coord", c.String()),
		slog.Int("samples", len(samples)),
		slog.Int("kept", kept),
		slog.Int("score", score),
	)
	return samples, score, nil
}

// Neighborhood returns the tiles in the first rings diamond-shaped rings
// around base, innermost ring first. Ring d contains the tiles at Manhattan
// distance d from base. Within a ring, tiles are ordered by column, and the
// northern tile of each column precedes the southern one.
func Neighborhood(base TileCoord, rings int) []TileCoord {
	if rings <= 0 {
		return nil
	}
	tileCoords := make([]TileCoord, 0, 2*rings*(rings-1)+1)
	for d := range rings {
		for i := -d; i <= d; i++ {
			j := d - absInt(i)
			if j == 0 {
				tileCoords = append(tileCoords, TileCoord{X: base.X + i, Y: base.Y})
				continue
			}
			tileCoords = append(tileCoords,
				TileCoord{X: base.X + i, Y: base.Y - j},
				TileCoord{X: base.X + i, Y: base.Y + j},
			)
		}
	}
	return tileCoords
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
