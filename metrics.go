package coverage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tileScoreCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverage_tile_score_cache_hits_total",
		Help: "The total number of hits on the tile score cache",
	})
	tileScoreCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverage_tile_score_cache_misses_total",
		Help: "The total number of misses on the tile score cache",
	})
	tileDecodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverage_tile_decodes_total",
		Help: "The total number of tile rasters decoded",
	})
	missingTiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverage_missing_tiles_total",
		Help: "The total number of tile lookups that found no raster",
	})
	coordinatesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverage_coordinates_scored_total",
		Help: "The total number of coordinates scored",
	})
)
