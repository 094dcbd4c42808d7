package coverage

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// RunOptions control Run.
type RunOptions struct {
	Workers       int // Defaults to GOMAXPROCS.
	ProgressEvery int // Defaults to 10000.
	Logger        *slog.Logger
}

// RunStats summarizes a Run.
type RunStats struct {
	Coordinates int
	Scored      int
	Elapsed     time.Duration
}

type scoredCoord struct {
	coord LatLng
	score int
}

// Run scores every coordinate from source and stores the scores in sink.
// Coordinates are scored concurrently, and scores are stored by a single
// goroutine in completion order. Cancelling ctx stops Run between
// coordinates; scores stored so far are flushed.
func Run(ctx context.Context, scorer *Scorer, source CoordinateSource, sink ScoreSink, options RunOptions) (RunStats, error) {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	progressEvery := options.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = 10000
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	start := time.Now()
	coords, err := source.Coordinates(ctx)
	if err != nil {
		return RunStats{}, err
	}
	stats := RunStats{
		Coordinates: len(coords),
	}
	logger.Info("getting coverage density",
		slog.String("coordinates", humanize.Comma(int64(len(coords)))),
		slog.Int("zoom", scorer.Zoom()),
		slog.Int("workers", workers),
	)

	results := make(chan scoredCoord, workers)
	scorers, scorersCtx := errgroup.WithContext(ctx)
	scorers.SetLimit(workers)

	writerDone := make(chan error, 1)
	go func() {
		var writeErr error
		for result := range results {
			if writeErr != nil {
				continue
			}
			if writeErr = sink.StoreScore(ctx, result.coord, result.score); writeErr != nil {
				continue
			}
			stats.Scored++
			if stats.Scored%progressEvery == 0 {
				logger.Info("progress",
					slog.String("scored", humanize.Comma(int64(stats.Scored))),
					slog.String("total", humanize.Comma(int64(stats.Coordinates))),
					slog.Duration("elapsed", time.Since(start)),
				)
			}
		}
		writerDone <- writeErr
	}()

	for _, coord := range coords {
		if scorersCtx.Err() != nil {
			break
		}
		scorers.Go(func() error {
			score, err := scorer.Score(scorersCtx, coord)
			if err != nil {
				return err
			}
			select {
			case results <- scoredCoord{coord: coord, score: score}:
				return nil
			case <-scorersCtx.Done():
				return scorersCtx.Err()
			}
		})
	}
	scoreErr := scorers.Wait()
	close(results)
	writeErr := <-writerDone

	flushErr := sink.Flush(context.WithoutCancel(ctx))
	stats.Elapsed = time.Since(start)
	logger.Info("done",
		slog.String("scored", humanize.Comma(int64(stats.Scored))),
		slog.Duration("elapsed", stats.Elapsed),
	)

	for _, err := range []error{scoreErr, writeErr, flushErr, ctx.Err()} {
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}
