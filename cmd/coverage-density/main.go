package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twpayne/go-coverage"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coverage-density",
		Short:         "Estimate street-level imagery coverage density from coverage tiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("tiles-path", "./tiles", "path to coverage tiles")
	flags.String("storage-key", "", "path to key with S3 storage access credentials; tiles are read from storage if set")
	flags.String("bucket", "coverage", "storage bucket holding tiles")
	flags.String("prefix", "tiles", "storage object name prefix for tiles")
	flags.Int("zoom", coverage.DefaultZoom, "tile zoom level and number of neighborhood rings")
	flags.Bool("cache", true, "cache tile scores")
	flags.Int("cache-size", 0, "maximum number of cached tile scores, 0 for unlimited")
	flags.String("pixel-count", coverage.CountAboveFirstAcceptable.String(), "pixel count mode: above-first-acceptable or acceptable")
	flags.Bool("radians-cosine", false, "use the textbook haversine formula; changes the score scale")
	flags.String("log-level", "info", "log level")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("COVERAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(
		newScoreCmd(v),
		newNeighborhoodCmd(v),
		newRunCmd(v),
	)
	return rootCmd
}

func newLogger(v *viper.Viper) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}

func newTileStore(v *viper.Viper) (coverage.TileStore, error) {
	if storageKey := v.GetString("storage-key"); storageKey != "" {
		client, err := coverage.NewS3Client(storageKey)
		if err != nil {
			return nil, err
		}
		return coverage.NewS3TileStore(client, v.GetString("bucket"),
			coverage.WithPrefix(v.GetString("prefix")),
		), nil
	}
	tilesPath := v.GetString("tiles-path")
	if _, err := os.Stat(tilesPath); err != nil {
		return nil, err
	}
	return coverage.NewFSTileStore(os.DirFS(tilesPath)), nil
}

func newScorer(v *viper.Viper, logger *slog.Logger) (*coverage.Scorer, error) {
	tileStore, err := newTileStore(v)
	if err != nil {
		return nil, err
	}
	pixelCountMode, err := coverage.ParsePixelCountMode(v.GetString("pixel-count"))
	if err != nil {
		return nil, err
	}
	tileScorer, err := coverage.NewTileScorer(tileStore, v.GetInt("zoom"),
		coverage.WithCacheEnabled(v.GetBool("cache")),
		coverage.WithCacheSize(v.GetInt("cache-size")),
		coverage.WithPixelCountMode(pixelCountMode),
	)
	if err != nil {
		return nil, err
	}
	haversineMode := coverage.HaversineDegreesCosine
	if v.GetBool("radians-cosine") {
		haversineMode = coverage.HaversineRadiansCosine
	}
	return coverage.NewScorer(tileScorer,
		coverage.WithHaversineMode(haversineMode),
		coverage.WithLogger(logger),
	), nil
}

func parseLatLngArgs(args []string) (coverage.LatLng, error) {
	return coverage.ParseLatLng(strings.Join(args, " "))
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.Any("err", err))
		}
	}()
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return newRootCmd(viper.New()).ExecuteContext(ctx)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
