package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twpayne/go-coverage"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Score every coordinate from a database or coordinate list",
		Long: `Score every coordinate and store the scores.

With --db, coordinates are read from the rounds table of a SQLite database
and scores are written to its streetview_coverage column. Otherwise
coordinates are read as "lat,lng" lines from --input (default stdin) and
"lat,lng,score" lines are written to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			scorer, err := newScorer(v, logger)
			if err != nil {
				return err
			}
			if addr := v.GetString("metrics-addr"); addr != "" {
				serveMetrics(addr, logger)
			}

			var source coverage.CoordinateSource
			var sink coverage.ScoreSink
			switch dbPath, input := v.GetString("db"), v.GetString("input"); {
			case dbPath != "" && input != "":
				return errors.New("--db and --input are mutually exclusive")
			case dbPath != "":
				rounds, err := coverage.OpenRounds(dbPath,
					coverage.WithOnlyUnscored(v.GetBool("only-unscored")),
					coverage.WithCommitEvery(v.GetInt("commit-every")),
				)
				if err != nil {
					return err
				}
				defer rounds.Close()
				source, sink = rounds, rounds
			case input != "" && input != "-":
				file, err := os.Open(input)
				if err != nil {
					return err
				}
				defer file.Close()
				source, sink = coverage.NewLineSource(file), coverage.NewWriterSink(cmd.OutOrStdout())
			default:
				source, sink = coverage.NewLineSource(cmd.InOrStdin()), coverage.NewWriterSink(cmd.OutOrStdout())
			}

			stats, err := coverage.Run(ctx, scorer, source, sink, coverage.RunOptions{
				Workers:       v.GetInt("workers"),
				ProgressEvery: v.GetInt("progress-every"),
				Logger:        logger,
			})
			if err != nil {
				return fmt.Errorf("scored %d of %d coordinates: %w", stats.Scored, stats.Coordinates, err)
			}
			return nil
		},
	}

	flags := runCmd.Flags()
	flags.String("db", "", "path to SQLite database with a rounds table")
	flags.String("input", "", "path to coordinate list, - for stdin")
	flags.Bool("only-unscored", false, "only score coordinates without a stored score")
	flags.Int("commit-every", coverage.DefaultCommitEvery, "number of scores per database transaction")
	flags.Int("workers", 0, "number of concurrent scorers, 0 for GOMAXPROCS")
	flags.Int("progress-every", 10000, "log progress every this many coordinates")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	return runCmd
}
