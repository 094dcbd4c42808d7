package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newScoreCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "score latitude longitude",
		Short: "Print the coverage density score of a coordinate",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := parseLatLngArgs(args)
			if err != nil {
				return err
			}
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			scorer, err := newScorer(v, logger)
			if err != nil {
				return err
			}
			score, err := scorer.Score(cmd.Context(), coord)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), score)
			return err
		},
	}
}
