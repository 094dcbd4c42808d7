package main

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twpayne/go-coverage"
)

func newNeighborhoodCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "neighborhood latitude longitude",
		Short: "Print the tiles sampled for a coordinate as GeoJSON",
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
			samples, score, err := scorer.Samples(cmd.Context(), coord)
			if err != nil {
				return err
			}
			featureCollection := samplesFeatureCollection(samples, scorer.Zoom())
			featureCollection.ExtraMembers = geojson.Properties{
				"lat":   coord.Lat,
				"lng":   coord.Lng,
				"score": score,
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(featureCollection)
		},
	}
}

// samplesFeatureCollection returns a feature for each sample, with the tile
// bounds as geometry.
func samplesFeatureCollection(samples []coverage.Sample, zoom int) *geojson.FeatureCollection {
	featureCollection := geojson.NewFeatureCollection()
	for _, sample := range samples {
		bound := coverage.BoundsForTile(sample.Tile, zoom).Bound()
		feature := geojson.NewFeature(bound.ToPolygon())
		feature.Properties = geojson.Properties{
			"x":        sample.Tile.X,
			"y":        sample.Tile.Y,
			"z":        zoom,
			"distance": sample.Distance,
			"rawScore": sample.RawScore,
			"weight":   sample.Weight,
			"score":    sample.Score,
			"kept":     sample.Kept,
		}
		featureCollection.Append(feature)
	}
	return featureCollection
}
