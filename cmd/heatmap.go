package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	heatmapPlace  string
	heatmapFormat string
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Build the classified grid around a place and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		hm, err := env.Service.HeatmapFor(ctx, heatmapPlace)
		if err != nil {
			return eris.Wrap(err, "build heatmap")
		}

		zap.L().Info("heatmap complete",
			zap.String("place", hm.Place),
			zap.Int("points", len(hm.Points)),
		)

		switch heatmapFormat {
		case "geojson":
			raw, err := hm.GeoJSON()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(raw, '\n'))
			return err
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(hm)
		default:
			return eris.Errorf("unknown format %q (want json or geojson)", heatmapFormat)
		}
	},
}

func init() {
	heatmapCmd.Flags().StringVar(&heatmapPlace, "place", "", "place name to map (required)")
	heatmapCmd.Flags().StringVar(&heatmapFormat, "format", "json", "output format: json or geojson")
	_ = heatmapCmd.MarkFlagRequired("place")
	rootCmd.AddCommand(heatmapCmd)
}
