package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scorePlace string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single place and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.Score(ctx, scorePlace)
		if err != nil {
			return eris.Wrap(err, "score place")
		}

		zap.L().Info("score complete",
			zap.String("place", result.Place),
			zap.Float64("score", result.Score),
			zap.String("label", result.Label),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scorePlace, "place", "", "place name to score (required)")
	_ = scoreCmd.MarkFlagRequired("place")
	rootCmd.AddCommand(scoreCmd)
}
