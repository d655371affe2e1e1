package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/nightwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nightwatch",
	Short: "Night-time safety scoring for Indian metros",
	Long:  "Resolves a place name, gathers streetlight, accident and police-proximity signals, and serves a composite safety score with a classified label and heatmap.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
