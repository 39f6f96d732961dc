package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carepilot/docintel/internal/config"
)

var (
	cfg       *config.Config
	schemaDir string
)

var rootCmd = &cobra.Command{
	Use:   "docintel",
	Short: "Healthcare document intelligence backend",
	Long:  "Ingests insurance plan documents, EOBs and lab reports, indexes chunks in Pinecone, and extracts structured records via multi-pass Claude analysis.",
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

func init() {
	rootCmd.PersistentFlags().StringVar(&schemaDir, "schema-dir", "", "directory of extra schema set YAML files")
}
