package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carepilot/docintel/internal/kb"
	"github.com/carepilot/docintel/pkg/pinecone"
)

var kbPurgeKind string

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the shared knowledge-base namespace",
}

var kbSeedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Seed CPT/ICD-10/LOINC codes and policies from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("kb"); err != nil {
			return err
		}
		seeder := kb.New(cfg, initEmbedder(), pinecone.NewClient(cfg.Pinecone.Key, cfg.Pinecone.IndexHost))

		n, err := seeder.Seed(ctx, args[0])
		if err != nil {
			return err
		}
		zap.L().Info("knowledge base seeded", zap.Int("entries", n))
		return nil
	},
}

var kbPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete knowledge-base entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("kb"); err != nil {
			return err
		}
		seeder := kb.New(cfg, initEmbedder(), pinecone.NewClient(cfg.Pinecone.Key, cfg.Pinecone.IndexHost))

		if err := seeder.Purge(ctx, kbPurgeKind); err != nil {
			return err
		}
		zap.L().Info("knowledge base purged", zap.String("kind", kbPurgeKind))
		return nil
	},
}

func init() {
	kbPurgeCmd.Flags().StringVar(&kbPurgeKind, "kind", "", "entry kind to purge (empty purges all)")
	kbCmd.AddCommand(kbSeedCmd)
	kbCmd.AddCommand(kbPurgeCmd)
	rootCmd.AddCommand(kbCmd)
}
