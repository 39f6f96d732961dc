package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract <doc-id>",
	Short: "Run structured extraction over an ingested document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "extract")
		if err != nil {
			return err
		}
		defer env.Close()

		doc, err := env.Store.GetDocument(ctx, args[0])
		if err != nil {
			return err
		}

		result, err := env.Pipeline.Run(ctx, doc)
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		zap.L().Info("extraction complete",
			zap.String("record_id", result.Record.ID),
			zap.Int("passes", result.Run.Passes),
			zap.Strings("missing", result.Record.Missing),
			zap.Float64("cost_usd", result.Run.Usage.Cost),
		)

		if extractJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result.Record)
		}
		cmd.Println(result.Record.ID)
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the finalized record as JSON")
	rootCmd.AddCommand(extractCmd)
}
