package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carepilot/docintel/internal/ingest"
	"github.com/carepilot/docintel/internal/model"
)

var (
	ingestUser  string
	ingestType  string
	ingestDocID string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document: extract text, chunk, embed, index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Ingestor.Ingest(ctx, ingest.Request{
			Path:    args[0],
			UserID:  ingestUser,
			DocType: model.DocumentType(ingestType),
			DocID:   ingestDocID,
		})
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		zap.L().Info("ingest complete",
			zap.String("doc_id", res.Document.ID),
			zap.String("name", res.Document.Name),
			zap.Int("chunks", res.Document.NumChunks),
			zap.Int("vectors", res.Vectors),
		)
		cmd.Println(res.Document.ID)
		return nil
	},
}

var deleteDocCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document and its index vectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Ingestor.Delete(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("document deleted", zap.String("doc_id", args[0]))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "owner user id (required)")
	ingestCmd.Flags().StringVar(&ingestType, "type", string(model.DocTypePlan), "document type: plan_document, eob, lab_report")
	ingestCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "re-ingest an existing document id")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(deleteDocCmd)
}
