package main

import (
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var batchUser string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract every ingested document for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "extract")
		if err != nil {
			return err
		}
		defer env.Close()

		docs, err := env.Store.ListDocuments(ctx, batchUser)
		if err != nil {
			return eris.Wrap(err, "list documents")
		}
		if len(docs) == 0 {
			zap.L().Info("no documents to extract", zap.String("user_id", batchUser))
			return nil
		}

		var succeeded, failed atomic.Int64
		eg, ctx := errgroup.WithContext(ctx)
		eg.SetLimit(cfg.Batch.MaxConcurrentDocs)

		for i := range docs {
			summary := docs[i]
			eg.Go(func() error {
				// listings omit text, so load the full row
				doc, err := env.Store.GetDocument(ctx, summary.ID)
				if err != nil {
					failed.Add(1)
					zap.L().Error("batch: load document failed",
						zap.String("doc_id", summary.ID), zap.Error(err))
					return nil
				}
				result, err := env.Pipeline.Run(ctx, doc)
				if err != nil {
					failed.Add(1)
					zap.L().Error("batch: extraction failed",
						zap.String("doc_id", doc.ID), zap.Error(err))
					return nil
				}
				succeeded.Add(1)
				zap.L().Info("batch: document extracted",
					zap.String("doc_id", doc.ID),
					zap.String("record_id", result.Record.ID),
					zap.Int("missing", len(result.Record.Missing)),
				)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		if failed.Load() > 0 {
			return eris.Errorf("batch: %d of %d documents failed", failed.Load(), int64(len(docs)))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchUser, "user", "", "owner user id (required)")
	_ = batchCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(batchCmd)
}
