package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carepilot/docintel/internal/ingest"
	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildMux(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func buildMux(env *appEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/documents", func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		docs, err := env.Store.ListDocuments(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	})

	mux.HandleFunc("POST /api/documents", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FilePath string `json:"file_path"`
			UserID   string `json:"user_id"`
			DocType  string `json:"doc_type"`
			DocID    string `json:"doc_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.FilePath == "" {
			writeError(w, http.StatusBadRequest, "file_path is required")
			return
		}

		res, err := env.Ingestor.Ingest(r.Context(), ingest.Request{
			Path:    req.FilePath,
			UserID:  req.UserID,
			DocType: model.DocumentType(req.DocType),
			DocID:   req.DocID,
		})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"document": res.Document,
			"vectors":  res.Vectors,
		})
	})

	mux.HandleFunc("POST /api/extract", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DocumentID string `json:"document_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DocumentID == "" {
			writeError(w, http.StatusBadRequest, "document_id is required")
			return
		}

		doc, err := env.Store.GetDocument(r.Context(), req.DocumentID)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		// Extraction takes minutes; the caller polls runs and records.
		// The request context dies when the handler returns, so detach.
		runCtx := context.WithoutCancel(r.Context())
		go func() {
			result, err := env.Pipeline.Run(runCtx, doc)
			if err != nil {
				zap.L().Error("api extraction failed",
					zap.String("doc_id", doc.ID), zap.Error(err))
				return
			}
			zap.L().Info("api extraction complete",
				zap.String("doc_id", doc.ID),
				zap.String("record_id", result.Record.ID))
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":      "accepted",
			"document_id": doc.ID,
		})
	})

	mux.HandleFunc("GET /api/runs", func(w http.ResponseWriter, r *http.Request) {
		docID := r.URL.Query().Get("document_id")
		if docID == "" {
			writeError(w, http.StatusBadRequest, "document_id is required")
			return
		}
		runs, err := env.Store.ListRuns(r.Context(), docID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	})

	mux.HandleFunc("GET /api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetRun(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	mux.HandleFunc("GET /api/records", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		records, err := env.Store.ListRecords(r.Context(), store.RecordFilter{
			UserID:     q.Get("user_id"),
			DocType:    model.DocumentType(q.Get("doc_type")),
			DocumentID: q.Get("document_id"),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records})
	})

	mux.HandleFunc("GET /api/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := env.Store.GetRecord(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	return mux
}
