package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/evaluator"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP evaluation endpoint",
	Long: `Serve evaluation requests over HTTP.

POST /api/v1/evaluate  {"ticker": "AAPL", "allow_append": true, "dry_run": false}
GET  /healthz

Promotion writes are serialized per process so concurrent requests cannot race
for the same blank dashboard row.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		ev, store, err := buildEvaluator(ctx, cfg, cfg.Gate)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		// One reconciliation at a time; the promotion protocol assumes a
		// single writer per ledger.
		var mu sync.Mutex

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/api/v1/evaluate", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Ticker      string `json:"ticker"`
				AllowAppend bool   `json:"allow_append"`
				DryRun      bool   `json:"dry_run"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Ticker == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ticker is required"})
				return
			}

			runID := newRunID()

			mu.Lock()
			result, err := ev.Evaluate(req.Context(), body.Ticker, evaluator.Options{
				AllowAppend: body.AllowAppend,
				DryRun:      body.DryRun,
				RunID:       runID,
			})
			mu.Unlock()

			if err != nil {
				zap.L().Error("evaluation request failed",
					zap.String("ticker", body.Ticker),
					zap.String("run_id", runID),
					zap.Error(err),
				)
				writeJSON(w, http.StatusBadGateway, map[string]string{
					"error":  err.Error(),
					"run_id": runID,
				})
				return
			}

			writeJSON(w, http.StatusOK, result)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// writeJSON encodes before touching the response so an encoding failure can
// still produce a 500 instead of a truncated 200 body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("encode response body", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, `{"error":"response encoding failed"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
