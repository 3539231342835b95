package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trondarild/ConCart/internal/export"
	"github.com/trondarild/ConCart/internal/kb"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base as a read-only JSON API",
	Long: `Exposes the four tables over HTTP for inspection and downstream
tooling. The server never writes; run the pipelines from the CLI.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		// Fail fast on missing tables before binding the port.
		if _, err := loadTables(ctx, store); err != nil {
			return err
		}

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]string{"status": "ok"})
		})
		r.Get("/api/papers", tableHandler(store, func(t export.Tables) any { return t.Papers }))
		r.Get("/api/objects", tableHandler(store, func(t export.Tables) any { return t.Objects }))
		r.Get("/api/morphisms", tableHandler(store, func(t export.Tables) any { return t.Morphisms }))
		r.Get("/api/evidence", tableHandler(store, func(t export.Tables) any { return t.Evidence }))
		r.Get("/api/stats", func(w http.ResponseWriter, req *http.Request) {
			t, err := loadTables(req.Context(), store)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			unresolved := 0
			for _, p := range t.Papers {
				if !p.Resolved() {
					unresolved++
				}
			}
			writeJSON(w, map[string]int{
				"papers":        len(t.Papers),
				"papers_no_url": unresolved,
				"objects":       len(t.Objects),
				"morphisms":     len(t.Morphisms),
				"evidence":      len(t.Evidence),
			})
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		zap.L().Info("serving knowledge base", zap.Int("port", port))

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "serve: shutdown")
		case err := <-errCh:
			if err == http.ErrServerClosed {
				return nil
			}
			return eris.Wrap(err, "serve: listen")
		}
	},
}

// tableHandler reads one table fresh per request, so the API reflects
// pipeline runs without restarting the server.
func tableHandler(store kb.Store, pick func(export.Tables) any) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		t, err := loadTables(req.Context(), store)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, pick(t))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	addTableFlags(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
