package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/galaxygroups/internal/api"
	"github.com/banshee-data/galaxygroups/internal/db"
	"github.com/banshee-data/galaxygroups/internal/monitoring"
)

type serveOptions struct {
	dbPath string
	listen string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored results as JSON and over the tailsql debug console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.dbPath, "db", "fof.db", "sqlite results database")
	cmd.Flags().StringVar(&opts.listen, "listen", "127.0.0.1:8089", "listen address")
	return cmd
}

func newServeMux(store *db.DB) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	api.NewServer(store).Register(mux)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/debug/", http.StatusFound)
	})
	return mux, nil
}

func serve(ctx context.Context, opts *serveOptions) error {
	store, err := db.NewDB(opts.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	mux, err := newServeMux(store)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              opts.listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("[Serve] Listening on http://%s/debug/ (db %s)", opts.listen, opts.dbPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		monitoring.Logf("[Serve] Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
