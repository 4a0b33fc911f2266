package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadapter "svw.info/numbermaster/internal/adapters/http"
	"svw.info/numbermaster/internal/config"
	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/logging"
	"svw.info/numbermaster/web"
)

const shutdownTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser game and its JSON API",
	Long: `Serve the browser game and its JSON API.

Open sessions are saved when the server shuts down. Changes to the log
level in the config file apply without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func newMux(h *httpadapter.Handler) *http.ServeMux {
	tmpl := web.Templates()
	page := web.Page{Title: "Number Master", Version: version, Columns: domain.Columns}

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(web.StaticFS())))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, "index.tmpl", page); err != nil {
			http.Error(w, template.HTMLEscapeString(err.Error()), http.StatusInternalServerError)
		}
	})
	h.Register(mux)
	return mux
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	svc, closeStore, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}()

	h := httpadapter.New(svc, cfg.GetSolverTimeout(), logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpadapter.RequestLogger(logger, newMux(h)),
		ReadHeaderTimeout: cfg.GetReadHeaderTimeout(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", addr), zap.String("store", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		n := svc.SuspendAll(shutdownCtx)
		logger.Info("Server stopped", zap.Int("saved_sessions", n))
		return err
	})
	g.Go(func() error {
		err := config.Watch(gctx, cfgPath, logger, func(c *config.Config) {
			if cmd.Flags().Changed("log-level") {
				return
			}
			if lvl, err := logging.ParseLevel(c.Logging.Level); err == nil {
				logLevelAtom.SetLevel(lvl)
			}
		})
		if err != nil {
			logger.Warn("Config watch disabled", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
