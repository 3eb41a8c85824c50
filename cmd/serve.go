package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kamusis/docidx/internal/live"
	"github.com/kamusis/docidx/internal/logging"
	"github.com/kamusis/docidx/internal/mcpserver"
	"github.com/kamusis/docidx/internal/metrics"
	"github.com/kamusis/docidx/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	flagServeListen string
	flagServeWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index over a JSON HTTP API",
	Long: `Serve lookups over HTTP:

  GET /api/v1/terms/{term}
  GET /api/v1/documents/{position}
  GET /api/v1/search?q=&limit=
  GET /api/v1/info
  GET /healthz
  GET /metrics

With --watch (the default from the config) the index file is reloaded when it
changes; a reload that fails keeps serving the previous index.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdio",
	Long: `Expose lookup_term, resolve_document and search_docs as Model Context
Protocol tools over stdin/stdout.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeListen, "listen", "", "Listen address (default from config, 127.0.0.1:8089)")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", true, "Reload the index when the file changes")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logging.WithComponent("serve")
	listen := appCfg.Listen
	if flagServeListen != "" {
		listen = flagServeListen
	}
	watch := appCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = flagServeWatch
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	holder, err := live.Open(ctx, appCfg.IndexPath, live.Options{
		Logger: log,
		OnReload: func(snap *live.Snapshot, status live.ReloadStatus, _ error) {
			m.IndexReloadsTotal.WithLabelValues(string(status)).Inc()
			if status == live.ReloadSwapped {
				m.ObserveIndex(snap.Generation, snap.Index.Len(), snap.Index.Stats().Terms)
			}
		},
	})
	if err != nil {
		return err
	}

	srv, err := server.New(holder, server.Options{
		CacheSize: appCfg.CacheSize,
		Metrics:   m,
		Gatherer:  reg,
		Logger:    logging.WithComponent("http"),
	})
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", listen, "documents", holder.Current().Index.Len())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if watch {
		g.Go(func() error { return holder.Watch(gctx) })
	}
	return g.Wait()
}

func runMCP(cmd *cobra.Command, _ []string) error {
	holder, err := live.Open(cmd.Context(), appCfg.IndexPath, live.Options{Logger: logging.WithComponent("mcp")})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if appCfg.Watch {
		go func() { _ = holder.Watch(ctx) }()
	}
	return mcpserver.New(holder, version).Run()
}
