package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ppiankov/strata/internal/api"
)

var (
	serveAddr    string
	serveRefresh string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sources, analysis and the ranked board over HTTP",
	Long: `Serve starts the HTTP API:

  GET  /health              liveness
  GET  /api/sources         enabled source names
  GET  /api/sources/:name   raw stories of one source (plain-text 500 on failure)
  POST /api/analyze         {"title": "...", "summary": "..."} -> analysis
  GET  /api/board           latest ranked board (?refresh=true reruns the cycle)

With --refresh the board is rebuilt on a cron schedule in the background.

Example:
  strata serve
  strata serve --addr :9090 --refresh "@every 15m"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
	serveCmd.Flags().StringVar(&serveRefresh, "refresh", "", "cron spec for background board refresh (empty: on demand only)")
	addLLMFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cmd, cfg)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	// Source endpoints keep working without a backend
	provider, err := newProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v (analysis endpoints disabled)\n", err)
	} else if err := checkProvider(context.Background(), provider); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v (analysis requests will fail until it is)\n", err)
	}

	p, err := newPipelineWith(cfg, provider)
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(p)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveRefresh != "" && provider != nil {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		if _, err := c.AddFunc(serveRefresh, func() {
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			if _, err := server.Refresh(runCtx); err != nil {
				slog.Error("scheduled refresh failed", "error", err)
				return
			}
			slog.Info("board refreshed")
		}); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", serveRefresh, err)
		}
		c.Start()
		defer c.Stop()
		fmt.Fprintf(os.Stderr, "✓ Refreshing board on schedule %q\n", serveRefresh)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(os.Stderr, "✓ Listening on %s\n", cfg.Server.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exit: %w", err)
	case <-ctx.Done():
	}

	fmt.Fprintf(os.Stderr, "Shutting down...\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
