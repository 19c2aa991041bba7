package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/metrics"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/server"
)

var (
	serveAddr    string
	serveCORS    bool
	serveTimeout time.Duration
	serveDebug   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lesson generation HTTP API",
	Long: `Serve lesson generation over HTTP.

Endpoints:
  POST   /api/v1/lessons               generate a lesson
  GET    /api/v1/lessons               list archived lessons
  GET    /api/v1/lessons/:id           archived lesson with task results
  DELETE /api/v1/lessons/:id           delete an archived lesson
  GET    /api/v1/sessions              list live sessions
  GET    /api/v1/sessions/:id          session progress
  POST   /api/v1/sessions/:id/resume   rerun failed tasks
  GET    /metrics                      Prometheus metrics
  GET    /healthz                      liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", false, "Enable CORS (default from config)")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 10*time.Minute, "Limit for one generate or resume request")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Log every request")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog := setupDebugLog(cfg)
	defer closeLog()

	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("cors") {
		cfg.Server.CORS = serveCORS
	}

	m := metrics.MustNewMetrics(prometheus.DefaultRegisterer)
	a, err := newApp(cfg, m, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.svc, server.Config{
		Addr:            cfg.Server.Addr,
		CORS:            cfg.Server.CORS,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Debug:           serveDebug,
		GenerateTimeout: serveTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	printStatus("✓", fmt.Sprintf("Serving on %s", cfg.Server.Addr), color.FgGreen)
	if a.archive == nil {
		printStatus("⚠", "Lesson archive disabled", color.FgYellow)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
		return err
	}
	return <-errCh
}
