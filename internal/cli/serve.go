package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okravets/shepard/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer over HTTP",
	Long: `Serve exposes analysis over a REST API:

  POST   /api/analyses          run an analysis
  GET    /api/analyses/{root}   fetch a cached tree
  DELETE /api/analyses/{root}   clear a cached tree
  GET    /api/assessments/{id}  fetch a cached assessment
  GET    /health                liveness check

Example:
  shepard serve
  shepard serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := server.New(server.Options{
		Analyzer:     c.analyzer,
		Logger:       c.logger,
		DefaultDepth: cfg.Analysis.DefaultDepth,
		MaxDepth:     cfg.Analysis.MaxDepth,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Listening on %s\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
