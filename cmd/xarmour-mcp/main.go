// Command xarmour-mcp serves the xarmour block pipeline as MCP tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/minfrin/xarmour"
	"github.com/minfrin/xarmour/internal/config"
	armourmcp "github.com/minfrin/xarmour/internal/mcp"
	"github.com/minfrin/xarmour/internal/report"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: xarmour.Name + "-mcp"})
	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd(logger *log.Logger) *cobra.Command {
	var (
		instructions bool
		httpAddr     string
		configPath   string
	)

	cmd := &cobra.Command{
		Use:           "xarmour-mcp",
		Short:         "Serve xarmour as an MCP server",
		Version:       xarmour.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if instructions {
				fmt.Fprint(cmd.OutOrStdout(), armourmcp.Instructions)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return serve(ctx, logger, configPath, httpAddr)
		},
	}
	cmd.Flags().BoolVar(&instructions, "instructions", false, "print model instructions and exit")
	cmd.Flags().StringVar(&httpAddr, "http", "", "start HTTP server on address (e.g. :9090)")
	cmd.Flags().StringVar(&configPath, "config", "", "configuration file")
	return cmd
}

func serve(ctx context.Context, logger *log.Logger, configPath, httpAddr string) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	level, err := log.ParseLevel(cfg.LogLevel())
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)

	store := report.NewLRUStore(5, report.NewDiskStore(cfg.StoreDir))
	server := armourmcp.NewServer(cfg, store, workspace, armourmcp.WithLogger(logger))

	if httpAddr != "" {
		return serveHTTP(ctx, logger, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, logger *log.Logger, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	logger.Info("listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
