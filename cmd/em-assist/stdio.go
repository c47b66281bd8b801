package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	emassist "github.com/cuboulder-se-research/em-assist"
	"github.com/cuboulder-se-research/em-assist/internal/log"
	"github.com/cuboulder-se-research/em-assist/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

Editors launch this as a subprocess and call the list_extract_function_candidates
tool over stdin and stdout. Logs go to stderr. Configuration is loaded from
environment variables and .env file, as for serve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd.Context(), envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(ctx context.Context, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// stdout carries the protocol.
	slogger := log.Configure(cfg, os.Stderr).Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("workspace_root", cfg.WorkspaceRoot()),
	)

	client, err := emassist.New(clientOptions(cfg, slogger)...)
	if err != nil {
		return fmt.Errorf("create em-assist client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, emassist.ErrClientClosed) {
			slogger.Error("failed to close em-assist client", slog.Any("error", err))
		}
	}()

	if err := client.Start(); err != nil {
		return fmt.Errorf("start em-assist client: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = mcp.NewServer(client, slogger).ServeStdio(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}
