package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tingly-dev/copilot-bridge/internal/config"
	"github.com/tingly-dev/copilot-bridge/internal/server"
	"github.com/tingly-dev/copilot-bridge/internal/server/background"
)

// Set by compiler via -ldflags
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "copilot-bridge",
	Short: "Anthropic/OpenAI proxy over the GitHub Copilot chat backend",
	Long: `copilot-bridge is a local reverse proxy that exposes Anthropic Messages
and OpenAI Chat Completions endpoints, translating between the two protocols
and serving both from GitHub Copilot's chat API.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logrus.SetLevel(logrus.TraceLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("copilot-bridge\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Git Commit: %s\n", gitCommit)
			fmt.Printf("Build Time: %s\n", buildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

func run() error {
	cfg := config.FromEnv()
	srv := server.NewServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.GitHubToken != "" {
		if _, err := srv.Tokens().GetCopilotToken(ctx, cfg.GitHubToken); err != nil {
			return fmt.Errorf("initial token exchange failed: %w", err)
		}
		logrus.Info("initial copilot token exchange succeeded")

		if err := srv.PrefetchModels(ctx); err != nil {
			logrus.Warnf("startup model prefetch failed, will retry on demand: %v", err)
		}

		refresher := background.NewTokenRefresher(srv.Tokens(), cfg.GitHubToken)
		go refresher.Start(ctx)
		defer refresher.Stop()
	} else {
		logrus.Info("no default GitHub token configured, requests must carry their own")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start(cfg.Port)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
