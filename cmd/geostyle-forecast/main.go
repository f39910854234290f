package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peternara/geostyle/internal/config"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "geostyle-forecast",
		Short: "Forecast weekly style trend panels",
		Long: `Fits a linear and a sinusoidal-linear model to every series of a trend panel,
selects one per series and forecasts the held out window.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML)")

	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(simulateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig loads the configuration and installs the configured slog handler writing to w
func loadConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load config, %w", err)
	}
	if err := setupLogging(cfg.Logging, w); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig, w io.Writer) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	hOpt := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, hOpt)
	} else {
		h = slog.NewTextHandler(w, hOpt)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
