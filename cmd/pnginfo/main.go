package main

import (
	"fmt"
	"log/slog"
	"os"

	"pnginfo/internal/config"
	"pnginfo/internal/logging"
	"pnginfo/internal/parser"
	"pnginfo/internal/render"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	ConfigPath string
	JSON       bool
	NoColor    bool
	LogLevel   string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:           "pnginfo",
	Short:         "Show the generation parameters embedded in AI-generated PNGs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().BoolVar(&flags.JSON, "json", false, "print records as JSON")
	rootCmd.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the default logger.
func setup() (config.Config, *parser.Parser, error) {
	cfg, err := config.LoadConfig(flags.ConfigPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Log.Level
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}
	log := logging.New(level, os.Stderr)
	slog.SetDefault(log)
	return cfg, parser.New(log), nil
}

func renderOptions(cfg config.Config) render.Options {
	return render.Options{Color: cfg.Render.Color && !flags.NoColor}
}
