package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"pnginfo/internal/config"
	"pnginfo/internal/database"
	"pnginfo/internal/loader"
	"pnginfo/internal/logging"
	"pnginfo/internal/parser"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run() error {
	fromConfig := flag.String("config", "", "Path to config file")
	file := flag.String("file", "", "Path to a PNG file")
	dir := flag.String("dir", "", "Path to a directory containing PNG files")
	dbpath := flag.String("db", "", "Path to a sqlite or duckdb database (use .sqlite/.db for SQLite, .duckdb for DuckDB)")
	flag.Parse()

	cfg, err := config.LoadConfig(*fromConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.Log.Level, os.Stderr)
	slog.SetDefault(log)

	if *file != "" && *dir != "" {
		flag.Usage()
		return fmt.Errorf("please provide either a file or directory, not both")
	}
	dirs := cfg.PromptExtractPaths()
	if *dir != "" {
		dirs = []string{*dir}
	}
	if *file == "" && len(dirs) == 0 {
		flag.Usage()
		return fmt.Errorf("missing file or directory")
	}
	if *dbpath != "" {
		cfg.DB.Path = *dbpath
	}

	store, err := database.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l := newLoader(store, cfg, log)
	if *file != "" {
		return loadFile(ctx, os.Stdout, l, *file)
	}
	for _, d := range dirs {
		if err := loadDirectory(ctx, os.Stdout, l, d); err != nil {
			return err
		}
	}
	fmt.Println("Done!")
	return nil
}

func newLoader(store loader.Store, cfg config.Config, log *slog.Logger) *loader.Loader {
	return &loader.Loader{
		Store:     store,
		Parser:    parser.New(log),
		Workers:   cfg.Load.Workers,
		BatchSize: cfg.Load.BatchSize,
		Log:       log,
	}
}

// loadFile stores a single PNG. A file that is already stored is skipped.
func loadFile(ctx context.Context, w io.Writer, l *loader.Loader, file string) error {
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	sum, err := l.Run(ctx, []string{file})
	if err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}
	report(w, file, sum)
	return nil
}

func loadDirectory(ctx context.Context, w io.Writer, l *loader.Loader, dir string) error {
	paths, err := loader.PNGPaths(dir)
	if err != nil {
		return fmt.Errorf("error getting PNG paths: %w", err)
	}
	sum, err := l.Run(ctx, paths)
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}
	report(w, dir, sum)
	return nil
}

func report(w io.Writer, target string, sum loader.Summary) {
	fmt.Fprintf(w, "%s: found %d, skipped %d, processed %d, failed %d\n",
		target, sum.Found, sum.Skipped, sum.Processed, sum.Failed)
}
