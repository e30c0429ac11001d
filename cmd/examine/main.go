package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"pnginfo/internal/config"
	"pnginfo/internal/database"
	"pnginfo/internal/logging"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(v string, _ int) string {
		return strings.TrimSpace(v)
	}))
}

func run() error {
	fromConfig := flag.String("config", "", "Path to config file")
	dbpath := flag.String("db", "", "Path to a sqlite or duckdb database")
	path := flag.String("path", "", "Show the stored record for one file")
	models := flag.String("model", "", "Comma separated models to filter on")
	samplers := flag.String("sampler", "", "Comma separated samplers to filter on")
	ui := flag.String("ui", "", "UI type to filter on (webui, swarmui, comfyui, novelai)")
	limit := flag.Int("limit", 10, "Maximum rows to list")
	random := flag.Bool("random", false, "Pick rows at random")
	count := flag.String("count", "", "Histogram by column (model, sampler, ui_type)")
	flag.Parse()

	cfg, err := config.LoadConfig(*fromConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.New(cfg.Log.Level, os.Stderr))
	if *dbpath != "" {
		cfg.DB.Path = *dbpath
	}
	if _, err := os.Stat(cfg.DB.Path); err != nil {
		flag.Usage()
		return fmt.Errorf("missing database: %w", err)
	}

	store, err := database.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch {
	case *path != "":
		row, err := store.Get(ctx, *path)
		if err != nil {
			return err
		}
		return printRow(os.Stdout, row)
	case *count != "":
		counts, err := store.CountBy(ctx, *count)
		if err != nil {
			return err
		}
		printCounts(os.Stdout, *count, counts)
		return nil
	default:
		rows, err := store.Find(ctx, database.FindOptions{
			Models:   splitList(*models),
			Samplers: splitList(*samplers),
			UIType:   *ui,
			Limit:    *limit,
			Random:   *random,
		})
		if err != nil {
			return err
		}
		printRows(os.Stdout, rows)
		return nil
	}
}

func printRow(w io.Writer, row database.Row) error {
	fmt.Fprintf(w, "File: %s\n", row.FilePath)
	if row.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", row.Error)
		return nil
	}
	var params json.RawMessage = []byte(row.Params)
	pretty, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting params for %s: %w", row.FilePath, err)
	}
	fmt.Fprintf(w, "Params:\n%s\n", pretty)
	return nil
}

func printRows(w io.Writer, rows []database.Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "UI", "Model", "Sampler", "Steps", "Seed", "Size"})
	table.SetAutoWrapText(false)
	for _, r := range rows {
		size := ""
		if r.Width != "" && r.Height != "" {
			size = r.Width + "x" + r.Height
		}
		table.Append([]string{r.FilePath, r.UIType, r.Model, r.Sampler, r.Steps, r.Seed, size})
	}
	table.SetFooter([]string{"", "", "", "", "", "Rows", strconv.Itoa(len(rows))})
	table.Render()
}

func printCounts(w io.Writer, column string, counts []database.Count) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{column, "Count"})
	for _, c := range counts {
		table.Append([]string{c.Value, strconv.FormatInt(c.Count, 10)})
	}
	table.Render()
}
