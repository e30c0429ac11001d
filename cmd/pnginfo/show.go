package main

import (
	"fmt"
	"log/slog"
	"os"

	"pnginfo/internal/render"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <png...>",
	Short: "Print the parameters of one or more PNG files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, p, err := setup()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	failed := 0
	for i, path := range args {
		rec, _, err := p.ParseFile(path)
		if err != nil {
			slog.Error("error parsing file", "path", path, "error", err)
			failed++
			continue
		}
		if flags.JSON {
			if err := render.JSON(out, rec); err != nil {
				return err
			}
			continue
		}
		if len(args) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "File: %s\n", path)
		}
		render.Text(out, render.Build(rec), renderOptions(cfg))
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d files had no readable parameters\n", failed, len(args))
		return fmt.Errorf("failed to parse %d file(s)", failed)
	}
	return nil
}
