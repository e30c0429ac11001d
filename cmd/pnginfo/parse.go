package main

import (
	"fmt"
	"io"

	"pnginfo/internal/render"

	"github.com/spf13/cobra"
)

var parseText string

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse raw parameter text from --text or stdin",
	Args:  cobra.NoArgs,
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseText, "text", "", "parameter text (default: read stdin)")
}

func runParse(cmd *cobra.Command, _ []string) error {
	cfg, p, err := setup()
	if err != nil {
		return err
	}
	raw := parseText
	if raw == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = string(data)
	}

	rec := p.Parse(raw)
	if flags.JSON {
		return render.JSON(cmd.OutOrStdout(), rec)
	}
	render.Text(cmd.OutOrStdout(), render.Build(rec), renderOptions(cfg))
	return nil
}
