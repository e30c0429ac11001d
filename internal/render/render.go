package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"pnginfo/internal/parser"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const Title = "Image Prompt & Settings"

// Field is one labelled entry of the info view.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

type View struct {
	Title  string
	Fields []Field
}

// displayed are the keys shown as their own field; everything else lands in
// "Other Params".
var displayed = map[string]struct{}{
	parser.KeyPrompt: {}, parser.KeyNegativePrompt: {}, parser.KeySteps: {},
	parser.KeySeed: {}, parser.KeySampler: {}, parser.KeyCFGScale: {},
	parser.KeyWidth: {}, parser.KeyHeight: {}, parser.KeyClipSkip: {},
	parser.KeyModel: {}, parser.KeyModelHash: {}, parser.KeyHiresUpscaler: {},
	parser.KeyHiresUpscale: {}, parser.KeyDenoisingStrength: {},
}

// Build lays a record out the way the chat embed shows it.
func Build(rec parser.Record) View {
	v := View{Title: Title}
	add := func(name, value string, inline bool) {
		v.Fields = append(v.Fields, Field{Name: name, Value: value, Inline: inline})
	}
	addIf := func(name string, key parser.Key) {
		if value, ok := rec.Get(key); ok {
			add(name, value, true)
		}
	}

	add("Prompt", rec.Value(parser.KeyPrompt), false)
	add("Negative Prompt", rec.Value(parser.KeyNegativePrompt), false)
	addIf("Seed", parser.KeySeed)
	addIf("Sampler", parser.KeySampler)
	addIf("CFG Scale", parser.KeyCFGScale)
	if w, h, ok := rec.Size(); ok {
		add("Image Size", w+"x"+h, true)
	}
	addIf("Steps", parser.KeySteps)
	addIf("Clip Skip", parser.KeyClipSkip)

	if rec.Has(parser.KeyHiresUpscaler) {
		add("Hires. Fix", "On", true)
		addIf("Hires. Upscaler", parser.KeyHiresUpscaler)
		addIf("Hires. Upscale", parser.KeyHiresUpscale)
		addIf("Denoising Strength", parser.KeyDenoisingStrength)
	} else {
		add("Hires. Fix", "Off", true)
	}

	if model, ok := rec.Get(parser.KeyModel); ok {
		name := "Model"
		if strings.Contains(model, "XL") {
			name = "Model (XL)"
		}
		add(name, model, true)
	}
	addIf("Model Hash", parser.KeyModelHash)

	add("Other Params", OtherParams(rec), false)
	return v
}

// OtherParams joins every entry not given its own field as "key: value".
func OtherParams(rec parser.Record) string {
	rest := lo.Filter(rec.Fields(), func(f parser.Field, _ int) bool {
		_, shown := displayed[f.Key]
		return !shown
	})
	return strings.Join(lo.Map(rest, func(f parser.Field, _ int) string {
		return fmt.Sprintf("%s: %s", f.Key, f.Value)
	}), ", ")
}

type Options struct {
	Color bool
}

// Text writes the view as a two column table.
func Text(w io.Writer, v View, opts Options) {
	title := v.Title
	if opts.Color {
		title = color.New(color.FgMagenta, color.OpBold).Render(title)
	}
	fmt.Fprintln(w, title)

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	for _, f := range v.Fields {
		name := f.Name
		if opts.Color {
			name = color.New(color.FgCyan).Render(name)
		}
		table.Append([]string{name, f.Value})
	}
	table.Render()
}

// JSON writes the record as indented JSON.
func JSON(w io.Writer, rec parser.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
