package parser

import (
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

// Format is the encoding a raw metadata string was detected as.
type Format int

const (
	// FormatNone is blank input; there is nothing to parse.
	FormatNone Format = iota
	FormatWebUI
	FormatSwarmUI
)

func (f Format) String() string {
	switch f {
	case FormatWebUI:
		return "webui"
	case FormatSwarmUI:
		return "swarmui"
	default:
		return "none"
	}
}

const swarmParamsKey = "sui_image_params"

// Detect decides which parsing path owns raw. Anything that is not a JSON
// object carrying sui_image_params belongs to the WebUI text parser.
func Detect(raw string) Format {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FormatNone
	}
	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) &&
		gjson.Get(trimmed, swarmParamsKey).Exists() {
		return FormatSwarmUI
	}
	return FormatWebUI
}

// Parser turns raw generation metadata into a Record. It holds no mutable
// state, so one Parser may be shared between goroutines.
type Parser struct {
	log *slog.Logger
}

// New returns a Parser that reports dropped tokens and unusable fields to log.
// A nil log falls back to slog.Default().
func New(log *slog.Logger) *Parser {
	return &Parser{log: log}
}

func (p *Parser) logger() *slog.Logger {
	if p == nil || p.log == nil {
		return slog.Default()
	}
	return p.log
}

// Parse detects the encoding of raw and normalizes it. Blank input yields an
// empty Record.
func (p *Parser) Parse(raw string) Record {
	switch Detect(raw) {
	case FormatSwarmUI:
		return p.ParseSwarmUI(raw)
	case FormatWebUI:
		return p.ParseWebUI(raw)
	default:
		return *newRecord(UIUnknown)
	}
}

// Parse is Parser.Parse with the default logger.
func Parse(raw string) Record { return New(nil).Parse(raw) }

// ParseWebUI is Parser.ParseWebUI with the default logger.
func ParseWebUI(raw string) Record { return New(nil).ParseWebUI(raw) }

// ParseSwarmUI is Parser.ParseSwarmUI with the default logger.
func ParseSwarmUI(raw string) Record { return New(nil).ParseSwarmUI(raw) }
