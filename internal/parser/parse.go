package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"pnginfo/png"
)

// ErrNoParameters means an image carries no generation metadata this package knows.
var ErrNoParameters = errors.New("no generation parameters found")

// Text chunk keywords written by the supported generators.
const (
	ChunkParameters  = "parameters"
	ChunkComfyPrompt = "prompt"
	ChunkSoftware    = "Software"
	ChunkComment     = "Comment"
	ChunkDescription = "Description"

	novelAISoftware = "NovelAI"
)

// ParseChunks picks the generation metadata out of an image's text chunks and
// parses it. It returns the Record and the raw text it was built from.
func (p *Parser) ParseChunks(chunks map[string]string) (Record, string, error) {
	if raw, ok := chunks[ChunkParameters]; ok {
		return p.Parse(raw), raw, nil
	}

	if raw, ok := chunks[ChunkComfyPrompt]; ok {
		if _, err := png.ParseChunkJSON(raw); err != nil {
			return Record{}, raw, fmt.Errorf("comfyui prompt chunk: %w", err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, []byte(raw)); err != nil {
			return Record{}, raw, fmt.Errorf("comfyui prompt chunk: %w", err)
		}
		rec := newRecord(UIComfyUI)
		rec.set(KeyComfyUIParams, compact.String())
		return *rec, raw, nil
	}

	if chunks[ChunkSoftware] == novelAISoftware {
		if raw, ok := chunks[ChunkComment]; ok {
			rec := newRecord(UINovelAI)
			if desc, ok := chunks[ChunkDescription]; ok {
				rec.set(KeyPrompt, desc)
			}
			rec.set(KeyNovelAIParams, raw)
			return *rec, raw, nil
		}
	}

	return Record{}, "", ErrNoParameters
}

// ParseFile extracts the text chunks of a PNG file and parses them.
func (p *Parser) ParseFile(path string) (Record, string, error) {
	chunks, err := png.ExtractTextChunks(path)
	if err != nil {
		return Record{}, "", fmt.Errorf("error extracting chunks: %w", err)
	}
	rec, raw, err := p.ParseChunks(chunks)
	if err != nil {
		return Record{}, raw, fmt.Errorf("%s: %w", path, err)
	}
	return rec, raw, nil
}

// ParseFile is Parser.ParseFile with the default logger.
func ParseFile(path string) (Record, string, error) { return New(nil).ParseFile(path) }
