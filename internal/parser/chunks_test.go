package parser_test

import (
	"testing"

	"pnginfo/internal/parser"
	"pnginfo/png"
	"pnginfo/png/pngtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChunksParameters(t *testing.T) {
	rec, raw, err := parser.New(nil).ParseChunks(map[string]string{
		"parameters": webuiSample,
		"prompt":     `{"ignored": true}`,
	})
	require.NoError(t, err)
	assert.Equal(t, webuiSample, raw)
	assert.Equal(t, parser.UIWebUI, rec.UIType)
	assert.Equal(t, "12345", rec.Value(parser.KeySeed))
}

func TestParseChunksComfyUI(t *testing.T) {
	rec, _, err := parser.New(nil).ParseChunks(map[string]string{
		"prompt":   "{\n  \"3\": {\"class_type\": \"KSampler\"}\n}",
		"workflow": `{"nodes": []}`,
	})
	require.NoError(t, err)
	assert.Equal(t, parser.UIComfyUI, rec.UIType)
	assert.Equal(t, `{"3":{"class_type":"KSampler"}}`, rec.Value(parser.KeyComfyUIParams))
}

func TestParseChunksComfyUIInvalid(t *testing.T) {
	_, _, err := parser.New(nil).ParseChunks(map[string]string{"prompt": "not json"})
	require.Error(t, err)
}

func TestParseChunksNovelAI(t *testing.T) {
	rec, raw, err := parser.New(nil).ParseChunks(map[string]string{
		"Software":    "NovelAI",
		"Description": "1girl, solo",
		"Comment":     `{"steps": 28, "sampler": "k_euler"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"steps": 28, "sampler": "k_euler"}`, raw)
	assert.Equal(t, parser.UINovelAI, rec.UIType)
	assert.Equal(t, "1girl, solo", rec.Value(parser.KeyPrompt))
	assert.Equal(t, raw, rec.Value(parser.KeyNovelAIParams))
}

func TestParseChunksNothing(t *testing.T) {
	_, _, err := parser.New(nil).ParseChunks(map[string]string{"Software": "GIMP"})
	require.ErrorIs(t, err, parser.ErrNoParameters)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := pngtest.WriteFile(t, dir, "a.png", pngtest.InternationalText("parameters", swarmSample, true))

	rec, raw, err := parser.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, swarmSample, raw)
	assert.Equal(t, parser.UISwarmUI, rec.UIType)

	empty := pngtest.WriteFile(t, dir, "b.png")
	_, _, err = parser.ParseFile(empty)
	require.ErrorIs(t, err, png.ErrNoTextChunks)
}
