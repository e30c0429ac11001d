package png_test

import (
	"os"
	"path/filepath"
	"testing"

	"pnginfo/png"
	"pnginfo/png/pngtest"

	"github.com/stretchr/testify/require"
)

func TestExtractChunk(t *testing.T) {
	testFile := pngtest.WriteFile(t, t.TempDir(), "sample.png",
		pngtest.Text("prompt", `{"3": {"class_type": "KSampler"}}`),
		pngtest.Text("workflow", `{"nodes": []}`),
	)

	chunks, err := png.ExtractTextChunks(testFile)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	workflow_raw := chunks["workflow"]
	require.NotEmpty(t, workflow_raw)

	prompt_raw := chunks["prompt"]
	require.NotEmpty(t, prompt_raw)

	prompt, err := png.ParseChunkJSON(prompt_raw)
	require.NoError(t, err)
	require.NotEmpty(t, prompt)
}

func TestReadTextChunkKinds(t *testing.T) {
	data := pngtest.Build(
		pngtest.Text("parameters", "a cat\nSteps: 20, Seed: 1, Sampler: Euler"),
		pngtest.CompressedText("zkey", "compressed value"),
		pngtest.InternationalText("ikey", "ünïcode", false),
		pngtest.InternationalText("izkey", "ünïcode, squeezed", true),
	)

	chunks, err := png.ReadTextChunks(data)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"parameters": "a cat\nSteps: 20, Seed: 1, Sampler: Euler",
		"zkey":       "compressed value",
		"ikey":       "ünïcode",
		"izkey":      "ünïcode, squeezed",
	}, chunks)
}

func TestReadTextLatin1(t *testing.T) {
	data := pngtest.Build(pngtest.Chunk{Type: "tEXt", Data: []byte("k\x00caf\xe9")})

	chunks, err := png.ReadTextChunks(data)
	require.NoError(t, err)
	require.Equal(t, "café", chunks["k"])
}

func TestReadTextChunksErrors(t *testing.T) {
	_, err := png.ReadTextChunks([]byte("GIF89a"))
	require.ErrorIs(t, err, png.ErrNotPNG)

	_, err = png.ReadTextChunks(pngtest.Build())
	require.ErrorIs(t, err, png.ErrNoTextChunks)
}

func TestReadTextChunksSkipsUndecodableChunk(t *testing.T) {
	xmp := pngtest.Chunk{Type: "zTXt", Data: []byte("XML:com.adobe.xmp\x00\x00not zlib")}
	data := pngtest.Build(pngtest.Text("parameters", "a cat\nSteps: 20, Seed: 1, Sampler: Euler"), xmp)

	chunks, err := png.ReadTextChunks(data)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"parameters": "a cat\nSteps: 20, Seed: 1, Sampler: Euler"}, chunks)

	badMethod := pngtest.Chunk{Type: "zTXt", Data: []byte("k\x00\x07junk")}
	chunks, err = png.ReadTextChunks(pngtest.Build(badMethod, pngtest.Text("Software", "GIMP")))
	require.NoError(t, err)
	require.Equal(t, "GIMP", chunks["Software"])
}

func TestReadTextChunksOnlyUndecodable(t *testing.T) {
	xmp := pngtest.Chunk{Type: "zTXt", Data: []byte("XML:com.adobe.xmp\x00\x00not zlib")}

	_, err := png.ReadTextChunks(pngtest.Build(xmp))
	require.ErrorIs(t, err, png.ErrNoTextChunks)
	require.ErrorContains(t, err, "zTXt chunk")
}

func TestReadTextChunksTruncated(t *testing.T) {
	data := pngtest.Build(pngtest.Text("parameters", "kept"))
	// Chop the stream inside IDAT/IEND; the text chunk before it survives.
	chunks, err := png.ReadTextChunks(data[:len(data)-14])
	require.NoError(t, err)
	require.Equal(t, "kept", chunks["parameters"])
}

func TestExtractTextChunksNotPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.png")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o644))

	_, err := png.ExtractTextChunks(path)
	require.ErrorIs(t, err, png.ErrNotPNG)
}
