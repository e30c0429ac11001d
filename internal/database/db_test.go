package database_test

import (
	"errors"
	"path/filepath"
	"testing"

	"pnginfo/internal/database"
	"pnginfo/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "prompts.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func row(path, params string) database.Row {
	return database.RowFromRecord(path, params, parser.Parse(params), nil)
}

func TestRowFromRecord(t *testing.T) {
	raw := "a cat\nNegative prompt: dog\nSteps: 20, Sampler: Euler a, CFG scale: 7, Seed: 1, Size: 512x768, Model: sdxl"
	r := database.RowFromRecord("a.png", raw, parser.Parse(raw), nil)

	assert.Equal(t, "webui", r.UIType)
	assert.Equal(t, "a cat", r.Prompt)
	assert.Equal(t, "dog", r.NegativePrompt)
	assert.Equal(t, "sdxl", r.Model)
	assert.Equal(t, "Euler a", r.Sampler)
	assert.Equal(t, "512", r.Width)
	assert.Equal(t, "768", r.Height)
	assert.Contains(t, r.Params, `"Seed":"1"`)
	assert.Empty(t, r.Error)

	failed := database.RowFromRecord("b.png", "", parser.Record{}, errors.New("boom"))
	assert.Equal(t, "boom", failed.Error)
	assert.Empty(t, failed.Params)
}

func TestInsertAndGet(t *testing.T) {
	store := openStore(t)
	ctx := t.Context()

	first := row("a.png", "x\nSteps: 1, Seed: 1, Model: alpha")
	require.NoError(t, store.InsertBatch(ctx, []database.Row{first, row("b.png", "y\nSteps: 1, Seed: 2, Model: beta")}))

	got, err := store.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Upsert replaces the existing row.
	updated := row("a.png", "z\nSteps: 9, Seed: 9, Model: gamma")
	require.NoError(t, store.InsertBatch(ctx, []database.Row{updated}))
	got, err = store.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, "gamma", got.Model)

	existing, err := store.ExistingPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, existing, 2)
	assert.Contains(t, existing, "b.png")

	_, err = store.Get(ctx, "missing.png")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestFindAndCount(t *testing.T) {
	store := openStore(t)
	ctx := t.Context()

	require.NoError(t, store.InsertBatch(ctx, []database.Row{
		row("1.png", "a\nSteps: 1, Sampler: Euler, Model: alpha"),
		row("2.png", "b\nSteps: 1, Sampler: DDIM, Model: alpha"),
		row("3.png", "c\nSteps: 1, Sampler: Euler, Model: beta"),
		row("4.png", "d\nSteps: 1, Sampler: Euler, Model: gamma"),
		database.RowFromRecord("5.png", "", parser.Record{}, errors.New("no parameters")),
	}))

	rows, err := store.Find(ctx, database.FindOptions{Models: []string{"alpha", "beta"}})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "1.png", rows[0].FilePath)

	rows, err = store.Find(ctx, database.FindOptions{Models: []string{"alpha"}, Samplers: []string{"Euler"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1.png", rows[0].FilePath)

	rows, err = store.Find(ctx, database.FindOptions{UIType: "webui", Limit: 2, Random: true})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	counts, err := store.CountBy(ctx, "model")
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, database.Count{Value: "alpha", Count: 2}, counts[0])

	_, err = store.CountBy(ctx, "prompt; DROP TABLE parameters")
	require.Error(t, err)
}
