package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"pnginfo/internal/database"
	"pnginfo/internal/parser"

	"github.com/samber/lo"
)

const defaultBatchSize = 25

// PNGPaths walks root and returns every .png file below it.
func PNGPaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".png") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .png files found in %s", root)
	}
	return paths, nil
}

// Store is the subset of database.Store the loader writes through.
type Store interface {
	ExistingPaths(ctx context.Context) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, batch []database.Row) error
}

type Loader struct {
	Store     Store
	Parser    *parser.Parser
	Workers   int
	BatchSize int
	Log       *slog.Logger
}

type Summary struct {
	Found     int
	Skipped   int
	Processed int
	Failed    int
}

func (l *Loader) logger() *slog.Logger {
	if l.Log == nil {
		return slog.Default()
	}
	return l.Log
}

// Run parses every path not already stored and upserts the results in
// batches. Files that fail to parse are stored with their error.
func (l *Loader) Run(ctx context.Context, paths []string) (Summary, error) {
	log := l.logger()
	sum := Summary{Found: len(paths)}

	existing, err := l.Store.ExistingPaths(ctx)
	if err != nil {
		return sum, fmt.Errorf("error retrieving existing files: %w", err)
	}
	todo := lo.Filter(paths, func(p string, _ int) bool {
		_, ok := existing[p]
		return !ok
	})
	sum.Skipped = len(paths) - len(todo)
	log.Info("scanned files", "found", sum.Found, "skipped", sum.Skipped, "new", len(todo))
	if len(todo) == 0 {
		return sum, nil
	}

	workers := l.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := l.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	p := l.Parser
	if p == nil {
		p = parser.New(log)
	}

	filesCh := make(chan string, workers)
	resultsCh := make(chan database.Row)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for path := range filesCh {
				rec, raw, err := p.ParseFile(path)
				select {
				case resultsCh <- database.RowFromRecord(path, raw, rec, err):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(filesCh)
		for _, path := range todo {
			select {
			case filesCh <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var insertErr error
	flush := func(batch []database.Row) {
		if err := l.Store.InsertBatch(ctx, batch); err != nil {
			log.Error("failed to insert batch", "size", len(batch), "error", err)
			insertErr = err
		}
	}

	batch := make([]database.Row, 0, batchSize)
	for row := range resultsCh {
		sum.Processed++
		if row.Error != "" {
			sum.Failed++
			log.Warn("error processing file", "path", row.FilePath, "error", row.Error)
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			flush(batch)
			batch = batch[:0]
		}
		log.Debug("processed file", "path", row.FilePath, "done", sum.Processed, "total", len(todo))
	}
	if len(batch) > 0 && ctx.Err() == nil {
		flush(batch)
	}

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	if insertErr != nil {
		return sum, fmt.Errorf("insert: %w", insertErr)
	}
	return sum, nil
}
