package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pnginfo/internal/parser"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
)

var ErrNotFound = errors.New("no record for path")

const (
	driverSQLite = "sqlite3"
	driverDuckDB = "duckdb"
)

func init() {
	sqlx.BindDriver(driverDuckDB, sqlx.QUESTION)
}

// Row is one parsed image as stored in the parameters table.
type Row struct {
	FilePath       string `db:"file_path"`
	UIType         string `db:"ui_type"`
	Prompt         string `db:"prompt"`
	NegativePrompt string `db:"negative_prompt"`
	Model          string `db:"model"`
	ModelHash      string `db:"model_hash"`
	Sampler        string `db:"sampler"`
	Seed           string `db:"seed"`
	Steps          string `db:"steps"`
	CFGScale       string `db:"cfg_scale"`
	Width          string `db:"width"`
	Height         string `db:"height"`
	Params         string `db:"params"`
	Raw            string `db:"raw"`
	Error          string `db:"error"`
}

var columns = []string{
	"file_path", "ui_type", "prompt", "negative_prompt", "model", "model_hash",
	"sampler", "seed", "steps", "cfg_scale", "width", "height", "params", "raw", "error",
}

// RowFromRecord flattens a parse result. A non-nil parseErr is stored in the
// error column so the file is not retried on the next load.
func RowFromRecord(path, raw string, rec parser.Record, parseErr error) Row {
	row := Row{FilePath: path, Raw: raw}
	if parseErr != nil {
		row.Error = parseErr.Error()
		return row
	}
	params, err := json.Marshal(rec)
	if err != nil {
		row.Error = fmt.Sprintf("encode record: %v", err)
		return row
	}
	w, h, _ := rec.Size()
	row.UIType = string(rec.UIType)
	row.Prompt = rec.Value(parser.KeyPrompt)
	row.NegativePrompt = rec.Value(parser.KeyNegativePrompt)
	row.Model = rec.Value(parser.KeyModel)
	row.ModelHash = rec.Value(parser.KeyModelHash)
	row.Sampler = rec.Value(parser.KeySampler)
	row.Seed = rec.Value(parser.KeySeed)
	row.Steps = rec.Value(parser.KeySteps)
	row.CFGScale = rec.Value(parser.KeyCFGScale)
	row.Width = w
	row.Height = h
	row.Params = string(params)
	return row
}

// Store persists rows to sqlite or duckdb.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path: .duckdb files use DuckDB,
// anything else SQLite.
func Open(path string) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb":
		db, err = sqlx.Open(driverDuckDB, path)
	default:
		db, err = sqlx.Open(driverSQLite, fmt.Sprintf("file:%s?_busy_timeout=5000&_fk=1", path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS parameters (
			file_path       TEXT PRIMARY KEY,
			ui_type         TEXT,
			prompt          TEXT,
			negative_prompt TEXT,
			model           TEXT,
			model_hash      TEXT,
			sampler         TEXT,
			seed            TEXT,
			steps           TEXT,
			cfg_scale       TEXT,
			width           TEXT,
			height          TEXT,
			params          TEXT,
			raw             TEXT,
			error           TEXT
		)
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ExistingPaths returns every file path already stored.
func (s *Store) ExistingPaths(ctx context.Context) (map[string]struct{}, error) {
	var paths []string
	if err := s.db.SelectContext(ctx, &paths, "SELECT file_path FROM parameters"); err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	return existing, nil
}

func buildUpsertStatement(num int) string {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	valueStrings := make([]string, 0, num)
	for range num {
		valueStrings = append(valueStrings, placeholder)
	}
	updates := lo.Map(columns[1:], func(c string, _ int) string {
		return fmt.Sprintf("%s=excluded.%s", c, c)
	})
	return fmt.Sprintf(
		"INSERT INTO parameters (%s) VALUES %s ON CONFLICT(file_path) DO UPDATE SET %s",
		strings.Join(columns, ", "),
		strings.Join(valueStrings, ","),
		strings.Join(updates, ", "),
	)
}

// InsertBatch upserts rows in a single statement.
func (s *Store) InsertBatch(ctx context.Context, batch []Row) error {
	if len(batch) == 0 {
		return nil
	}
	args := make([]any, 0, len(batch)*len(columns))
	for _, r := range batch {
		args = append(args,
			r.FilePath, r.UIType, r.Prompt, r.NegativePrompt, r.Model, r.ModelHash,
			r.Sampler, r.Seed, r.Steps, r.CFGScale, r.Width, r.Height, r.Params, r.Raw, r.Error)
	}
	_, err := s.db.ExecContext(ctx, buildUpsertStatement(len(batch)), args...)
	return err
}

// Get returns the row stored for path.
func (s *Store) Get(ctx context.Context, path string) (Row, error) {
	var row Row
	q := s.db.Rebind("SELECT " + strings.Join(columns, ", ") + " FROM parameters WHERE file_path = ?")
	if err := s.db.GetContext(ctx, &row, q, path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Row{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Row{}, err
	}
	return row, nil
}
