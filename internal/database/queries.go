package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type FindOptions struct {
	Models   []string
	Samplers []string
	UIType   string
	// Limit defaults to 10.
	Limit  int
	Random bool
}

// Find returns rows matching every non-empty filter in opts.
func (s *Store) Find(ctx context.Context, opts FindOptions) ([]Row, error) {
	builder := strings.Builder{}
	bws := func(str string) { builder.WriteString(str) }
	args := make([]any, 0, 4)

	bws("SELECT " + strings.Join(columns, ", ") + " FROM parameters WHERE error = ''")
	if len(opts.Models) > 0 {
		bws(" AND model IN (?)")
		args = append(args, opts.Models)
	}
	if len(opts.Samplers) > 0 {
		bws(" AND sampler IN (?)")
		args = append(args, opts.Samplers)
	}
	if opts.UIType != "" {
		bws(" AND ui_type = ?")
		args = append(args, opts.UIType)
	}
	if opts.Random {
		bws(" ORDER BY random()")
	} else {
		bws(" ORDER BY file_path")
	}
	limit := 10
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	bws(" LIMIT ?")
	args = append(args, limit)

	query, args, err := sqlx.In(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find %+v: %w", opts, err)
	}
	return rows, nil
}

// Count is one bucket of a CountBy histogram.
type Count struct {
	Value string `db:"value"`
	Count int64  `db:"n"`
}

var countableColumns = map[string]struct{}{
	"model":   {},
	"sampler": {},
	"ui_type": {},
}

// CountBy groups parsed rows by column (model, sampler or ui_type), largest first.
func (s *Store) CountBy(ctx context.Context, column string) ([]Count, error) {
	if _, ok := countableColumns[column]; !ok {
		return nil, fmt.Errorf("cannot count by column %q", column)
	}
	stmt := fmt.Sprintf(`
		SELECT %s AS value, COUNT(*) AS n
		FROM parameters
		WHERE error = ''
		GROUP BY %s
		ORDER BY n DESC, value
	`, column, column)
	var counts []Count
	if err := s.db.SelectContext(ctx, &counts, stmt); err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	return counts, nil
}
