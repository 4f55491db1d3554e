package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/transfer/lib/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenodo/rdm-migrator/actions/entities"
	"github.com/zenodo/rdm-migrator/config"
	"github.com/zenodo/rdm-migrator/lib/cdc"
	"github.com/zenodo/rdm-migrator/lib/mtr"
)

const (
	jitterBaseMs = 300
	jitterMaxMs  = 5000
	maxAttempts  = 5
)

type statement struct {
	query string
	args  []any
}

type copyRows struct {
	table   string
	columns []string
	rows    [][]any
}

// step is either a statement or a COPY.
type step struct {
	statement *statement
	copy      *copyRows
}

type Destination struct {
	pool     *pgxpool.Pool
	useCopy  bool
	retryCfg retry.RetryConfig
	metrics  mtr.Client
}

func New(ctx context.Context, cfg config.Postgres, metrics mtr.Client) (*Destination, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	retryCfg, err := retry.NewJitterRetryConfig(jitterBaseMs, jitterMaxMs, maxAttempts, retry.AlwaysRetry)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to build retry config: %w", err)
	}

	return &Destination{pool: pool, useCopy: cfg.UseCopy, retryCfg: retryCfg, metrics: metrics}, nil
}

func (d *Destination) Write(ctx context.Context, bundles []*entities.Bundle) error {
	for _, bundle := range bundles {
		if bundle.Empty() {
			continue
		}

		start := time.Now()
		steps, err := plan(bundle, d.useCopy)
		if err != nil {
			return fmt.Errorf("failed to plan transaction %d: %w", bundle.TransactionID, err)
		}

		affected, err := retry.WithRetriesAndResult(d.retryCfg, func(attempt int, lastErr error) (int64, error) {
			if attempt > 0 {
				slog.Warn("Retrying bundle", slog.Int64("txID", bundle.TransactionID), slog.Int("attempt", attempt), slog.Any("err", lastErr))
			}
			return d.apply(ctx, steps)
		})

		tags := map[string]string{"action": bundle.Action, "what": "success"}
		if err != nil {
			tags["what"] = "error"
			d.metrics.Incr("postgres.bundle", tags)
			return fmt.Errorf("failed to write transaction %d: %w", bundle.TransactionID, err)
		}

		d.metrics.Incr("postgres.bundle", tags)
		d.metrics.Timing("postgres.bundle.duration", time.Since(start), tags)
		slog.Debug("Wrote bundle", slog.Int64("txID", bundle.TransactionID), slog.String("action", bundle.Action), slog.Int64("rowsAffected", affected))
	}
	return nil
}

// apply runs all the steps of a bundle in one database transaction.
func (d *Destination) apply(ctx context.Context, steps []step) (int64, error) {
	var affected int64
	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		var batch pgx.Batch
		flush := func() error {
			if batch.Len() == 0 {
				return nil
			}

			results := tx.SendBatch(ctx, &batch)
			for i := 0; i < batch.Len(); i++ {
				tag, err := results.Exec()
				if err != nil {
					results.Close()
					return fmt.Errorf("failed to execute statement: %w", err)
				}
				affected += tag.RowsAffected()
			}
			batch = pgx.Batch{}
			return results.Close()
		}

		for _, s := range steps {
			if s.statement != nil {
				batch.Queue(s.statement.query, s.statement.args...)
				continue
			}

			if err := flush(); err != nil {
				return err
			}

			count, err := tx.CopyFrom(ctx, pgx.Identifier{s.copy.table}, s.copy.columns, pgx.CopyFromRows(s.copy.rows))
			if err != nil {
				return fmt.Errorf("failed to copy into %q: %w", s.copy.table, err)
			}
			affected += count
		}

		return flush()
	})
	return affected, err
}

func (d *Destination) Close() error {
	d.pool.Close()
	return nil
}

// plan turns a bundle into steps, in dependency order. With useCopy, consecutive inserts of a kind are loaded with
// a single COPY, which does not skip existing rows.
func plan(bundle *entities.Bundle, useCopy bool) ([]step, error) {
	ordered := bundle.Ordered()

	var steps []step
	for i := 0; i < len(ordered); {
		entity := ordered[i]
		table, isOk := TableFor(entity.Kind)
		if !isOk {
			return nil, fmt.Errorf("no table for entity kind %q", entity.Kind)
		}

		if useCopy && entity.Operation == cdc.Insert {
			end := i + 1
			for end < len(ordered) && ordered[end].Kind == entity.Kind && ordered[end].Operation == cdc.Insert {
				end++
			}

			if end-i > 1 {
				steps = append(steps, step{copy: buildCopy(table, ordered[i:end])})
				i = end
				continue
			}
		}

		var query string
		var args []any
		var err error
		switch entity.Operation {
		case cdc.Insert:
			query, args, err = insertQuery(table, entity.Data)
		case cdc.Update:
			query, args, err = updateQuery(table, entity.Data)
		case cdc.Delete:
			query, args, err = deleteQuery(table, entity.Data)
		default:
			err = fmt.Errorf("unsupported operation: %q", entity.Operation)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build query for %q: %w", entity.Kind, err)
		}

		if query != "" {
			steps = append(steps, step{statement: &statement{query: query, args: args}})
		}
		i++
	}

	return steps, nil
}

// buildCopy loads the union of the columns of the rows, missing values are NULL.
func buildCopy(table Table, batch []entities.Entity) *copyRows {
	union := make(map[string]any)
	for _, entity := range batch {
		for column := range entity.Data {
			union[column] = nil
		}
	}

	columns := sortedColumns(union)
	rows := make([][]any, len(batch))
	for i, entity := range batch {
		row := make([]any, len(columns))
		for j, column := range columns {
			row[j] = value(entity.Data[column])
		}
		rows[i] = row
	}

	return &copyRows{table: table.Name, columns: columns, rows: rows}
}
