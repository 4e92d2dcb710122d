package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/ports"
)

// Ledger persists per-book generation status in a book_descriptions table.
// The description column holds the text, the generating marker, or NULL for
// a definitive not-found. claimed_at is unix milliseconds of the last claim.
type Ledger struct {
	db      *sql.DB
	table   string
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.Ledger = (*Ledger)(nil)

// NewLedger wires a sql.DB opened with driver. Only drivers with
// INSERT ... ON CONFLICT support (postgres, sqlite) can host the ledger.
func NewLedger(db *sql.DB, driver, table string) (*Ledger, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}
	builder, err := statementBuilder(driver)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db, table: table, builder: builder, now: time.Now}, nil
}

// WithClock replaces the time source used for claim timestamps.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// EnsureSchema creates the table and adds claimed_at to tables that predate it.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
              doc_id BIGINT PRIMARY KEY,
              description TEXT,
              claimed_at BIGINT
          )`, l.table)
	if _, err := l.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", l.table, err)
	}

	probe := fmt.Sprintf(`SELECT claimed_at FROM %s WHERE 1 = 0`, l.table)
	rows, err := l.db.QueryContext(ctx, probe)
	if err == nil {
		return rows.Close()
	}
	alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN claimed_at BIGINT`, l.table)
	if _, err := l.db.ExecContext(ctx, alter); err != nil {
		return fmt.Errorf("add claimed_at to %s: %w", l.table, err)
	}
	return nil
}

// Get returns the ledger row for bookID; found is false when no row exists.
func (l *Ledger) Get(ctx context.Context, bookID int64) (domain.GenerationRecord, bool, error) {
	query, args, err := l.builder.
		Select("doc_id", "description", "claimed_at").
		From(l.table).
		Where(sq.Eq{"doc_id": bookID}).
		ToSql()
	if err != nil {
		return domain.GenerationRecord{}, false, fmt.Errorf("build select: %w", err)
	}

	var (
		id          int64
		description sql.NullString
		claimedAt   sql.NullInt64
	)
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&id, &description, &claimedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GenerationRecord{}, false, nil
	}
	if err != nil {
		return domain.GenerationRecord{}, false, fmt.Errorf("select ledger row: %w", err)
	}

	record := domain.GenerationRecord{BookID: id}
	switch {
	case !description.Valid || description.String == "":
		record.State = domain.StateNotFound
	case description.String == domain.GeneratingMarker:
		record.State = domain.StateGenerating
	default:
		record.State = domain.StateDescribed
		record.Description = description.String
	}
	if claimedAt.Valid {
		record.ClaimedAt = time.UnixMilli(claimedAt.Int64)
	}
	return record, true, nil
}

// Claim inserts the generating marker for an absent row, or takes over a
// generating row whose claim is older than staleBefore.
func (l *Ledger) Claim(ctx context.Context, bookID int64, staleBefore time.Time) (bool, error) {
	nowMs := l.now().UnixMilli()

	insert, args, err := l.builder.
		Insert(l.table).
		Columns("doc_id", "description", "claimed_at").
		Values(bookID, domain.GeneratingMarker, nowMs).
		Suffix("ON CONFLICT (doc_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build claim insert: %w", err)
	}
	res, err := l.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return false, fmt.Errorf("claim insert: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("claim insert rows: %w", err)
	} else if n == 1 {
		return true, nil
	}

	update, args, err := l.builder.
		Update(l.table).
		Set("claimed_at", nowMs).
		Where(sq.Eq{"doc_id": bookID}).
		Where(sq.Eq{"description": domain.GeneratingMarker}).
		Where(sq.Or{
			sq.Eq{"claimed_at": nil},
			sq.Lt{"claimed_at": staleBefore.UnixMilli()},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build claim takeover: %w", err)
	}
	res, err = l.db.ExecContext(ctx, update, args...)
	if err != nil {
		return false, fmt.Errorf("claim takeover: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim takeover rows: %w", err)
	}
	return n == 1, nil
}

// Finish upserts the terminal value; a nil description stores NULL.
func (l *Ledger) Finish(ctx context.Context, bookID int64, description *string) error {
	value := sql.NullString{}
	if description != nil {
		value = sql.NullString{String: *description, Valid: true}
	}

	query, args, err := l.builder.
		Insert(l.table).
		Columns("doc_id", "description", "claimed_at").
		Values(bookID, value, nil).
		Suffix(`ON CONFLICT (doc_id) DO UPDATE
              SET description = EXCLUDED.description,
                  claimed_at = EXCLUDED.claimed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build finish: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert description: %w", err)
	}
	return nil
}
