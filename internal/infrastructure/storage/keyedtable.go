package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// BackendKeyedTable is the Backend() name of KeyedTable.
const BackendKeyedTable = "keyed-table"

const defaultTable = "daily_briefings"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Querier is the subset of pgxpool.Pool the keyed table needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// KeyedTable persists briefings as rows keyed by date_key. Every Put appends
// a row; Get returns the most recently written one.
type KeyedTable struct {
	db    Querier
	table string
	psql  sq.StatementBuilderType
	now   func() time.Time
}

var _ ports.BriefingStore = (*KeyedTable)(nil)

// NewKeyedTable wires a Postgres-backed store.
func NewKeyedTable(db Querier, table string) (*KeyedTable, error) {
	if db == nil {
		return nil, errors.New("keyed table: nil database")
	}
	if table == "" {
		table = defaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("keyed table: invalid table name %q", table)
	}
	return &KeyedTable{
		db:    db,
		table: table,
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:   time.Now,
	}, nil
}

// Backend implements ports.BriefingStore.
func (t *KeyedTable) Backend() string { return BackendKeyedTable }

// EnsureSchema creates the briefing table and its lookup index.
func (t *KeyedTable) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id           UUID PRIMARY KEY,
			date_key     TEXT NOT NULL,
			written_at   TIMESTAMPTZ NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			document     JSONB NOT NULL
		)`, t.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_date_key_idx ON %s (date_key, written_at DESC)`, t.table, t.table),
	}
	for _, stmt := range statements {
		if _, err := t.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Put appends a row for dateKey.
func (t *KeyedTable) Put(ctx context.Context, dateKey string, doc domain.BriefingDocument) error {
	data, err := encodeDocument(BackendKeyedTable, doc)
	if err != nil {
		return err
	}

	query, args, err := t.psql.Insert(t.table).
		Columns("id", "date_key", "written_at", "generated_at", "document").
		Values(uuid.New(), dateKey, t.now().UTC(), doc.GeneratedAt.UTC(), data).
		ToSql()
	if err != nil {
		return &domain.StorageError{Kind: domain.StorageWrite, Backend: BackendKeyedTable, Cause: err}
	}

	if _, err := t.db.Exec(ctx, query, args...); err != nil {
		return &domain.StorageError{Kind: domain.StorageWrite, Backend: BackendKeyedTable, Cause: fmt.Errorf("insert briefing: %w", err)}
	}
	return nil
}

// Get returns the latest row written for dateKey.
func (t *KeyedTable) Get(ctx context.Context, dateKey string) (domain.BriefingDocument, error) {
	query, args, err := t.psql.Select("document").
		From(t.table).
		Where(sq.Eq{"date_key": dateKey}).
		OrderBy("written_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.BriefingDocument{}, &domain.StorageError{Kind: domain.StorageRead, Backend: BackendKeyedTable, Cause: err}
	}

	var data []byte
	if err := t.db.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BriefingDocument{}, domain.ErrNotFound
		}
		return domain.BriefingDocument{}, &domain.StorageError{Kind: domain.StorageRead, Backend: BackendKeyedTable, Cause: fmt.Errorf("select briefing: %w", err)}
	}
	return decodeDocument(BackendKeyedTable, dateKey, data)
}
