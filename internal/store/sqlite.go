package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/scottgpt/career-cli/internal/mergeops"
	"github.com/scottgpt/career-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS positions (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	org             TEXT NOT NULL DEFAULT '',
	date_start      TEXT NOT NULL DEFAULT '',
	date_end        TEXT NOT NULL DEFAULT '',
	skills          TEXT NOT NULL DEFAULT '[]',
	description     TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	merge_source_id TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS merge_operations (
	id         TEXT PRIMARY KEY,
	source_id  TEXT NOT NULL,
	target_id  TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	confirmed  INTEGER NOT NULL DEFAULT 0,
	result     TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_org ON positions(org COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_merge_operations_status ON merge_operations(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListPositions(ctx context.Context, filter PositionFilter) ([]model.Position, error) {
	query := selectPosition + ` WHERE 1 = 1`
	args := []any{}

	if filter.Org != "" {
		query += ` AND org = ? COLLATE NOCASE`
		args = append(args, filter.Org)
	}
	query += ` ORDER BY date_start DESC, id`

	// SQLite requires LIMIT before OFFSET; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list positions")
	}
	defer rows.Close() //nolint:errcheck

	positions := []model.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan position")
		}
		positions = append(positions, *p)
	}
	return positions, eris.Wrap(rows.Err(), "sqlite: list positions iterate")
}

func (s *SQLiteStore) GetPosition(ctx context.Context, id string) (*model.Position, error) {
	p, err := scanPosition(s.db.QueryRowContext(ctx, selectPosition+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get position %s", id)
	}
	return p, nil
}

// UpsertPositions inserts or replaces positions by id in one transaction.
func (s *SQLiteStore) UpsertPositions(ctx context.Context, positions []model.Position) (int, error) {
	if len(positions) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO positions (id, title, org, date_start, date_end, skills, description, location, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, org = excluded.org, date_start = excluded.date_start,
		   date_end = excluded.date_end, skills = excluded.skills, description = excluded.description,
		   location = excluded.location, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := s.now()
	for _, p := range positions {
		skills, err := marshalSkills(p.Skills)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Org, p.DateStart, p.DateEnd, string(skills), p.Description, p.Location, now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert position %s", p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return len(positions), nil
}

func (s *SQLiteStore) UpdatePosition(ctx context.Context, p model.Position, mergeSourceID string) error {
	skills, err := marshalSkills(p.Skills)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET title = ?, org = ?, date_start = ?, date_end = ?, skills = ?,
		 description = ?, location = ?, merge_source_id = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Org, p.DateStart, p.DateEnd, string(skills), p.Description, p.Location, nullable(mergeSourceID), s.now(), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update position %s", p.ID)
	}
	return checkRowsAffected(res, "position", p.ID)
}

func (s *SQLiteStore) DeletePosition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete position %s", id)
	}
	return checkRowsAffected(res, "position", id)
}

func (s *SQLiteStore) SaveMergeOperation(ctx context.Context, op mergeops.Operation) error {
	result, err := marshalResult(op)
	if err != nil {
		return err
	}
	var resultText any
	if result != nil {
		resultText = string(result)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO merge_operations (id, source_id, target_id, status, confirmed, result, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status, result = excluded.result, error = excluded.error, updated_at = excluded.updated_at`,
		op.ID, op.SourceID, op.TargetID, string(op.Status), op.Confirmed, resultText, op.Error, op.CreatedAt, op.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save merge operation %s", op.ID)
}

func (s *SQLiteStore) GetMergeOperation(ctx context.Context, id string) (*mergeops.Operation, error) {
	var op mergeops.Operation
	var status string
	var result sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_id, target_id, status, confirmed, result, error, created_at, updated_at
		 FROM merge_operations WHERE id = ?`, id,
	).Scan(&op.ID, &op.SourceID, &op.TargetID, &status, &op.Confirmed, &result, &op.Error, &op.CreatedAt, &op.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get merge operation %s", id)
	}
	op.Status = mergeops.Status(status)
	if result.Valid {
		if err := unmarshalResult([]byte(result.String), &op); err != nil {
			return nil, err
		}
	}
	return &op, nil
}

func (s *SQLiteStore) DeleteMergeOperation(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM merge_operations WHERE id = ?`, id)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: delete merge operation %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return model.NewNotFoundError(kind, id)
	}
	return nil
}
