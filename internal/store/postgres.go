package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scottgpt/career-cli/internal/db"
	"github.com/scottgpt/career-cli/internal/mergeops"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// positionColumns is the column order shared by every position query and the bulk upsert.
var positionColumns = []string{"id", "title", "org", "date_start", "date_end", "skills", "description", "location", "updated_at"}

const selectPosition = `SELECT id, title, org, date_start, date_end, skills, description, location FROM positions`

// NewPostgres connects a pool, retrying transient connection failures.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, retry resilience.RetryConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	retry.OnRetry = resilience.RetryLogger("postgres", "connect")
	pool, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}

	zap.L().Info("postgres store connected",
		zap.String("host", pgxCfg.ConnConfig.Host),
		zap.String("database", pgxCfg.ConnConfig.Database),
		zap.Int32("max_conns", maxConns),
	)
	return newPostgresWithPool(pool, pool.Close), nil
}

func newPostgresWithPool(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		closeFn: closeFn,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS positions (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	org             TEXT NOT NULL DEFAULT '',
	date_start      TEXT NOT NULL DEFAULT '',
	date_end        TEXT NOT NULL DEFAULT '',
	skills          JSONB NOT NULL DEFAULT '[]',
	description     TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	merge_source_id TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS merge_operations (
	id         TEXT PRIMARY KEY,
	source_id  TEXT NOT NULL,
	target_id  TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	confirmed  BOOLEAN NOT NULL DEFAULT false,
	result     JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_positions_org ON positions(lower(org));
CREATE INDEX IF NOT EXISTS idx_merge_operations_status ON merge_operations(status);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListPositions(ctx context.Context, filter PositionFilter) ([]model.Position, error) {
	query := selectPosition + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Org != "" {
		query += fmt.Sprintf(` AND lower(org) = lower($%d)`, argIdx)
		args = append(args, filter.Org)
		argIdx++
	}
	query += ` ORDER BY date_start DESC, id`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list positions")
	}
	defer rows.Close()

	positions := []model.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan position")
		}
		positions = append(positions, *p)
	}
	return positions, eris.Wrap(rows.Err(), "postgres: list positions iterate")
}

func (s *PostgresStore) GetPosition(ctx context.Context, id string) (*model.Position, error) {
	p, err := scanPosition(s.pool.QueryRow(ctx, selectPosition+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get position %s", id)
	}
	return p, nil
}

// UpsertPositions bulk-loads positions, replacing existing rows with the same id.
func (s *PostgresStore) UpsertPositions(ctx context.Context, positions []model.Position) (int, error) {
	now := s.now()
	rows := make([][]any, 0, len(positions))
	for _, p := range positions {
		skills, err := marshalSkills(p.Skills)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{p.ID, p.Title, p.Org, p.DateStart, p.DateEnd, skills, p.Description, p.Location, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "positions",
		Columns:      positionColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert positions")
	}
	return int(n), nil
}

func (s *PostgresStore) UpdatePosition(ctx context.Context, p model.Position, mergeSourceID string) error {
	skills, err := marshalSkills(p.Skills)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE positions SET title = $1, org = $2, date_start = $3, date_end = $4, skills = $5,
		 description = $6, location = $7, merge_source_id = $8, updated_at = $9 WHERE id = $10`,
		p.Title, p.Org, p.DateStart, p.DateEnd, skills, p.Description, p.Location, nullable(mergeSourceID), s.now(), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update position %s", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("position", p.ID)
	}
	return nil
}

func (s *PostgresStore) DeletePosition(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete position %s", id)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("position", id)
	}
	return nil
}

func (s *PostgresStore) SaveMergeOperation(ctx context.Context, op mergeops.Operation) error {
	result, err := marshalResult(op)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO merge_operations (id, source_id, target_id, status, confirmed, result, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status, result = EXCLUDED.result, error = EXCLUDED.error, updated_at = EXCLUDED.updated_at`,
		op.ID, op.SourceID, op.TargetID, string(op.Status), op.Confirmed, result, op.Error, op.CreatedAt, op.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save merge operation %s", op.ID)
}

func (s *PostgresStore) GetMergeOperation(ctx context.Context, id string) (*mergeops.Operation, error) {
	var op mergeops.Operation
	var status string
	var result []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, source_id, target_id, status, confirmed, result, error, created_at, updated_at
		 FROM merge_operations WHERE id = $1`, id,
	).Scan(&op.ID, &op.SourceID, &op.TargetID, &status, &op.Confirmed, &result, &op.Error, &op.CreatedAt, &op.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get merge operation %s", id)
	}
	op.Status = mergeops.Status(status)
	if err := unmarshalResult(result, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (s *PostgresStore) DeleteMergeOperation(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM merge_operations WHERE id = $1`, id)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: delete merge operation %s", id)
	}
	return tag.RowsAffected() > 0, nil
}
