package checkpoint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/arpalab/resolvit/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool, for runs shared between
// machines.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id      TEXT NOT NULL,
	wave        TEXT NOT NULL,
	set_name    TEXT NOT NULL,
	company_key TEXT NOT NULL,
	decision    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, wave, company_key)
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_run_wave_set
	ON checkpoints(run_id, wave, set_name);
`

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

func (s *PostgresStore) Append(ctx context.Context, runID, wave string, set Set, d model.Decision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal decision")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO checkpoints (run_id, wave, set_name, company_key, decision, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, wave, company_key) DO NOTHING`,
		runID, wave, string(set), d.CompanyKey, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: append checkpoint %s/%s", wave, d.CompanyKey)
}

func (s *PostgresStore) Keys(ctx context.Context, runID, wave string) (map[string]Set, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_key, set_name FROM checkpoints WHERE run_id = $1 AND wave = $2`,
		runID, wave,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load keys %s", wave)
	}
	defer rows.Close()

	out := make(map[string]Set)
	for rows.Next() {
		var key, set string
		if err := rows.Scan(&key, &set); err != nil {
			return nil, eris.Wrap(err, "postgres: scan key")
		}
		out[key] = Set(set)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate keys")
}

func (s *PostgresStore) Decisions(ctx context.Context, runID, wave string, set Set) ([]model.Decision, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT decision FROM checkpoints
		 WHERE run_id = $1 AND wave = $2 AND set_name = $3
		 ORDER BY created_at, company_key`,
		runID, wave, string(set),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load decisions %s/%s", wave, set)
	}
	defer rows.Close()

	var out []model.Decision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan decision")
		}
		var d model.Decision
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal decision")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate decisions")
}

func (s *PostgresStore) Counts(ctx context.Context, runID string) ([]WaveCounts, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT wave, set_name, COUNT(*) FROM checkpoints
		 WHERE run_id = $1 GROUP BY wave, set_name ORDER BY wave`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: counts")
	}
	defer rows.Close()

	byWave := make(map[string]*WaveCounts)
	var order []string
	for rows.Next() {
		var wave, set string
		var n int64
		if err := rows.Scan(&wave, &set, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan counts")
		}
		wc, ok := byWave[wave]
		if !ok {
			wc = &WaveCounts{Wave: wave}
			byWave[wave] = wc
			order = append(order, wave)
		}
		switch Set(set) {
		case SetValid:
			wc.Valid = int(n)
		case SetInvalid:
			wc.Invalid = int(n)
		case SetNotFound:
			wc.NotFound = int(n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate counts")
	}

	out := make([]WaveCounts, 0, len(order))
	for _, w := range order {
		out = append(out, *byWave[w])
	}
	return out, nil
}

func (s *PostgresStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id FROM checkpoints GROUP BY run_id ORDER BY MAX(created_at) DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run id")
		}
		out = append(out, id)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
