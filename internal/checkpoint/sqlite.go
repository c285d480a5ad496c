package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/arpalab/resolvit/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id      TEXT NOT NULL,
	wave        TEXT NOT NULL,
	set_name    TEXT NOT NULL,
	company_key TEXT NOT NULL,
	decision    TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, wave, company_key)
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_run_wave_set
	ON checkpoints(run_id, wave, set_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts the decision; a key already checkpointed in this wave
// is left untouched.
func (s *SQLiteStore) Append(ctx context.Context, runID, wave string, set Set, d model.Decision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal decision")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO checkpoints (run_id, wave, set_name, company_key, decision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, wave, string(set), d.CompanyKey, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: append checkpoint %s/%s", wave, d.CompanyKey)
}

func (s *SQLiteStore) Keys(ctx context.Context, runID, wave string) (map[string]Set, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_key, set_name FROM checkpoints WHERE run_id = ? AND wave = ?`,
		runID, wave,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load keys %s", wave)
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]Set)
	for rows.Next() {
		var key, set string
		if err := rows.Scan(&key, &set); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan key")
		}
		out[key] = Set(set)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate keys")
}

func (s *SQLiteStore) Decisions(ctx context.Context, runID, wave string, set Set) ([]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT decision FROM checkpoints
		 WHERE run_id = ? AND wave = ? AND set_name = ?
		 ORDER BY created_at, company_key`,
		runID, wave, string(set),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load decisions %s/%s", wave, set)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Decision
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan decision")
		}
		var d model.Decision
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal decision")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate decisions")
}

func (s *SQLiteStore) Counts(ctx context.Context, runID string) ([]WaveCounts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT wave, set_name, COUNT(*) FROM checkpoints
		 WHERE run_id = ? GROUP BY wave, set_name ORDER BY wave`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: counts")
	}
	defer rows.Close() //nolint:errcheck

	byWave := make(map[string]*WaveCounts)
	var order []string
	for rows.Next() {
		var wave, set string
		var n int
		if err := rows.Scan(&wave, &set, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan counts")
		}
		wc, ok := byWave[wave]
		if !ok {
			wc = &WaveCounts{Wave: wave}
			byWave[wave] = wc
			order = append(order, wave)
		}
		switch Set(set) {
		case SetValid:
			wc.Valid = n
		case SetInvalid:
			wc.Invalid = n
		case SetNotFound:
			wc.NotFound = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate counts")
	}

	out := make([]WaveCounts, 0, len(order))
	for _, w := range order {
		out = append(out, *byWave[w])
	}
	return out, nil
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM checkpoints GROUP BY run_id ORDER BY MAX(created_at) DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run id")
		}
		out = append(out, id)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
