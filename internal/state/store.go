// Package state records deploy runs in a local sqlite database.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattjoyce/themedeploy/internal/storage"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultLimit is the number of runs Recent returns when limit is not positive.
const DefaultLimit = 20

// Run is one recorded dispatch.
type Run struct {
	ID          string    `json:"id"`
	Area        string    `json:"area"`
	Backend     string    `json:"backend"`
	Fingerprint string    `json:"fingerprint"`
	OK          bool      `json:"ok"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Families    []Family  `json:"families"`
}

// Family is the recorded outcome of one family invocation.
type Family struct {
	Family  string   `json:"family"`
	Themes  []string `json:"themes"`
	Command string   `json:"command"`
	Error   string   `json:"error,omitempty"`
}

type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating it if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := storage.OpenSQLiteFile(ctx, path)
	if err != nil {
		return nil, err
	}
	s := NewStore(db)
	if err := s.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Bootstrap creates the history tables when missing.
func (s *Store) Bootstrap(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deploy_run (
  id          TEXT PRIMARY KEY,
  area        TEXT NOT NULL,
  backend     TEXT NOT NULL,
  fingerprint TEXT NOT NULL,
  ok          INTEGER NOT NULL,
  started_at  TEXT NOT NULL,
  finished_at TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS deploy_family (
  run_id  TEXT NOT NULL REFERENCES deploy_run(id) ON DELETE CASCADE,
  seq     INTEGER NOT NULL,
  family  TEXT NOT NULL,
  themes  TEXT NOT NULL,
  command TEXT NOT NULL,
  error   TEXT,
  PRIMARY KEY (run_id, seq)
);`,
		`CREATE INDEX IF NOT EXISTS deploy_run_started_idx ON deploy_run(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap history: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists run and its families in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO deploy_run(id, area, backend, fingerprint, ok, started_at, finished_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, run.ID, run.Area, run.Backend, run.Fingerprint, boolInt(run.OK),
		formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, f := range run.Families {
		themes, err := json.Marshal(f.Themes)
		if err != nil {
			return fmt.Errorf("marshal themes: %w", err)
		}
		var errText any
		if f.Error != "" {
			errText = f.Error
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO deploy_family(run_id, seq, family, themes, command, error)
VALUES(?, ?, ?, ?, ?, ?);
`, run.ID, i, f.Family, string(themes), f.Command, errText)
		if err != nil {
			return fmt.Errorf("insert family: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. An empty area matches every area.
func (s *Store) Recent(ctx context.Context, area string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, area, backend, fingerprint, ok, started_at, finished_at
FROM deploy_run
WHERE (? = '' OR area = ?)
ORDER BY started_at DESC, id
LIMIT ?;
`, area, area, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ok int
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Area, &r.Backend, &r.Fingerprint, &ok, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.OK = ok != 0
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		fams, err := s.families(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Families = fams
	}
	return runs, nil
}

func (s *Store) families(ctx context.Context, runID string) ([]Family, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT family, themes, command, error FROM deploy_family WHERE run_id = ? ORDER BY seq;
`, runID)
	if err != nil {
		return nil, fmt.Errorf("query families: %w", err)
	}
	defer rows.Close()

	var out []Family
	for rows.Next() {
		var f Family
		var themes string
		var errText sql.NullString
		if err := rows.Scan(&f.Family, &themes, &f.Command, &errText); err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		if err := json.Unmarshal([]byte(themes), &f.Themes); err != nil {
			return nil, fmt.Errorf("stored themes are invalid JSON for run=%q", runID)
		}
		f.Error = errText.String
		out = append(out, f)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
