package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"polemr/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  jobPath TEXT NOT NULL,
  templatePath TEXT,
  outputPath TEXT,
  qcActive INTEGER NOT NULL DEFAULT 0,
  rowCount INTEGER NOT NULL DEFAULT 0,
  conflictCount INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS span_conflicts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  scid1 TEXT NOT NULL,
  scid2 TEXT NOT NULL,
  keptSpan TEXT,
  seenSpan TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_span_conflicts_run ON span_conflicts(runId);

CREATE TABLE IF NOT EXISTS qc_results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  pole TEXT NOT NULL,
  field TEXT NOT NULL,
  got TEXT,
  want TEXT,
  verdict TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_qc_results_run ON qc_results(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RunRow) (int64, error) {
	qcActive := 0
	if run.QCActive {
		qcActive = 1
	}
	res, err := d.conn.Exec(`
INSERT INTO runs (traceId, jobPath, templatePath, outputPath, qcActive, rowCount, conflictCount)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.JobPath, run.TemplatePath, run.OutputPath, qcActive, run.RowCount, run.ConflictCount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, traceId, jobPath, templatePath, outputPath, qcActive, rowCount, conflictCount, createdAt
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var r internal.RunRow
		var qcActive int
		if err := rows.Scan(
			&r.ID, &r.TraceID, &r.JobPath, &r.TemplatePath, &r.OutputPath,
			&qcActive, &r.RowCount, &r.ConflictCount, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		r.QCActive = qcActive != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(id int64) (*internal.RunRow, error) {
	var r internal.RunRow
	var qcActive int
	err := d.conn.QueryRow(`
SELECT id, traceId, jobPath, templatePath, outputPath, qcActive, rowCount, conflictCount, createdAt
FROM runs WHERE id = ?`, id).Scan(
		&r.ID, &r.TraceID, &r.JobPath, &r.TemplatePath, &r.OutputPath,
		&qcActive, &r.RowCount, &r.ConflictCount, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.QCActive = qcActive != 0
	return &r, nil
}

func (d *DB) InsertSpanConflicts(runID int64, conflicts []internal.SpanConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO span_conflicts (runId, scid1, scid2, keptSpan, seenSpan)
VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range conflicts {
		if _, err := stmt.Exec(runID, c.SCID1, c.SCID2, c.Kept, c.Seen); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListSpanConflicts(runID int64) ([]internal.SpanConflict, error) {
	rows, err := d.conn.Query(`
SELECT scid1, scid2, keptSpan, seenSpan FROM span_conflicts WHERE runId = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SpanConflict
	for rows.Next() {
		var c internal.SpanConflict
		if err := rows.Scan(&c.SCID1, &c.SCID2, &c.Kept, &c.Seen); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) InsertQCResults(runID int64, results []internal.QCResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO qc_results (runId, pole, field, got, want, verdict)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(runID, r.Pole, r.Field, r.Got, r.Want, string(r.Verdict)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListQCResults(runID int64) ([]internal.QCResult, error) {
	rows, err := d.conn.Query(`
SELECT pole, field, got, want, verdict FROM qc_results WHERE runId = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QCResult
	for rows.Next() {
		var r internal.QCResult
		var verdict string
		if err := rows.Scan(&r.Pole, &r.Field, &r.Got, &r.Want, &verdict); err != nil {
			return nil, err
		}
		r.Verdict = internal.QCVerdict(verdict)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value, updatedAt) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updatedAt=CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
