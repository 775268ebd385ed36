package runlog

// Schema creates the run history table. Kept append-only compatible with
// the migrations in Open.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT UNIQUE NOT NULL,
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME,
	outcome TEXT NOT NULL DEFAULT 'running',
	status TEXT DEFAULT '',
	reason TEXT DEFAULT '',
	proclamation_id TEXT DEFAULT '',
	parse_strategy TEXT DEFAULT '',
	changed BOOLEAN NOT NULL DEFAULT 0,
	archived BOOLEAN NOT NULL DEFAULT 0,
	error_text TEXT DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome);
`
