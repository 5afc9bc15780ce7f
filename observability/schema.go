package observability

import "database/sql"

// Schema creates the metrics table. Timestamps are Unix milliseconds; labels
// are a JSON object or NULL.
const Schema = `
CREATE TABLE IF NOT EXISTS operation_metrics (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	name   TEXT    NOT NULL,
	ts_ms  INTEGER NOT NULL,
	value  REAL    NOT NULL,
	unit   TEXT    NOT NULL DEFAULT '',
	labels TEXT
);
CREATE INDEX IF NOT EXISTS idx_operation_metrics_name_ts ON operation_metrics(name, ts_ms);
CREATE INDEX IF NOT EXISTS idx_operation_metrics_ts ON operation_metrics(ts_ms);
`

// Init applies Schema to db.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
