package journal

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the decision journal tables. Timestamps are stored as Unix
// nanoseconds so both SQLite drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id         TEXT PRIMARY KEY,
    kind       TEXT NOT NULL,
    permits    INTEGER NOT NULL,
    allowed    INTEGER NOT NULL,
    decided_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at);
CREATE INDEX IF NOT EXISTS idx_decisions_kind ON decisions(kind);

CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`

	insertDecision = `INSERT INTO decisions (id, kind, permits, allowed, decided_at) VALUES (?, ?, ?, ?, ?)`

	summarizeDecisions = `
SELECT kind,
       SUM(CASE WHEN allowed = 1 THEN 1 ELSE 0 END),
       SUM(CASE WHEN allowed = 0 THEN 1 ELSE 0 END),
       SUM(CASE WHEN allowed = 1 THEN permits ELSE 0 END),
       SUM(CASE WHEN allowed = 0 THEN permits ELSE 0 END)
FROM decisions
WHERE decided_at >= ?
GROUP BY kind
ORDER BY kind`

	pruneDecisions = `DELETE FROM decisions WHERE decided_at < ?`

	countDecisions = `SELECT COUNT(*) FROM decisions`
)
