package ledger

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

-- Export records: one row per conversation identity, overwritten on every
-- successful export. turn_count is the low-water mark for append mode.
CREATE TABLE IF NOT EXISTS export_records (
    conversation_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    exported_at TEXT NOT NULL,
    turn_count INTEGER NOT NULL,
    page_id TEXT NOT NULL,
    container_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_export_records_exported ON export_records(exported_at DESC);
`
