package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- Cache entries: opaque values with the time they were written.
-- TTLs are applied by readers; rows are never expired in place.
CREATE TABLE IF NOT EXISTS cache_entries (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    written_at INTEGER NOT NULL  -- unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_cache_written ON cache_entries(written_at);
`
