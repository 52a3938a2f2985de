package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    user_id              INTEGER PRIMARY KEY,
    generation           INTEGER NOT NULL,
    loaded_at            TEXT,
    user_json            TEXT,
    subscriptions_json   TEXT NOT NULL DEFAULT '[]',
    analytics_json       TEXT,
    popular_json         TEXT,
    achievements_json    TEXT,
    saved_at             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reload_log (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id              INTEGER NOT NULL,
    reloaded_at          TEXT NOT NULL,
    ok                   INTEGER NOT NULL,
    failed_sections      TEXT
);

CREATE INDEX IF NOT EXISTS idx_reload_log_user ON reload_log(user_id, reloaded_at);
`
