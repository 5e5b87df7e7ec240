package store

const claimsSchema = `
CREATE TABLE IF NOT EXISTS claims (
    id          TEXT PRIMARY KEY,
    title       TEXT,
    claim       TEXT,
    source      TEXT,
    url         TEXT,
    truth_score TEXT,
    bias_rating TEXT,
    timestamp   TEXT
);
`

const insertClaim = `INSERT OR IGNORE INTO claims
    (id, title, claim, source, url, truth_score, bias_rating, timestamp)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const selectClaims = `SELECT id, title, claim, source, url, truth_score, bias_rating, timestamp
    FROM claims ORDER BY timestamp DESC, rowid DESC`

const countClaims = `SELECT COUNT(*) FROM claims`
