package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// sqliteSchema creates the governance schema on SQLite (mattn or modernc).
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS business_terms (
    term_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    criticality REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS rules (
    rule_id TEXT PRIMARY KEY,
    business_term_id TEXT NOT NULL REFERENCES business_terms(term_id),
    description TEXT NOT NULL,
    threshold REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS tde (
    tde_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    business_term_id TEXT NOT NULL REFERENCES business_terms(term_id)
);

CREATE TABLE IF NOT EXISTS dq_scores (
    date TEXT NOT NULL,
    tde_id TEXT NOT NULL REFERENCES tde(tde_id),
    score REAL NOT NULL,
    PRIMARY KEY (date, tde_id)
);

CREATE TABLE IF NOT EXISTS column_mapping (
    tde_id TEXT PRIMARY KEY REFERENCES tde(tde_id),
    model_name TEXT NOT NULL,
    column_name TEXT NOT NULL,
    UNIQUE (model_name, column_name)
);

CREATE TABLE IF NOT EXISTS sql_models (
    model_name TEXT PRIMARY KEY,
    sql_text TEXT NOT NULL
);

-- Append-only. No statement in this package updates or deletes rows here.
CREATE TABLE IF NOT EXISTS event_log (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id TEXT NOT NULL UNIQUE,
    timestamp TEXT NOT NULL,
    event_type TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    entity_name TEXT NOT NULL,
    context TEXT,
    metrics TEXT,
    explanation TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_actions (
    action_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    tde_id TEXT NOT NULL,
    model_name TEXT NOT NULL,
    suggestion TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('open', 'applied'))
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_event_log_type ON event_log(event_type);
CREATE INDEX IF NOT EXISTS idx_event_log_entity ON event_log(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_pending_actions_status ON pending_actions(status);
CREATE INDEX IF NOT EXISTS idx_dq_scores_tde ON dq_scores(tde_id);
`

// postgresSchema is the same schema in PostgreSQL types.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS business_terms (
    term_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    criticality DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS rules (
    rule_id TEXT PRIMARY KEY,
    business_term_id TEXT NOT NULL REFERENCES business_terms(term_id),
    description TEXT NOT NULL,
    threshold DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS tde (
    tde_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    business_term_id TEXT NOT NULL REFERENCES business_terms(term_id)
);

CREATE TABLE IF NOT EXISTS dq_scores (
    date TEXT NOT NULL,
    tde_id TEXT NOT NULL REFERENCES tde(tde_id),
    score DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (date, tde_id)
);

CREATE TABLE IF NOT EXISTS column_mapping (
    tde_id TEXT PRIMARY KEY REFERENCES tde(tde_id),
    model_name TEXT NOT NULL,
    column_name TEXT NOT NULL,
    UNIQUE (model_name, column_name)
);

CREATE TABLE IF NOT EXISTS sql_models (
    model_name TEXT PRIMARY KEY,
    sql_text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
    seq BIGSERIAL PRIMARY KEY,
    event_id TEXT NOT NULL UNIQUE,
    timestamp TEXT NOT NULL,
    event_type TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    entity_name TEXT NOT NULL,
    context TEXT,
    metrics TEXT,
    explanation TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_actions (
    action_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    tde_id TEXT NOT NULL,
    model_name TEXT NOT NULL,
    suggestion TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('open', 'applied'))
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_event_log_type ON event_log(event_type);
CREATE INDEX IF NOT EXISTS idx_event_log_entity ON event_log(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_pending_actions_status ON pending_actions(status);
CREATE INDEX IF NOT EXISTS idx_dq_scores_tde ON dq_scores(tde_id);
`

// dropTables lists tables in dependency order for Reset.
var dropTables = []string{
	"event_log",
	"pending_actions",
	"dq_scores",
	"column_mapping",
	"sql_models",
	"rules",
	"tde",
	"business_terms",
	"schema_version",
}

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1
`
