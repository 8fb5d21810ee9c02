package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/unneeks/stewardagent/pkg/governance"
)

// Supported database/sql driver names.
const (
	DriverSQLite3  = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverPostgres = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// timestampLayout is fixed width so lexical order equals time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLConfig contains configuration for the SQL storage backend.
type SQLConfig struct {
	// Driver is one of DriverSQLite3, DriverSQLite or DriverPostgres.
	// Default: sqlite3
	Driver string

	// DSN is the database file path for SQLite drivers or a connection URL
	// for PostgreSQL.
	DSN string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode (SQLite only).
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked
	// (SQLite only).
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLConfig returns the default SQL configuration.
func DefaultSQLConfig() *SQLConfig {
	return &SQLConfig{
		Driver:       DriverSQLite3,
		DSN:          "data/steward.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLStorage implements governance.Storage over database/sql.
type SQLStorage struct {
	db     *sql.DB
	config *SQLConfig
	logger *slog.Logger
}

// NewSQLStorage opens the database and creates the schema if needed.
func NewSQLStorage(config *SQLConfig) (*SQLStorage, error) {
	if config == nil {
		config = DefaultSQLConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverSQLite3
	}
	switch config.Driver {
	case DriverSQLite3, DriverSQLite, DriverPostgres:
	default:
		return nil, governance.NewStorageError(config.Driver, "open",
			fmt.Errorf("unsupported driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "governance.storage.sql")

	db, err := sql.Open(config.Driver, sqliteDSN(config.Driver, config.DSN, config.BusyTimeout))
	if err != nil {
		return nil, governance.NewStorageError(config.Driver, "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQL storage initialized",
		"driver", config.Driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLStorage) isPostgres() bool {
	return s.config.Driver == DriverPostgres
}

func (s *SQLStorage) fail(op string, err error) error {
	return governance.NewStorageError(s.config.Driver, op, err)
}

// rebind rewrites '?' placeholders to '$n' for PostgreSQL.
func (s *SQLStorage) rebind(query string) string {
	if !s.isPostgres() {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteDSN adds the busy timeout to a SQLite DSN so every pooled
// connection gets it, not only the one that ran a PRAGMA. A DSN that
// already names a busy timeout is left alone.
func sqliteDSN(driver, dsn string, timeout time.Duration) string {
	if timeout <= 0 || strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	var param string
	switch driver {
	case DriverSQLite3:
		param = fmt.Sprintf("_busy_timeout=%d", timeout.Milliseconds())
	case DriverSQLite:
		param = fmt.Sprintf("_pragma=busy_timeout(%d)", timeout.Milliseconds())
	default:
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

// initialize sets pragmas, creates the schema and checks its version.
func (s *SQLStorage) initialize(ctx context.Context) error {
	if !s.isPostgres() {
		if s.config.WALMode {
			if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
				return s.fail("enable_wal", err)
			}
			s.logger.Debug("WAL mode enabled")
		}
	}

	return s.createSchema(ctx)
}

func (s *SQLStorage) createSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.isPostgres() {
		schema = postgresSchema
	}

	// One statement per Exec keeps every driver happy.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.fail("create_schema", err)
		}
	}
	s.logger.Debug("database schema created")

	now := time.Now().UTC().Format(timestampLayout)
	if _, err := s.db.ExecContext(ctx, s.rebind(insertSchemaVersion), SchemaVersion, now); err != nil {
		return s.fail("insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s.fail("get_schema_version", err)
	}
	if version != SchemaVersion {
		return s.fail("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Reset drops every table and recreates the schema.
func (s *SQLStorage) Reset(ctx context.Context) error {
	for _, table := range dropTables {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return s.fail("reset", err)
		}
	}
	s.logger.Info("storage reset")
	return s.createSchema(ctx)
}

// Close releases resources held by the storage backend.
func (s *SQLStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return s.fail("close", err)
	}
	s.logger.Info("SQL storage closed")
	return nil
}

// DB exposes the underlying handle for tests and maintenance commands.
func (s *SQLStorage) DB() *sql.DB {
	return s.db
}

// --- reference data ---

// UpsertTerm inserts or replaces a business term.
func (s *SQLStorage) UpsertTerm(ctx context.Context, term *governance.BusinessTerm) error {
	if err := governance.ValidateCriticality(term.Criticality); err != nil {
		return err
	}
	query := `
		INSERT INTO business_terms (term_id, name, criticality) VALUES (?, ?, ?)
		ON CONFLICT(term_id) DO UPDATE SET name = excluded.name, criticality = excluded.criticality`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), term.ID, term.Name, term.Criticality); err != nil {
		return s.fail("upsert_term", err)
	}
	return nil
}

// UpsertRule inserts or replaces a rule.
func (s *SQLStorage) UpsertRule(ctx context.Context, rule *governance.Rule) error {
	if err := governance.ValidateThreshold(rule.Threshold); err != nil {
		return err
	}
	query := `
		INSERT INTO rules (rule_id, business_term_id, description, threshold) VALUES (?, ?, ?, ?)
		ON CONFLICT(rule_id) DO UPDATE SET business_term_id = excluded.business_term_id,
			description = excluded.description, threshold = excluded.threshold`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), rule.ID, rule.TermID, rule.Description, rule.Threshold); err != nil {
		return s.fail("upsert_rule", err)
	}
	return nil
}

// UpsertTDE inserts or replaces a tracked data element.
func (s *SQLStorage) UpsertTDE(ctx context.Context, tde *governance.TrackedDataElement) error {
	query := `
		INSERT INTO tde (tde_id, name, business_term_id) VALUES (?, ?, ?)
		ON CONFLICT(tde_id) DO UPDATE SET name = excluded.name, business_term_id = excluded.business_term_id`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), tde.ID, tde.Name, tde.TermID); err != nil {
		return s.fail("upsert_tde", err)
	}
	return nil
}

// UpsertLineage inserts or replaces the mapping of one element.
func (s *SQLStorage) UpsertLineage(ctx context.Context, m *governance.LineageMapping) error {
	query := `
		INSERT INTO column_mapping (tde_id, model_name, column_name) VALUES (?, ?, ?)
		ON CONFLICT(tde_id) DO UPDATE SET model_name = excluded.model_name, column_name = excluded.column_name`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), m.TDEID, m.ArtifactName, m.FieldName); err != nil {
		return s.fail("upsert_lineage", err)
	}
	return nil
}

// UpsertArtifact inserts or replaces an artifact's source text.
func (s *SQLStorage) UpsertArtifact(ctx context.Context, a *governance.Artifact) error {
	query := `
		INSERT INTO sql_models (model_name, sql_text) VALUES (?, ?)
		ON CONFLICT(model_name) DO UPDATE SET sql_text = excluded.sql_text`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), a.Name, a.SourceText); err != nil {
		return s.fail("upsert_artifact", err)
	}
	return nil
}

// UpsertScore inserts or replaces one daily score.
func (s *SQLStorage) UpsertScore(ctx context.Context, score *governance.DailyScore) error {
	if err := governance.ValidateScore(score.Score); err != nil {
		return err
	}
	if _, err := governance.ParseDate(score.Date); err != nil {
		return err
	}
	query := `
		INSERT INTO dq_scores (date, tde_id, score) VALUES (?, ?, ?)
		ON CONFLICT(date, tde_id) DO UPDATE SET score = excluded.score`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), score.Date, score.TDEID, score.Score); err != nil {
		return s.fail("upsert_score", err)
	}
	return nil
}

// ListTDEs returns every tracked element ordered by ID.
func (s *SQLStorage) ListTDEs(ctx context.Context) ([]*governance.TrackedDataElement, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tde_id, name, business_term_id FROM tde ORDER BY tde_id")
	if err != nil {
		return nil, s.fail("list_tdes", err)
	}
	defer rows.Close()

	tdes := []*governance.TrackedDataElement{}
	for rows.Next() {
		t := &governance.TrackedDataElement{}
		if err := rows.Scan(&t.ID, &t.Name, &t.TermID); err != nil {
			return nil, s.fail("list_tdes", err)
		}
		tdes = append(tdes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_tdes", err)
	}
	return tdes, nil
}

// ListObservations joins rules, terms, elements and scores for one day.
func (s *SQLStorage) ListObservations(ctx context.Context, date string) ([]*governance.Observation, error) {
	query := `
		SELECT r.rule_id, r.business_term_id, r.description, r.threshold,
		       b.name, b.criticality,
		       t.tde_id, t.name,
		       d.score
		FROM rules r
		JOIN business_terms b ON r.business_term_id = b.term_id
		JOIN tde t ON t.business_term_id = b.term_id
		JOIN dq_scores d ON d.tde_id = t.tde_id
		WHERE d.date = ?
		ORDER BY r.rule_id, t.tde_id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), date)
	if err != nil {
		return nil, s.fail("list_observations", err)
	}
	defer rows.Close()

	obs := []*governance.Observation{}
	for rows.Next() {
		o := &governance.Observation{Date: date}
		if err := rows.Scan(
			&o.Rule.ID, &o.Rule.TermID, &o.Rule.Description, &o.Rule.Threshold,
			&o.Term.Name, &o.Term.Criticality,
			&o.TDE.ID, &o.TDE.Name,
			&o.Score,
		); err != nil {
			return nil, s.fail("list_observations", err)
		}
		o.Term.ID = o.Rule.TermID
		o.TDE.TermID = o.Rule.TermID
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_observations", err)
	}
	return obs, nil
}

// GetScore returns the score of one element on one day.
func (s *SQLStorage) GetScore(ctx context.Context, date, tdeID string) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT score FROM dq_scores WHERE date = ? AND tde_id = ?"), date, tdeID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, governance.ErrNotFound
	}
	if err != nil {
		return 0, s.fail("get_score", err)
	}
	return score, nil
}

// GetLineage returns the mapping for an element.
func (s *SQLStorage) GetLineage(ctx context.Context, tdeID string) (*governance.LineageMapping, error) {
	m := &governance.LineageMapping{}
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT tde_id, model_name, column_name FROM column_mapping WHERE tde_id = ?"), tdeID).
		Scan(&m.TDEID, &m.ArtifactName, &m.FieldName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, governance.ErrNotFound
	}
	if err != nil {
		return nil, s.fail("get_lineage", err)
	}
	return m, nil
}

// GetArtifact returns an artifact by name.
func (s *SQLStorage) GetArtifact(ctx context.Context, name string) (*governance.Artifact, error) {
	a := &governance.Artifact{}
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT model_name, sql_text FROM sql_models WHERE model_name = ?"), name).
		Scan(&a.Name, &a.SourceText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, governance.ErrNotFound
	}
	if err != nil {
		return nil, s.fail("get_artifact", err)
	}
	return a, nil
}

// ImpactOfTerm traces a term, matched by ID or name, down to artifacts.
func (s *SQLStorage) ImpactOfTerm(ctx context.Context, term string) ([]*governance.ImpactPath, error) {
	query := `
		SELECT m.model_name, m.column_name, t.tde_id, b.term_id, b.name
		FROM business_terms b
		JOIN tde t ON t.business_term_id = b.term_id
		JOIN column_mapping m ON m.tde_id = t.tde_id
		WHERE b.term_id = ? OR b.name = ?
		ORDER BY t.tde_id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), term, term)
	if err != nil {
		return nil, s.fail("impact_of_term", err)
	}
	defer rows.Close()

	paths := []*governance.ImpactPath{}
	for rows.Next() {
		p := &governance.ImpactPath{}
		if err := rows.Scan(&p.ArtifactName, &p.FieldName, &p.TDEID, &p.TermID, &p.TermName); err != nil {
			return nil, s.fail("impact_of_term", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("impact_of_term", err)
	}
	return paths, nil
}

// ImpactOfArtifact traces an artifact up to elements, terms and rules.
func (s *SQLStorage) ImpactOfArtifact(ctx context.Context, artifact string) ([]*governance.ImpactPath, error) {
	query := `
		SELECT m.model_name, m.column_name, t.tde_id, b.term_id, b.name, r.description
		FROM column_mapping m
		JOIN tde t ON m.tde_id = t.tde_id
		JOIN business_terms b ON t.business_term_id = b.term_id
		JOIN rules r ON r.business_term_id = b.term_id
		WHERE m.model_name = ?
		ORDER BY t.tde_id, r.rule_id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), artifact)
	if err != nil {
		return nil, s.fail("impact_of_artifact", err)
	}
	defer rows.Close()

	paths := []*governance.ImpactPath{}
	for rows.Next() {
		p := &governance.ImpactPath{}
		if err := rows.Scan(&p.ArtifactName, &p.FieldName, &p.TDEID, &p.TermID, &p.TermName, &p.RuleDesc); err != nil {
			return nil, s.fail("impact_of_artifact", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("impact_of_artifact", err)
	}
	return paths, nil
}

// --- events ---

// AppendEvent persists an event and assigns its Seq. Re-appending an event
// with an existing ID is a no-op that returns the original Seq.
func (s *SQLStorage) AppendEvent(ctx context.Context, event *governance.Event) error {
	contextJSON, err := json.Marshal(event.Context)
	if err != nil {
		return s.fail("append_event", err)
	}
	metricsJSON, err := json.Marshal(event.Metrics)
	if err != nil {
		return s.fail("append_event", err)
	}

	query := `
		INSERT INTO event_log (
			event_id, timestamp, event_type, entity_type, entity_id, entity_name,
			context, metrics, explanation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, s.rebind(query),
		event.ID, event.Timestamp.UTC().Format(timestampLayout), string(event.Kind),
		event.EntityType, event.EntityID, event.EntityName,
		string(contextJSON), string(metricsJSON), event.Explanation,
	)
	if err != nil {
		return s.fail("append_event", err)
	}

	if err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT seq FROM event_log WHERE event_id = ?"), event.ID).Scan(&event.Seq); err != nil {
		return s.fail("append_event", err)
	}
	return nil
}

// QueryEvents returns matching events in append order.
func (s *SQLStorage) QueryEvents(ctx context.Context, query *governance.EventQuery) ([]*governance.Event, error) {
	if query == nil {
		query = &governance.EventQuery{}
	}
	whereClause, args := buildEventWhereClause(query)

	sqlQuery := `SELECT seq, event_id, timestamp, event_type, entity_type, entity_id, entity_name,
		context, metrics, explanation FROM event_log`
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY seq ASC"
	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(sqlQuery), args...)
	if err != nil {
		return nil, s.fail("query_events", err)
	}
	defer rows.Close()

	events := []*governance.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, s.fail("scan_event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("query_events", err)
	}
	return events, nil
}

func buildEventWhereClause(q *governance.EventQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if len(q.Kinds) > 0 {
		placeholders := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		conditions = append(conditions, "event_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if q.EntityType != "" {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, q.EntityType)
	}
	if q.EntityID != "" {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, q.EntityID)
	}
	if q.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, q.Since.UTC().Format(timestampLayout))
	}
	if q.Until != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, q.Until.UTC().Format(timestampLayout))
	}
	if q.AfterSeq > 0 {
		conditions = append(conditions, "seq > ?")
		args = append(args, q.AfterSeq)
	}

	return strings.Join(conditions, " AND "), args
}

func scanEvent(rows *sql.Rows) (*governance.Event, error) {
	var (
		e           governance.Event
		ts, kind    string
		ctxJSON     sql.NullString
		metricsJSON sql.NullString
	)
	if err := rows.Scan(&e.Seq, &e.ID, &ts, &kind, &e.EntityType, &e.EntityID, &e.EntityName,
		&ctxJSON, &metricsJSON, &e.Explanation); err != nil {
		return nil, err
	}

	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	e.Timestamp = t
	e.Kind = governance.EventKind(kind)

	if ctxJSON.Valid && ctxJSON.String != "" && ctxJSON.String != "null" {
		if err := json.Unmarshal([]byte(ctxJSON.String), &e.Context); err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
	}
	if metricsJSON.Valid && metricsJSON.String != "" && metricsJSON.String != "null" {
		if err := json.Unmarshal([]byte(metricsJSON.String), &e.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
	}
	return &e, nil
}

// --- pending actions ---

// InsertAction persists a new pending action.
func (s *SQLStorage) InsertAction(ctx context.Context, a *governance.PendingAction) error {
	if !a.Status.Valid() {
		return &governance.ContractError{Field: "status", Message: fmt.Sprintf("unknown action status %q", a.Status)}
	}
	query := `
		INSERT INTO pending_actions (action_id, created_at, tde_id, model_name, suggestion, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		a.ID, a.CreatedAt.UTC().Format(timestampLayout), a.TDEID, a.ArtifactName, a.Suggestion, string(a.Status))
	if err != nil {
		return s.fail("insert_action", err)
	}
	return nil
}

// ListActions returns actions with the given status, or all when empty.
func (s *SQLStorage) ListActions(ctx context.Context, status governance.ActionStatus) ([]*governance.PendingAction, error) {
	query := "SELECT action_id, created_at, tde_id, model_name, suggestion, status FROM pending_actions"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at, action_id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.fail("list_actions", err)
	}
	defer rows.Close()

	out := []*governance.PendingAction{}
	for rows.Next() {
		var (
			a          governance.PendingAction
			created    string
			statusText string
		)
		if err := rows.Scan(&a.ID, &created, &a.TDEID, &a.ArtifactName, &a.Suggestion, &statusText); err != nil {
			return nil, s.fail("list_actions", err)
		}
		t, err := time.Parse(timestampLayout, created)
		if err != nil {
			return nil, s.fail("list_actions", err)
		}
		a.CreatedAt = t
		a.Status = governance.ActionStatus(statusText)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_actions", err)
	}
	return out, nil
}

// SetActionStatus updates an action's status.
func (s *SQLStorage) SetActionStatus(ctx context.Context, id string, status governance.ActionStatus) error {
	if !status.Valid() {
		return &governance.ContractError{Field: "status", Message: fmt.Sprintf("unknown action status %q", status)}
	}
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE pending_actions SET status = ? WHERE action_id = ?"), string(status), id)
	if err != nil {
		return s.fail("set_action_status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail("set_action_status", err)
	}
	if n == 0 {
		return governance.ErrNotFound
	}
	return nil
}

// DeleteAction removes an action and reports whether a row existed.
func (s *SQLStorage) DeleteAction(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM pending_actions WHERE action_id = ?"), id)
	if err != nil {
		return false, s.fail("delete_action", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail("delete_action", err)
	}
	return n > 0, nil
}

var _ governance.Storage = (*SQLStorage)(nil)
