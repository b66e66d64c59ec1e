// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists research sessions (plan, queries, sources,
// reasoning, and the final report) to a SQLite database so completed
// sessions can be listed, replayed, and re-resolved.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deepresearch/pkg/types"
)

const dbFile = "sessions.db"

// Store manages the session SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the session database at dir/sessions.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "sessions"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			max_depth INTEGER,
			depth INTEGER,
			plan TEXT,
			reasoning TEXT,
			decision_complete INTEGER,
			decision_reason TEXT,
			stop_reason TEXT,
			input_tokens INTEGER,
			output_tokens INTEGER,
			started_at TEXT,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS queries (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			position INTEGER NOT NULL,
			query TEXT NOT NULL,
			PRIMARY KEY (session_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			ref INTEGER NOT NULL,
			url TEXT,
			title TEXT,
			domain TEXT,
			content TEXT,
			snippets TEXT,
			PRIMARY KEY (session_id, ref)
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			entry INTEGER NOT NULL,
			query TEXT NOT NULL,
			failed INTEGER,
			refs TEXT,
			PRIMARY KEY (session_id, entry)
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			session_id TEXT PRIMARY KEY REFERENCES sessions(id),
			text TEXT,
			bibliography TEXT,
			input_tokens INTEGER,
			output_tokens INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save persists the session together with the registry's sources. Saving is
// an upsert: re-saving the same session ID replaces its rows.
func (s *Store) Save(ctx context.Context, sess *types.ResearchSession, sources []types.Source) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions
		 (id, topic, max_depth, depth, plan, reasoning, decision_complete, decision_reason,
		  stop_reason, input_tokens, output_tokens, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Topic, sess.MaxDepth, sess.Depth, sess.Plan, sess.Reasoning,
		boolToInt(sess.Decision.IsComplete), sess.Decision.Reason, sess.StopReason,
		sess.Usage.InputTokens, sess.Usage.OutputTokens,
		sess.StartedAt.UTC().Format(time.RFC3339Nano),
		sess.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	for _, table := range []string{"queries", "sources", "evidence"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", table), sess.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, q := range sess.Queries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO queries (session_id, position, query) VALUES (?, ?, ?)`,
			sess.ID, i, q); err != nil {
			return fmt.Errorf("saving query %d: %w", i, err)
		}
	}

	for _, src := range sources {
		snippets, err := json.Marshal(src.Snippets)
		if err != nil {
			return fmt.Errorf("marshaling snippets for ref %d: %w", src.Ref, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sources (session_id, ref, url, title, domain, content, snippets)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, src.Ref, src.URL, src.Title, src.Domain, src.Content, string(snippets)); err != nil {
			return fmt.Errorf("saving source %d: %w", src.Ref, err)
		}
	}

	for i, qr := range sess.Evidence {
		refs := make([]int, 0, len(qr.Sources))
		for _, src := range qr.Sources {
			refs = append(refs, src.Ref)
		}
		refsJSON, err := json.Marshal(refs)
		if err != nil {
			return fmt.Errorf("marshaling refs for entry %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO evidence (session_id, entry, query, failed, refs) VALUES (?, ?, ?, ?, ?)`,
			sess.ID, i, qr.Query, boolToInt(qr.Failed), string(refsJSON)); err != nil {
			return fmt.Errorf("saving evidence entry %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// SaveReport persists the final report for a session.
func (s *Store) SaveReport(ctx context.Context, sessionID string, report types.Report) error {
	bib, err := json.Marshal(report.Bibliography)
	if err != nil {
		return fmt.Errorf("marshaling bibliography: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (session_id, text, bibliography, input_tokens, output_tokens)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, report.Text, string(bib), report.Usage.InputTokens, report.Usage.OutputTokens)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// Load reconstructs a session and its registered sources (in ascending
// reference order) from the database.
func (s *Store) Load(ctx context.Context, id string) (*types.ResearchSession, []types.Source, error) {
	sess := &types.ResearchSession{ID: id}
	var complete int
	var startedAt, finishedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT topic, max_depth, depth, plan, reasoning, decision_complete, decision_reason,
		        stop_reason, input_tokens, output_tokens, started_at, finished_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&sess.Topic, &sess.MaxDepth, &sess.Depth, &sess.Plan, &sess.Reasoning,
			&complete, &sess.Decision.Reason, &sess.StopReason,
			&sess.Usage.InputTokens, &sess.Usage.OutputTokens, &startedAt, &finishedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	sess.Decision.IsComplete = complete != 0
	sess.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	sess.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)

	if err := s.loadQueries(ctx, sess); err != nil {
		return nil, nil, err
	}

	sources, byRef, err := s.loadSources(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := s.loadEvidence(ctx, sess, byRef); err != nil {
		return nil, nil, err
	}

	return sess, sources, nil
}

func (s *Store) loadQueries(ctx context.Context, sess *types.ResearchSession) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query FROM queries WHERE session_id = ? ORDER BY position`, sess.ID)
	if err != nil {
		return fmt.Errorf("loading queries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return fmt.Errorf("scanning query: %w", err)
		}
		sess.Queries = append(sess.Queries, q)
	}
	return rows.Err()
}

func (s *Store) loadSources(ctx context.Context, id string) ([]types.Source, map[int]types.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref, url, title, domain, content, snippets
		 FROM sources WHERE session_id = ? ORDER BY ref`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading sources: %w", err)
	}
	defer rows.Close()

	var sources []types.Source
	byRef := make(map[int]types.Source)
	for rows.Next() {
		var src types.Source
		var snippets string
		if err := rows.Scan(&src.Ref, &src.URL, &src.Title, &src.Domain, &src.Content, &snippets); err != nil {
			return nil, nil, fmt.Errorf("scanning source: %w", err)
		}
		if snippets != "" {
			if err := json.Unmarshal([]byte(snippets), &src.Snippets); err != nil {
				return nil, nil, fmt.Errorf("parsing snippets for ref %d: %w", src.Ref, err)
			}
		}
		sources = append(sources, src)
		byRef[src.Ref] = src
	}
	return sources, byRef, rows.Err()
}

func (s *Store) loadEvidence(ctx context.Context, sess *types.ResearchSession, byRef map[int]types.Source) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, failed, refs FROM evidence WHERE session_id = ? ORDER BY entry`, sess.ID)
	if err != nil {
		return fmt.Errorf("loading evidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qr types.QueryResult
		var failed int
		var refsJSON string
		if err := rows.Scan(&qr.Query, &failed, &refsJSON); err != nil {
			return fmt.Errorf("scanning evidence entry: %w", err)
		}
		qr.Failed = failed != 0

		var refs []int
		if err := json.Unmarshal([]byte(refsJSON), &refs); err != nil {
			return fmt.Errorf("parsing evidence refs: %w", err)
		}
		for _, ref := range refs {
			if src, ok := byRef[ref]; ok {
				qr.Sources = append(qr.Sources, src)
			}
		}
		sess.Evidence = append(sess.Evidence, qr)
	}
	return rows.Err()
}

// Summary is one row of the session listing.
type Summary struct {
	ID         string
	Topic      string
	Depth      int
	StopReason string
	StartedAt  time.Time
}

// List returns summaries of all stored sessions, most recent first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, depth, stop_reason, started_at
		 FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var startedAt string
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Depth, &sum.StopReason, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sum.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// exportDoc is the YAML shape of one exported session log.
type exportDoc struct {
	Session *types.ResearchSession `yaml:"session"`
	Sources []types.Source         `yaml:"sources"`
	Report  *types.Report          `yaml:"report,omitempty"`
}

// ExportYAML writes a human-readable replay log to dir/<id>.yaml. report may
// be nil when the session failed before drafting.
func (s *Store) ExportYAML(sess *types.ResearchSession, sources []types.Source, report *types.Report) error {
	data, err := yaml.Marshal(exportDoc{Session: sess, Sources: sources, Report: report})
	if err != nil {
		return fmt.Errorf("marshaling session export: %w", err)
	}
	path := filepath.Join(s.dir, sess.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session export: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
