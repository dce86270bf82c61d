package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.trustlens/data/trustlens.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".trustlens", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "trustlens.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// RuleStore returns a RuleStore interface backed by this store.
func (s *Store) RuleStore() driven.RuleStore {
	return &ruleStore{store: s}
}

// ReviewStore returns a ReviewStore interface backed by this store.
func (s *Store) ReviewStore() driven.ReviewStore {
	return &reviewStore{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (doc_id, title, path, page_count, chunk_count, status, status_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			title = excluded.title,
			path = excluded.path,
			page_count = excluded.page_count,
			chunk_count = excluded.chunk_count,
			status = excluded.status,
			status_message = excluded.status_message,
			updated_at = excluded.updated_at
	`, doc.DocID, doc.Title, doc.Path, doc.PageCount, doc.ChunkCount,
		string(doc.Status), doc.StatusMessage, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT doc_id, title, path, page_count, chunk_count, status, status_message, created_at, updated_at
		FROM documents WHERE doc_id = ?
	`, docID)

	var doc domain.Document
	var status string
	if err := row.Scan(&doc.DocID, &doc.Title, &doc.Path, &doc.PageCount, &doc.ChunkCount,
		&status, &doc.StatusMessage, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)

	return &doc, nil
}

// ListDocuments returns all documents, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT doc_id, title, path, page_count, chunk_count, status, status_message, created_at, updated_at
		FROM documents ORDER BY created_at, doc_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var status string
		if err := rows.Scan(&doc.DocID, &doc.Title, &doc.Path, &doc.PageCount, &doc.ChunkCount,
			&status, &doc.StatusMessage, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, docID string) error {
	// Chunks go explicitly as well; ON DELETE CASCADE covers them only
	// when foreign keys are enabled on the connection that executes.
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks, replacing chunks with matching IDs.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, doc_id, page, text, bbox, clause_hint, char_start, char_end, token_count, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			doc_id = excluded.doc_id,
			page = excluded.page,
			text = excluded.text,
			bbox = excluded.bbox,
			clause_hint = excluded.clause_hint,
			char_start = excluded.char_start,
			char_end = excluded.char_end,
			token_count = excluded.token_count,
			metadata = excluded.metadata,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		bboxJSON, err := json.Marshal(chunk.BBox)
		if err != nil {
			return fmt.Errorf("marshalling chunk bbox: %w", err)
		}
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ChunkID, chunk.DocID, chunk.Page, chunk.Text,
			string(bboxJSON), chunk.ClauseHint, chunk.CharStart, chunk.CharEnd,
			chunk.TokenCount, string(metadataJSON), chunk.CreatedAt); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document in segmentation order.
func (s *documentStore) GetChunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, doc_id, page, text, bbox, clause_hint, char_start, char_end, token_count, metadata, created_at
		FROM chunks WHERE doc_id = ?
		ORDER BY char_start
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT chunk_id, doc_id, page, text, bbox, clause_hint, char_start, char_end, token_count, metadata, created_at
		FROM chunks WHERE chunk_id = ?
	`, chunkID)

	return scanChunkRow(row)
}

// ==================== Rule Store ====================

// ruleStore implements driven.RuleStore.
type ruleStore struct {
	store *Store
}

var _ driven.RuleStore = (*ruleStore)(nil)

// Save stores a new rule.
func (s *ruleStore) Save(ctx context.Context, rule *domain.Rule) error {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rules WHERE rule_id = ?", rule.RuleID).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking rule existence: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: rule %s", domain.ErrAlreadyExists, rule.RuleID)
	}

	return s.upsert(ctx, rule)
}

// Update replaces an existing rule.
func (s *ruleStore) Update(ctx context.Context, rule *domain.Rule) error {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rules WHERE rule_id = ?", rule.RuleID).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking rule existence: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: rule %s", domain.ErrNotFound, rule.RuleID)
	}

	return s.upsert(ctx, rule)
}

func (s *ruleStore) upsert(ctx context.Context, rule *domain.Rule) error {
	paramsJSON, err := json.Marshal(rule.Params)
	if err != nil {
		return fmt.Errorf("marshalling rule params: %w", err)
	}
	tagsJSON, err := json.Marshal(rule.RetrievalTags)
	if err != nil {
		return fmt.Errorf("marshalling retrieval tags: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO rules (rule_id, name, category, intent, rule_type, params, risk_level,
			retrieval_tags, prompt_template_id, version, enabled, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule_id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			intent = excluded.intent,
			rule_type = excluded.rule_type,
			params = excluded.params,
			risk_level = excluded.risk_level,
			retrieval_tags = excluded.retrieval_tags,
			prompt_template_id = excluded.prompt_template_id,
			version = excluded.version,
			enabled = excluded.enabled,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, rule.RuleID, rule.Name, rule.Category, rule.Intent, string(rule.Type),
		string(paramsJSON), string(rule.RiskLevel), string(tagsJSON),
		rule.PromptTemplateID, rule.Version, rule.Enabled, rule.Description,
		rule.CreatedAt, rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving rule: %w", err)
	}
	return nil
}

// Get retrieves a rule by ID.
func (s *ruleStore) Get(ctx context.Context, ruleID string) (*domain.Rule, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT rule_id, name, category, intent, rule_type, params, risk_level,
			retrieval_tags, prompt_template_id, version, enabled, description, created_at, updated_at
		FROM rules WHERE rule_id = ?
	`, ruleID)

	rule, err := scanRuleRow(row)
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// List returns rules ordered by rule ID.
func (s *ruleStore) List(ctx context.Context, enabledOnly bool) ([]domain.Rule, error) {
	query := `
		SELECT rule_id, name, category, intent, rule_type, params, risk_level,
			retrieval_tags, prompt_template_id, version, enabled, description, created_at, updated_at
		FROM rules`
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY rule_id"

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.Rule //nolint:prealloc // size unknown from query
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}

	return rules, nil
}

// Delete removes a rule.
func (s *ruleStore) Delete(ctx context.Context, ruleID string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM rules WHERE rule_id = ?", ruleID)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: rule %s", domain.ErrNotFound, ruleID)
	}
	return nil
}

// ==================== Review Store ====================

// reviewStore implements driven.ReviewStore.
type reviewStore struct {
	store *Store
}

var _ driven.ReviewStore = (*reviewStore)(nil)

// Save stores or updates a task.
func (s *reviewStore) Save(ctx context.Context, task *domain.ReviewTask) error {
	ruleIDsJSON, err := json.Marshal(task.RuleIDs)
	if err != nil {
		return fmt.Errorf("marshalling rule ids: %w", err)
	}
	resultsJSON, err := json.Marshal(task.Results)
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	metadataJSON, err := json.Marshal(task.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO reviews (review_id, doc_id, rule_ids, status, results, started_at, completed_at, error, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(review_id) DO UPDATE SET
			doc_id = excluded.doc_id,
			rule_ids = excluded.rule_ids,
			status = excluded.status,
			results = excluded.results,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			error = excluded.error,
			metadata = excluded.metadata
	`, task.ReviewID, task.DocID, string(ruleIDsJSON), string(task.Status),
		string(resultsJSON), task.StartedAt, task.CompletedAt, task.Error, string(metadataJSON))

	if err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	return nil
}

// Get retrieves a task by review ID.
func (s *reviewStore) Get(ctx context.Context, reviewID string) (*domain.ReviewTask, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT review_id, doc_id, rule_ids, status, results, started_at, completed_at, error, metadata
		FROM reviews WHERE review_id = ?
	`, reviewID)

	var task domain.ReviewTask
	var status, ruleIDsJSON, resultsJSON, metadataJSON string
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(&task.ReviewID, &task.DocID, &ruleIDsJSON, &status,
		&resultsJSON, &startedAt, &completedAt, &task.Error, &metadataJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning review: %w", err)
	}

	if err := hydrateReview(&task, status, ruleIDsJSON, resultsJSON, metadataJSON, startedAt, completedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns tasks with the given status in creation order.
func (s *reviewStore) List(ctx context.Context, status domain.ReviewStatus) ([]domain.ReviewTask, error) {
	query := `
		SELECT review_id, doc_id, rule_ids, status, results, started_at, completed_at, error, metadata
		FROM reviews`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY rowid"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ReviewTask //nolint:prealloc // size unknown from query
	for rows.Next() {
		var task domain.ReviewTask
		var rowStatus, ruleIDsJSON, resultsJSON, metadataJSON string
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(&task.ReviewID, &task.DocID, &ruleIDsJSON, &rowStatus,
			&resultsJSON, &startedAt, &completedAt, &task.Error, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		if err := hydrateReview(&task, rowStatus, ruleIDsJSON, resultsJSON, metadataJSON, startedAt, completedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}

	return tasks, nil
}

// Delete removes a task.
func (s *reviewStore) Delete(ctx context.Context, reviewID string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM reviews WHERE review_id = ?", reviewID)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: review %s", domain.ErrNotFound, reviewID)
	}
	return nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Save stores or updates a session.
func (s *sessionStore) Save(ctx context.Context, session *domain.ExplainSession) error {
	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("marshalling messages: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO explain_sessions (session_id, review_id, rule_id, messages, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			review_id = excluded.review_id,
			rule_id = excluded.rule_id,
			messages = excluded.messages,
			last_updated = excluded.last_updated
	`, session.SessionID, session.ReviewID, session.RuleID,
		string(messagesJSON), session.CreatedAt, session.LastUpdated)

	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, sessionID string) (*domain.ExplainSession, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT session_id, review_id, rule_id, messages, created_at, last_updated
		FROM explain_sessions WHERE session_id = ?
	`, sessionID)

	var session domain.ExplainSession
	var messagesJSON string
	if err := row.Scan(&session.SessionID, &session.ReviewID, &session.RuleID,
		&messagesJSON, &session.CreatedAt, &session.LastUpdated); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
		return nil, fmt.Errorf("unmarshalling messages: %w", err)
	}

	return &session, nil
}

// List returns sessions most recently updated first.
func (s *sessionStore) List(ctx context.Context) ([]domain.ExplainSession, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id, review_id, rule_id, messages, created_at, last_updated
		FROM explain_sessions ORDER BY last_updated DESC, session_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ExplainSession //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.ExplainSession
		var messagesJSON string
		if err := rows.Scan(&session.SessionID, &session.ReviewID, &session.RuleID,
			&messagesJSON, &session.CreatedAt, &session.LastUpdated); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
			return nil, fmt.Errorf("unmarshalling messages: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes a session.
func (s *sessionStore) Delete(ctx context.Context, sessionID string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM explain_sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var bboxJSON, metadataJSON string

	if err := rows.Scan(&chunk.ChunkID, &chunk.DocID, &chunk.Page, &chunk.Text,
		&bboxJSON, &chunk.ClauseHint, &chunk.CharStart, &chunk.CharEnd,
		&chunk.TokenCount, &metadataJSON, &chunk.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if err := hydrateChunk(&chunk, bboxJSON, metadataJSON); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var bboxJSON, metadataJSON string

	if err := row.Scan(&chunk.ChunkID, &chunk.DocID, &chunk.Page, &chunk.Text,
		&bboxJSON, &chunk.ClauseHint, &chunk.CharStart, &chunk.CharEnd,
		&chunk.TokenCount, &metadataJSON, &chunk.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if err := hydrateChunk(&chunk, bboxJSON, metadataJSON); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func hydrateChunk(chunk *domain.Chunk, bboxJSON, metadataJSON string) error {
	if bboxJSON != "" {
		if err := json.Unmarshal([]byte(bboxJSON), &chunk.BBox); err != nil {
			return fmt.Errorf("unmarshalling chunk bbox: %w", err)
		}
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}
	return nil
}

// scanRule scans a rule from *sql.Rows.
func scanRule(rows *sql.Rows) (*domain.Rule, error) {
	var rule domain.Rule
	var ruleType, riskLevel, paramsJSON, tagsJSON string

	if err := rows.Scan(&rule.RuleID, &rule.Name, &rule.Category, &rule.Intent,
		&ruleType, &paramsJSON, &riskLevel, &tagsJSON, &rule.PromptTemplateID,
		&rule.Version, &rule.Enabled, &rule.Description, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning rule: %w", err)
	}

	if err := hydrateRule(&rule, ruleType, riskLevel, paramsJSON, tagsJSON); err != nil {
		return nil, err
	}
	return &rule, nil
}

// scanRuleRow scans a rule from *sql.Row.
func scanRuleRow(row *sql.Row) (*domain.Rule, error) {
	var rule domain.Rule
	var ruleType, riskLevel, paramsJSON, tagsJSON string

	if err := row.Scan(&rule.RuleID, &rule.Name, &rule.Category, &rule.Intent,
		&ruleType, &paramsJSON, &riskLevel, &tagsJSON, &rule.PromptTemplateID,
		&rule.Version, &rule.Enabled, &rule.Description, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning rule: %w", err)
	}

	if err := hydrateRule(&rule, ruleType, riskLevel, paramsJSON, tagsJSON); err != nil {
		return nil, err
	}
	return &rule, nil
}

func hydrateRule(rule *domain.Rule, ruleType, riskLevel, paramsJSON, tagsJSON string) error {
	rule.Type = domain.RuleType(ruleType)
	rule.RiskLevel = domain.RiskLevel(riskLevel)

	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &rule.Params); err != nil {
			return fmt.Errorf("unmarshalling rule params: %w", err)
		}
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &rule.RetrievalTags); err != nil {
			return fmt.Errorf("unmarshalling retrieval tags: %w", err)
		}
	}
	return nil
}

func hydrateReview(
	task *domain.ReviewTask,
	status, ruleIDsJSON, resultsJSON, metadataJSON string,
	startedAt, completedAt sql.NullTime,
) error {
	task.Status = domain.ReviewStatus(status)

	if ruleIDsJSON != "" {
		if err := json.Unmarshal([]byte(ruleIDsJSON), &task.RuleIDs); err != nil {
			return fmt.Errorf("unmarshalling rule ids: %w", err)
		}
	}
	if resultsJSON != "" {
		if err := json.Unmarshal([]byte(resultsJSON), &task.Results); err != nil {
			return fmt.Errorf("unmarshalling results: %w", err)
		}
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &task.Metadata); err != nil {
			return fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return nil
}
