package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/resync-dev/resync/internal/adapters/driven/state/sqlite/migrations"
	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.StateStore = (*Store)(nil)

// Store persists service status and sync session history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.resync/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".resync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// WAL mode: the status command reads while the service writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

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

// migrate applies any pending .up.sql migrations from fsys in order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1).
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveStatus persists the current service status snapshot. The status
// table holds a single row that is overwritten on every transition.
func (s *Store) SaveStatus(ctx context.Context, status *domain.ServiceStatus) error {
	if status == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_status (id, state, since, consecutive_failures, pid, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			since = excluded.since,
			consecutive_failures = excluded.consecutive_failures,
			pid = excluded.pid,
			updated_at = CURRENT_TIMESTAMP
	`, string(status.State), formatNullableTime(status.Since), status.ConsecutiveFailures, status.PID)

	if err != nil {
		return fmt.Errorf("saving service status: %w", err)
	}
	return nil
}

// LoadStatus returns the last persisted status.
func (s *Store) LoadStatus(ctx context.Context) (*domain.ServiceStatus, error) {
	var (
		state    string
		since    sql.NullString
		failures int
		pid      int
	)

	row := s.db.QueryRowContext(ctx,
		"SELECT state, since, consecutive_failures, pid FROM service_status WHERE id = 1")
	if err := row.Scan(&state, &since, &failures, &pid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("loading service status: %w", err)
	}

	return &domain.ServiceStatus{
		State:               domain.ServiceState(state),
		Since:               parseNullableTime(since),
		ConsecutiveFailures: failures,
		PID:                 pid,
	}, nil
}

// RecordSession appends a terminal sync session to the history.
func (s *Store) RecordSession(ctx context.Context, session *domain.SyncSession) error {
	if session == nil {
		return domain.ErrInvalidInput
	}

	files, err := json.Marshal(session.Files)
	if err != nil {
		return fmt.Errorf("encoding session files: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_sessions
			(id, started_at, ended_at, files, blocked_files, findings,
			 commit_ref, push_result, attempt_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			push_result = excluded.push_result,
			attempt_count = excluded.attempt_count,
			error = excluded.error
	`, session.ID, session.StartedAt.UTC().Format(time.RFC3339Nano),
		formatNullableTime(session.EndedAt), string(files),
		session.BlockedFiles, session.Findings,
		nullString(session.CommitRef), string(session.PushResult),
		session.AttemptCount, nullString(session.Error))

	if err != nil {
		return fmt.Errorf("recording sync session: %w", err)
	}
	return nil
}

// LastSession returns the most recent recorded session.
func (s *Store) LastSession(ctx context.Context) (*domain.SyncSession, error) {
	sessions, err := s.SessionHistory(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, domain.ErrNotFound
	}
	return &sessions[0], nil
}

// SessionHistory returns up to limit recent sessions, newest first.
func (s *Store) SessionHistory(ctx context.Context, limit int) ([]domain.SyncSession, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, files, blocked_files, findings,
		       commit_ref, push_result, attempt_count, error
		FROM sync_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.SyncSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// PruneHistory removes all but the most recent keep sessions.
func (s *Store) PruneHistory(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_sessions WHERE id NOT IN (
			SELECT id FROM sync_sessions ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning sync sessions: %w", err)
	}
	return nil
}

// scanSession scans a sync session from *sql.Rows.
func scanSession(rows *sql.Rows) (*domain.SyncSession, error) {
	var session domain.SyncSession
	var startedAt string
	var endedAt, commitRef, errMsg sql.NullString
	var files string
	var pushResult string

	if err := rows.Scan(&session.ID, &startedAt, &endedAt, &files,
		&session.BlockedFiles, &session.Findings,
		&commitRef, &pushResult, &session.AttemptCount, &errMsg); err != nil {
		return nil, fmt.Errorf("scanning sync session: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		session.StartedAt = t
	}
	session.EndedAt = parseNullableTime(endedAt)
	if err := json.Unmarshal([]byte(files), &session.Files); err != nil {
		return nil, fmt.Errorf("decoding session files: %w", err)
	}
	if commitRef.Valid {
		session.CommitRef = commitRef.String
	}
	session.PushResult = domain.PushResult(pushResult)
	if errMsg.Valid {
		session.Error = errMsg.String
	}

	return &session, nil
}

// formatNullableTime formats a time for storage, nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseNullableTime parses a nullable RFC3339 string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
