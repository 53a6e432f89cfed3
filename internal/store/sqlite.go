package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	// SQLite driver; registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// SQLiteConfig holds connection options for the structured store.
type SQLiteConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// DefaultSQLiteConfig returns sensible defaults for the given path.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

// SQLiteStore is the primary structured store. Records live in a single
// posts table keyed by post_id, with the history and map fields held as
// JSON columns.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// migrations is the ordered schema history. Each entry runs once,
// tracked in schema_migrations.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		post_id       TEXT PRIMARY KEY,
		topic         TEXT NOT NULL,
		current_phase TEXT NOT NULL,
		next_agent    TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		agents_run    TEXT,
		agent_outputs TEXT,
		errors        TEXT,
		metadata      TEXT,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_claim
		ON posts (current_phase, next_agent, status)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status
		ON posts (status)`,
}

// OpenSQLite opens the structured store with default configuration.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	return OpenSQLiteWithConfig(DefaultSQLiteConfig(path), logger)
}

// OpenSQLiteWithConfig opens the structured store, enabling WAL mode and
// foreign keys, and applies any pending schema migrations.
func OpenSQLiteWithConfig(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, path: cfg.Path, logger: logger.With("component", "sqlite-store")}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies pending schema migrations inside a transaction.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
				return fmt.Errorf("migration %d failed: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.logger.Debug("applied schema migration", "version", version)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Create persists a new record.
func (s *SQLiteStore) Create(ctx context.Context, rec *workflow.Record) (*workflow.Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	cols, err := marshalColumns(rec)
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM posts WHERE post_id = ?`, rec.PostID).Scan(&exists)
		if err == nil {
			return types.NewAlreadyExistsError(rec.PostID)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check for existing record: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO posts (
				post_id, topic, current_phase, next_agent, status,
				agents_run, agent_outputs, errors, metadata,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.PostID, rec.Topic, string(rec.CurrentPhase), rec.NextAgent, string(rec.Status),
			cols.agentsRun, cols.agentOutputs, cols.errors, cols.metadata,
			rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Get retrieves a record by post_id.
func (s *SQLiteStore) Get(ctx context.Context, postID string) (*workflow.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM posts WHERE post_id = ?`, postID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, types.NewNotFoundError(postID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// Update applies a partial update inside a transaction. The record is
// read, mutated in memory and written back whole; last writer wins,
// which is acceptable under the single-writer-per-record scope.
func (s *SQLiteStore) Update(ctx context.Context, postID string, u workflow.Update) (*workflow.Record, error) {
	var updated *workflow.Record

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, selectColumns+` FROM posts WHERE post_id = ?`, postID)
		rec, err := scanRecord(row)
		if err == sql.ErrNoRows {
			return types.NewNotFoundError(postID)
		}
		if err != nil {
			return fmt.Errorf("failed to read record for update: %w", err)
		}

		u.Apply(rec, time.Now())

		cols, err := marshalColumns(rec)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE posts SET
				current_phase = ?, next_agent = ?, status = ?,
				agents_run = ?, agent_outputs = ?, errors = ?, metadata = ?,
				updated_at = ?
			WHERE post_id = ?`,
			string(rec.CurrentPhase), rec.NextAgent, string(rec.Status),
			cols.agentsRun, cols.agentOutputs, cols.errors, cols.metadata,
			rec.UpdatedAt, postID,
		)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByPhaseAndAgent returns claimable records ordered oldest first.
func (s *SQLiteStore) ListByPhaseAndAgent(ctx context.Context, phase workflow.Phase, agent string) ([]*workflow.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM posts
		WHERE current_phase = ? AND next_agent = ? AND status = ?
		ORDER BY created_at ASC`,
		string(phase), agent, string(workflow.StatusInProgress),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimable records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListAll returns records matching the filter, oldest first.
func (s *SQLiteStore) ListAll(ctx context.Context, f Filter) ([]*workflow.Record, error) {
	query := selectColumns + ` FROM posts`
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(f.Status))
	}
	if f.Phase != "" {
		where = append(where, `current_phase = ?`)
		args = append(args, string(f.Phase))
	}
	for i, w := range where {
		if i == 0 {
			query += ` WHERE ` + w
		} else {
			query += ` AND ` + w
		}
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

const selectColumns = `
	SELECT post_id, topic, current_phase, next_agent, status,
	       agents_run, agent_outputs, errors, metadata,
	       created_at, updated_at`

// jsonColumns holds the serialized JSON column values for a record.
type jsonColumns struct {
	agentsRun    string
	agentOutputs string
	errors       string
	metadata     string
}

func marshalColumns(rec *workflow.Record) (jsonColumns, error) {
	var cols jsonColumns

	agentsRun, err := json.Marshal(rec.AgentsRun)
	if err != nil {
		return cols, fmt.Errorf("failed to marshal agents_run: %w", err)
	}
	cols.agentsRun = string(agentsRun)

	if rec.AgentOutputs != nil {
		b, err := json.Marshal(rec.AgentOutputs)
		if err != nil {
			return cols, fmt.Errorf("failed to marshal agent_outputs: %w", err)
		}
		cols.agentOutputs = string(b)
	}
	if rec.Errors != nil {
		b, err := json.Marshal(rec.Errors)
		if err != nil {
			return cols, fmt.Errorf("failed to marshal errors: %w", err)
		}
		cols.errors = string(b)
	}
	if rec.Metadata != nil {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return cols, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		cols.metadata = string(b)
	}
	return cols, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*workflow.Record, error) {
	var rec workflow.Record
	var phase, status string
	var agentsRun, agentOutputs, errorsCol, metadata sql.NullString

	err := row.Scan(
		&rec.PostID, &rec.Topic, &phase, &rec.NextAgent, &status,
		&agentsRun, &agentOutputs, &errorsCol, &metadata,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.CurrentPhase = workflow.Phase(phase)
	rec.Status = workflow.Status(status)

	if agentsRun.Valid && agentsRun.String != "" {
		if err := json.Unmarshal([]byte(agentsRun.String), &rec.AgentsRun); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agents_run: %w", err)
		}
	}
	if rec.AgentsRun == nil {
		rec.AgentsRun = []string{}
	}
	if agentOutputs.Valid && agentOutputs.String != "" {
		if err := json.Unmarshal([]byte(agentOutputs.String), &rec.AgentOutputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agent_outputs: %w", err)
		}
	}
	if errorsCol.Valid && errorsCol.String != "" {
		if err := json.Unmarshal([]byte(errorsCol.String), &rec.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*workflow.Record, error) {
	var records []*workflow.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}
