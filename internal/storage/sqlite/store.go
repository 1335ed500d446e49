// Package sqlite persists pipeline runs and hand-offs in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/storage"
)

// Store is a SQLite implementation of RunStore.
type Store struct {
	db *sql.DB
}

var _ storage.RunStore = (*Store)(nil)

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			params TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS handoffs (
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			role TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (run_id, stage),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_workflow ON runs(workflow)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_handoffs_run ON handoffs(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) CreateRun(ctx context.Context, run *domain.PipelineRun) error {
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now
	if run.Handoffs == nil {
		run.Handoffs = []domain.Handoff{}
	}

	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	query := `INSERT INTO runs (id, workflow, params, status, error, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		run.ID, run.Workflow, string(params), string(run.Status), run.Error,
		run.CreatedAt, run.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*domain.PipelineRun, error) {
	query := `SELECT id, workflow, params, status, error, created_at, updated_at
	          FROM runs WHERE id = ?`

	run, err := s.scanRun(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	handoffs, err := s.getHandoffs(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Handoffs = handoffs

	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRun(row rowScanner) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	var paramsJSON string
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &run.Workflow, &paramsJSON, &run.Status, &errMsg,
		&run.CreatedAt, &run.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	run.Handoffs = []domain.Handoff{}

	return &run, nil
}

func (s *Store) getHandoffs(ctx context.Context, runID string) ([]domain.Handoff, error) {
	query := `SELECT stage, role, payload, created_at
	          FROM handoffs WHERE run_id = ?
	          ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query handoffs: %w", err)
	}
	defer rows.Close()

	handoffs := []domain.Handoff{}
	for rows.Next() {
		var h domain.Handoff
		var payload string
		if err := rows.Scan(&h.Stage, &h.Role, &payload, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan handoff: %w", err)
		}
		h.Payload = json.RawMessage(payload)
		handoffs = append(handoffs, h)
	}

	return handoffs, rows.Err()
}

func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*domain.PipelineRun, error) {
	// Negative values come straight from query parameters and mean "unset".
	limit := opts.Limit
	if limit <= 0 {
		limit = 100 // default limit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var rows *sql.Rows
	var err error
	if opts.Workflow != "" {
		query := `SELECT id, workflow, params, status, error, created_at, updated_at
		          FROM runs WHERE workflow = ?
		          ORDER BY created_at DESC
		          LIMIT ? OFFSET ?`
		rows, err = s.db.QueryContext(ctx, query, opts.Workflow, limit, offset)
	} else {
		query := `SELECT id, workflow, params, status, error, created_at, updated_at
		          FROM runs
		          ORDER BY created_at DESC
		          LIMIT ? OFFSET ?`
		rows, err = s.db.QueryContext(ctx, query, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.PipelineRun
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, run := range runs {
		handoffs, err := s.getHandoffs(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		run.Handoffs = handoffs
	}

	return runs, nil
}

func (s *Store) AppendHandoff(ctx context.Context, runID string, h *domain.Handoff) error {
	h.CreatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check run: %w", err)
	}
	if exists == 0 {
		return storage.ErrNotFound
	}

	var dup int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM handoffs WHERE run_id = ? AND stage = ?`, runID, h.Stage).Scan(&dup)
	if err != nil {
		return fmt.Errorf("failed to check handoff: %w", err)
	}
	if dup > 0 {
		return storage.ErrDuplicateStage
	}

	query := `INSERT INTO handoffs (run_id, stage, role, payload, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		runID, h.Stage, string(h.Role), string(h.Payload), h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert handoff: %w", err)
	}

	updateQuery := `UPDATE runs SET updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, updateQuery, time.Now(), runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return tx.Commit()
}

func (s *Store) UpdateRunStatus(ctx context.Context, id string, status domain.RunStatus, errMsg string) error {
	query := `UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, string(status), errMsg, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
