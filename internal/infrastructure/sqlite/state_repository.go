package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// stateRepository implements plugin.StateRepository using SQLite.
type stateRepository struct {
	db *sql.DB
}

func newStateRepository(db *sql.DB) *stateRepository {
	return &stateRepository{db: db}
}

var _ plugin.StateRepository = (*stateRepository)(nil)

// DisabledPlugins returns the disabled plugin names, sorted.
func (r *stateRepository) DisabledPlugins() ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM disabled_plugins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list disabled plugins: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan disabled plugin: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SetDisabled adds or removes name from disabled_plugins. Both directions are idempotent.
func (r *stateRepository) SetDisabled(name string, disabled bool) error {
	var err error
	if disabled {
		_, err = r.db.Exec(
			`INSERT INTO disabled_plugins (name, disabled_at) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`,
			name, time.Now().UnixMilli(),
		)
	} else {
		_, err = r.db.Exec(`DELETE FROM disabled_plugins WHERE name = ?`, name)
	}
	if err != nil {
		return fmt.Errorf("failed to set disabled state of %s: %w", name, err)
	}
	return nil
}

// SaveRun inserts the run and its diagnostics in one transaction.
func (r *stateRepository) SaveRun(run *plugin.ResolutionRun) error {
	model, err := toRunModel(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(
		`INSERT INTO resolution_runs (guid, created_at, enabled) VALUES (?, ?, ?)`,
		model.GUID, model.CreatedAt, model.Enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i, d := range run.Diagnostics {
		if _, err := tx.Exec(
			`INSERT INTO run_diagnostics (run_id, seq, plugin, reason, message) VALUES (?, ?, ?, ?, ?)`,
			runID, i, d.Plugin, d.Reason, d.Message,
		); err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}
	return tx.Commit()
}

// LatestRun returns the most recently created run, or plugin.ErrRunNotFound.
func (r *stateRepository) LatestRun() (*plugin.ResolutionRun, error) {
	var m RunModel
	err := r.db.QueryRow(
		`SELECT id, guid, created_at, enabled FROM resolution_runs ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&m.ID, &m.GUID, &m.CreatedAt, &m.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plugin.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}

	rows, err := r.db.Query(
		`SELECT run_id, seq, plugin, reason, message FROM run_diagnostics WHERE run_id = ? ORDER BY seq`,
		m.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []DiagnosticModel
	for rows.Next() {
		var d DiagnosticModel
		if err := rows.Scan(&d.RunID, &d.Seq, &d.Plugin, &d.Reason, &d.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m.toDomain(diags), nil
}
