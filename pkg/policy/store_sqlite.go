package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warden-systems/warden/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists learned policies to SQLite for deployments that
// outlive the process. Semantics match MemoryStore: append-only, scanned
// by id, cleared for reset.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened database handle and runs the migration.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS learned_policies (
        policy_id TEXT PRIMARY KEY,
        source_proposal TEXT NOT NULL,
        change_type TEXT NOT NULL,
        constraint_text TEXT NOT NULL,
        affected_layers JSON NOT NULL,
        validation JSON NOT NULL,
        created_at DATETIME NOT NULL,
        review_interval_days INTEGER NOT NULL,
        next_review_date DATETIME NOT NULL,
        expires_at DATETIME NOT NULL,
        last_reviewed_at DATETIME,
        status TEXT NOT NULL,
        seq INTEGER
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

const policyColumns = `policy_id, source_proposal, change_type, constraint_text, affected_layers, validation,
        created_at, review_interval_days, next_review_date, expires_at, last_reviewed_at, status`

// Append inserts a learned policy.
func (s *SQLiteStore) Append(p *contracts.LearnedPolicy) error {
	query := `INSERT INTO learned_policies (` + policyColumns + `, seq)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
            (SELECT COALESCE(MAX(seq), 0) + 1 FROM learned_policies))`

	layersJSON, _ := json.Marshal(p.AffectedLayers)
	validationJSON, _ := json.Marshal(p.Validation)

	var lastReviewed any
	if p.Lifecycle.LastReviewedAt != nil {
		lastReviewed = p.Lifecycle.LastReviewedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(context.Background(), query,
		p.ID, p.SourceProposal, string(p.ChangeType), p.Constraint,
		string(layersJSON), string(validationJSON),
		p.Lifecycle.CreatedAt.UTC().Format(time.RFC3339Nano),
		p.Lifecycle.ReviewIntervalDays,
		p.Lifecycle.NextReviewDate.UTC().Format(time.RFC3339Nano),
		p.Lifecycle.ExpiresAt.UTC().Format(time.RFC3339Nano),
		lastReviewed, string(p.Lifecycle.Status),
	)
	if err != nil {
		return fmt.Errorf("insert learned policy: %w", err)
	}
	return nil
}

// List returns every stored policy in append order.
func (s *SQLiteStore) List() ([]*contracts.LearnedPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM learned_policies ORDER BY seq ASC`
	rows, err := s.db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var policies []*contracts.LearnedPolicy
	for rows.Next() {
		p, err := scanPolicy(rows.Scan)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return policies, nil
}

// Get returns a policy by id.
func (s *SQLiteStore) Get(id string) (*contracts.LearnedPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM learned_policies WHERE policy_id = ?`
	row := s.db.QueryRowContext(context.Background(), query, id)
	p, err := scanPolicy(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %q", ErrPolicyNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// Clear resets the log.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM learned_policies`)
	return err
}

func scanPolicy(scan func(dest ...any) error) (*contracts.LearnedPolicy, error) {
	var (
		id, sourceProposal, changeType, constraint string
		layersJSON, validationJSON                 string
		createdAt, nextReview, expiresAt           string
		lastReviewed                               sql.NullString
		intervalDays                               int
		status                                     string
	)
	if err := scan(&id, &sourceProposal, &changeType, &constraint, &layersJSON, &validationJSON,
		&createdAt, &intervalDays, &nextReview, &expiresAt, &lastReviewed, &status); err != nil {
		return nil, err
	}

	var layers []contracts.LPSLayer
	if err := json.Unmarshal([]byte(layersJSON), &layers); err != nil {
		return nil, fmt.Errorf("decode affected layers: %w", err)
	}
	var validation contracts.ValidationReport
	if err := json.Unmarshal([]byte(validationJSON), &validation); err != nil {
		return nil, fmt.Errorf("decode validation report: %w", err)
	}

	lifecycle := contracts.PolicyLifecycle{
		CreatedAt:          parseTime(createdAt),
		ReviewIntervalDays: intervalDays,
		NextReviewDate:     parseTime(nextReview),
		ExpiresAt:          parseTime(expiresAt),
		Status:             contracts.LifecycleStatus(status),
	}
	if lastReviewed.Valid && lastReviewed.String != "" {
		t := parseTime(lastReviewed.String)
		lifecycle.LastReviewedAt = &t
	}

	return &contracts.LearnedPolicy{
		ID:             id,
		SourceProposal: sourceProposal,
		ChangeType:     contracts.ChangeType(changeType),
		Constraint:     constraint,
		AffectedLayers: layers,
		Validation:     validation,
		Lifecycle:      lifecycle,
	}, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
