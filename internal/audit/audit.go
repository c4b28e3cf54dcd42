// Package audit records produced exports. With PostgreSQL configured every
// export is a row in export_audit; otherwise records are dropped.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Permission   string    `json:"permission"`
	Title        string    `json:"title"`
	ProjectCount int       `json:"projectCount"`
	UserID       string    `json:"userId,omitempty"`
	ArchiveKey   string    `json:"archiveKey,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Recorder interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

const schema = `
	CREATE TABLE IF NOT EXISTS export_audit (
		id            UUID PRIMARY KEY,
		kind          TEXT NOT NULL,
		permission    TEXT NOT NULL,
		title         TEXT NOT NULL,
		project_count INTEGER NOT NULL,
		user_id       TEXT,
		archive_key   TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Repository is the PostgreSQL Recorder.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the audit table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create export_audit: %w", err)
	}
	return nil
}

// Record inserts e, assigning its id and creation time.
func (r *Repository) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO export_audit (id, kind, permission, title, project_count, user_id, archive_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	var userID, archiveKey sql.NullString
	if e.UserID != "" {
		userID = sql.NullString{String: e.UserID, Valid: true}
	}
	if e.ArchiveKey != "" {
		archiveKey = sql.NullString{String: e.ArchiveKey, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.Kind, e.Permission, e.Title, e.ProjectCount, userID, archiveKey,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (r *Repository) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, kind, permission, title, project_count, user_id, archive_key, created_at
		FROM export_audit
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query export audit: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var userID, archiveKey sql.NullString
		if err := rows.Scan(&e.ID, &e.Kind, &e.Permission, &e.Title, &e.ProjectCount, &userID, &archiveKey, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export audit: %w", err)
		}
		e.UserID = userID.String
		e.ArchiveKey = archiveKey.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export audit: %w", err)
	}
	return entries, nil
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (Nop) List(ctx context.Context, limit int) ([]Entry, error) {
	return []Entry{}, nil
}
