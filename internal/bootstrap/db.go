package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tztw/projectmap/config"
	"github.com/tztw/projectmap/internal/audit"
	"github.com/tztw/projectmap/internal/storage/postgres"
)

// OpenAudit connects the export audit log. Without a configured database it
// returns a nil *sql.DB and a recorder that drops entries.
func OpenAudit(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, audit.Recorder, error) {
	if !cfg.Enabled() {
		return nil, audit.Nop{}, nil
	}

	db, err := postgres.NewConnection(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("audit db: %w", err)
	}
	repo := audit.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("audit schema: %w", err)
	}
	return db, repo, nil
}
