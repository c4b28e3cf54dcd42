// Package backup takes scheduled JSON snapshots of every project and stores
// them in the export archive.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tztw/projectmap/internal/archive"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/export"
	"github.com/tztw/projectmap/internal/metrics"
)

const (
	DefaultSchedule = "0 0 0 * * *"

	runTimeout = 2 * time.Minute
)

// ProjectSource lists the projects to back up.
type ProjectSource interface {
	GetProjects(ctx context.Context) ([]domain.Project, error)
}

type Scheduler struct {
	source  ProjectSource
	archive archive.Store
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time

	cron *cron.Cron
}

func NewScheduler(source ProjectSource, store archive.Store, m *metrics.Metrics, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		source:  source,
		archive: store,
		metrics: m,
		log:     log.With("component", "backup"),
		now:     time.Now,
	}
}

// Start registers the backup job with a six-field (seconds first) cron spec
// and starts the scheduler. An empty spec disables backups.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.log.Info("scheduled backups disabled")
		return nil
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	s.log.Info("backup scheduler started", "schedule", spec)
	return nil
}

// Stop halts the scheduler and waits for a running backup until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("backup failed", "error", err)
	}
}

// RunOnce writes one backup and returns where it was stored.
func (s *Scheduler) RunOnce(ctx context.Context) (archive.Info, error) {
	projects, err := s.source.GetProjects(ctx)
	if err != nil {
		return archive.Info{}, fmt.Errorf("load projects: %w", err)
	}

	var buf bytes.Buffer
	if err := export.JSON(&buf, projects); err != nil {
		return archive.Info{}, err
	}

	at := s.now()
	info, err := s.archive.Put(ctx, archive.BackupKey(at), &buf, "application/json")
	if err != nil {
		return archive.Info{}, fmt.Errorf("store backup: %w", err)
	}
	s.metrics.RecordExport("backup", domain.RoleAdmin)
	s.log.Info("backup written", "key", info.Key, "projects", len(projects), "bytes", info.Size)
	return info, nil
}
