package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"librarybot/internal/app"
)

// Scheduler runs periodic storage backups and retention cleanup. Both
// jobs go through the engine, so they share its single-writer mutex
// with in-flight operations.
type Scheduler struct {
	cron *cron.Cron
	app  *app.App
}

// Config holds the cadences. Zero disables the corresponding job.
type Config struct {
	App                  *app.App
	BackupIntervalHours  int
	CleanupRetentionDays int
}

// New registers the jobs without starting them.
func New(cfg Config) (*Scheduler, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("app is required")
	}
	s := &Scheduler{cron: cron.New(), app: cfg.App}
	if cfg.BackupIntervalHours > 0 {
		spec := fmt.Sprintf("@every %dh", cfg.BackupIntervalHours)
		if _, err := s.cron.AddFunc(spec, s.runBackup); err != nil {
			return nil, fmt.Errorf("schedule backup: %w", err)
		}
	}
	if cfg.CleanupRetentionDays > 0 {
		days := cfg.CleanupRetentionDays
		if _, err := s.cron.AddFunc("@daily", func() { s.runCleanup(days) }); err != nil {
			return nil, fmt.Errorf("schedule cleanup: %w", err)
		}
	}
	return s, nil
}

// Start launches the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runBackup() {
	path, err := s.app.Backup()
	if err != nil {
		slog.Error("backup_failed", "error", err)
		return
	}
	if path == "" {
		slog.Info("backup_skipped_no_storage")
		return
	}
	slog.Info("backup_created", "path", path)
}

func (s *Scheduler) runCleanup(days int) {
	if _, err := s.app.Cleanup(days); err != nil {
		slog.Error("cleanup_failed", "error", err)
	}
}
