// Package sync keeps every active family holding exactly one pending
// instance. A nightly cron job sweeps the active families and materializes
// the next occurrence for any family whose pending slot is empty, so a
// confirmation lost to a crash or a manual database edit is healed within a
// day. The same sweep backs the manual sync endpoint.
package sync

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/dmceachern/rebook/internal/family"
)

type Scheduler struct {
	engine *cron.Cron
	svc    *family.Service
	spec   string
	logger *slog.Logger
}

// NewScheduler wires the pending-instance sweep to the given cron spec,
// e.g. "30 2 * * *" for 02:30 every night.
func NewScheduler(svc *family.Service, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine: cron.New(),
		svc:    svc,
		spec:   spec,
		logger: logger.With("component", "sync"),
	}
}

// Start registers the sweep job and starts the cron engine.
func (s *Scheduler) Start() error {
	_, err := s.engine.AddFunc(s.spec, func() {
		if _, err := s.Run(); err != nil {
			s.logger.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.engine.Start()
	s.logger.Info("sync scheduler started", "spec", s.spec)
	return nil
}

// Run executes one sweep immediately and reports how many pending
// instances it created.
func (s *Scheduler) Run() (int, error) {
	created, err := s.svc.EnsurePending()
	if err != nil {
		return created, err
	}
	s.logger.Info("sweep finished", "created", created)
	return created, nil
}

// Stop halts the cron engine and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.engine.Stop()
	<-ctx.Done()
	s.logger.Info("sync scheduler stopped")
}
