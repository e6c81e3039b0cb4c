package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic maintenance jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Register adds job under spec. Each run gets a context bounded by
// timeout; failures are logged and the schedule continues.
func (s *Scheduler) Register(name, spec string, timeout time.Duration, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("Scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("Scheduled job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// RegisterMaintenance wires the GeoIP refresh and the audit retention
// jobs. A retention of zero days keeps audit logs forever.
func (s *Scheduler) RegisterMaintenance(geoIP *GeoIPService, geoIPSpec string, audit *AuditService, retentionDays int, auditSpec string) error {
	if geoIP != nil && geoIP.cfg.GeoIPEnabled() {
		if err := s.Register("geoip-refresh", geoIPSpec, 10*time.Minute, func(ctx context.Context) error {
			return geoIP.Refresh(ctx)
		}); err != nil {
			return err
		}
	}

	if audit != nil && retentionDays > 0 {
		if err := s.Register("audit-retention", auditSpec, time.Minute, func(ctx context.Context) error {
			cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
			deleted, err := audit.PurgeOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			s.logger.Info("Purged audit logs", "deleted", deleted, "cutoff", cutoff)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
