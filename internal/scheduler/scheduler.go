package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
)

const exportTimeout = 2 * time.Minute

// Exporter writes an inventory snapshot somewhere durable.
type Exporter interface {
	ExportSnapshot(ctx context.Context) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	exporter Exporter
	cfg      config.ExportConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.ExportConfig, exporter Exporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// standard 5-field cron expressions, local time
	return &Scheduler{
		cron:     cron.New(),
		exporter: exporter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the export job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.exportInventory); err != nil {
		return fmt.Errorf("schedule inventory export %q: %w", s.cfg.CronSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running export to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) exportInventory() {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	s.runExport(ctx)
}

func (s *Scheduler) runExport(ctx context.Context) {
	s.logger.Info("exporting inventory snapshot")

	n, err := s.exporter.ExportSnapshot(ctx)
	if err != nil {
		s.logger.Error("inventory export failed", zap.Error(err))
		return
	}

	s.logger.Info("inventory export finished", zap.Int("items", n))
}
