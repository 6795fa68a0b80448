// Package scheduler runs the periodic jobs of the POS server.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/models"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

const jobTimeout = time.Minute

// SalesReporter is satisfied by service.ReportService
type SalesReporter interface {
	SalesReport(ctx context.Context) (*models.SalesReport, error)
}

type Scheduler struct {
	sched   *cron.Cron
	reports SalesReporter
}

// New creates a scheduler whose specs are read in loc
func New(loc *time.Location, reports SalesReporter) *Scheduler {
	return &Scheduler{
		sched:   cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		reports: reports,
	}
}

// AddDailyClose schedules the end-of-day sales log
func (s *Scheduler) AddDailyClose(spec string) error {
	if _, err := s.sched.AddFunc(spec, func() { s.DailyClose(context.Background()) }); err != nil {
		return fmt.Errorf("invalid daily close schedule %q: %w", spec, err)
	}
	return nil
}

// DailyClose computes the sales report and logs it
func (s *Scheduler) DailyClose(ctx context.Context) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Errorf("daily close panicked: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	report, err := s.reports.SalesReport(ctx)
	if err != nil {
		zap.L().Error("daily close failed", zap.Error(err))
		return
	}

	zap.L().Info("daily close",
		zap.String("today", report.Today.StringFixed(2)),
		zap.String("thisWeek", report.ThisWeek.StringFixed(2)),
		zap.String("thisMonth", report.ThisMonth.StringFixed(2)))
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.sched.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
