package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/models"
)

// Window is the half-open time range [From, To)
type Window struct {
	From time.Time
	To   time.Time
}

// ReportService computes sales totals over calendar periods in a fixed
// location.
type ReportService struct {
	sales    SalesStore
	location *time.Location
	now      func() time.Time
}

func NewReportService(sales SalesStore, location *time.Location) *ReportService {
	if location == nil {
		location = time.Local
	}
	return &ReportService{sales: sales, location: location, now: time.Now}
}

// Windows returns today, the current week (starting Sunday) and the current
// month containing now. Each window ends at the start of the next period.
func Windows(now time.Time) (today, week, month Window) {
	y, m, d := now.Date()
	loc := now.Location()

	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	today = Window{From: dayStart, To: dayStart.AddDate(0, 0, 1)}

	weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
	week = Window{From: weekStart, To: weekStart.AddDate(0, 0, 7)}

	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	month = Window{From: monthStart, To: monthStart.AddDate(0, 1, 0)}

	return today, week, month
}

// SalesReport sums completed sales for today, this week and this month.
func (s *ReportService) SalesReport(ctx context.Context) (*models.SalesReport, error) {
	today, week, month := Windows(s.now().In(s.location))

	var report models.SalesReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Today, err = s.sales.SalesTotal(gctx, today.From, today.To)
		return err
	})
	g.Go(func() (err error) {
		report.ThisWeek, err = s.sales.SalesTotal(gctx, week.From, week.To)
		return err
	})
	g.Go(func() (err error) {
		report.ThisMonth, err = s.sales.SalesTotal(gctx, month.From, month.To)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("Failed to fetch sales report", err)
	}

	return &report, nil
}
