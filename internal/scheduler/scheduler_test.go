package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/counterpos/pos-service/internal/models"
)

type stubReporter struct {
	report *models.SalesReport
	err    error
}

func (s stubReporter) SalesReport(context.Context) (*models.SalesReport, error) {
	return s.report, s.err
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestDailyCloseLogsReport(t *testing.T) {
	logs := observe(t)
	s := New(time.UTC, stubReporter{report: &models.SalesReport{
		Today:     decimal.RequireFromString("210"),
		ThisWeek:  decimal.RequireFromString("260.5"),
		ThisMonth: decimal.RequireFromString("360"),
	}})

	s.DailyClose(context.Background())

	entries := logs.FilterMessage("daily close").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "210.00", fields["today"])
	assert.Equal(t, "260.50", fields["thisWeek"])
	assert.Equal(t, "360.00", fields["thisMonth"])
}

func TestDailyCloseLogsFailure(t *testing.T) {
	logs := observe(t)
	s := New(time.UTC, stubReporter{err: errors.New("db down")})

	s.DailyClose(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("daily close failed").Len())
}

func TestAddDailyClose(t *testing.T) {
	s := New(time.UTC, stubReporter{})

	require.NoError(t, s.AddDailyClose("55 23 * * *"))
	assert.Len(t, s.sched.Entries(), 1)

	assert.Error(t, s.AddDailyClose("not a schedule"))
}

func TestDailyCloseSpecFiresBeforeMidnight(t *testing.T) {
	schedule, err := cronParser.Parse("55 23 * * *")
	require.NoError(t, err)

	loc := time.FixedZone("PHT", 8*60*60)
	next := schedule.Next(time.Date(2026, 10, 14, 12, 0, 0, 0, loc))

	assert.Equal(t, time.Date(2026, 10, 14, 23, 55, 0, 0, loc), next)
}

func TestStartStop(t *testing.T) {
	s := New(time.UTC, stubReporter{})
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
