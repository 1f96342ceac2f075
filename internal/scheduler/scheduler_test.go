package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/stockroom/internal/config"
)

type stubExporter struct {
	calls int
	err   error
}

func (s *stubExporter) ExportSnapshot(context.Context) (int, error) {
	s.calls++
	return 7, s.err
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := NewScheduler(config.ExportConfig{CronSchedule: "not a schedule"}, &stubExporter{}, nil)
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(config.ExportConfig{CronSchedule: "0 20 * * *"}, &stubExporter{}, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestRunExport_LogsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	exporter := &stubExporter{}
	s := NewScheduler(config.ExportConfig{CronSchedule: "@daily"}, exporter, zap.New(core))

	s.runExport(context.Background())
	assert.Equal(t, 1, exporter.calls)
	assert.Equal(t, 1, logs.FilterMessage("inventory export finished").Len())

	exporter.err = errors.New("quota exceeded")
	s.runExport(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("inventory export failed").Len())
}
