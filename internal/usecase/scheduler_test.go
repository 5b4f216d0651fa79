package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRecordsLastReport(t *testing.T) {
	t.Parallel()

	f := newFixture()
	driver := &manualDriver{}
	s := NewScheduler(driver, f.pipeline(), nil)

	_, ok := s.LastReport()
	assert.False(t, ok)

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)
	driver.job(runDay)

	report, ok := s.LastReport()
	require.True(t, ok)
	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, "2025-11-08", report.DateKey)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
