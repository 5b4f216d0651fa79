package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DailyBriefing/internal/ports"
)

// DailyScheduler fires a job once per day at a wall-clock time in a fixed
// timezone.
type DailyScheduler struct {
	hour, minute int
	loc          *time.Location
	now          func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses runAt as "15:04".
func NewDailyScheduler(runAt string, loc *time.Location) (*DailyScheduler, error) {
	at, err := time.Parse("15:04", runAt)
	if err != nil {
		return nil, fmt.Errorf("parse run time %q: %w", runAt, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{hour: at.Hour(), minute: at.Minute(), loc: loc, now: time.Now}, nil
}

// Start launches the timer loop. Calling Start twice is a no-op.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})

	go d.loop(ctx, job, d.stop, d.done)
	return nil
}

func (d *DailyScheduler) loop(ctx context.Context, job func(time.Time), stop, done chan struct{}) {
	defer close(done)
	for {
		timer := time.NewTimer(time.Until(d.NextRun(d.now())))
		select {
		case t := <-timer.C:
			job(t.In(d.loc))
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// NextRun returns the first trigger strictly after now.
func (d *DailyScheduler) NextRun(now time.Time) time.Time {
	local := now.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

// Stop halts the loop and waits for a running job to finish.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
