// Package health tracks whether the hosted backend is reachable.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	maxRetries   = 3
	retryBackoff = time.Second
	probeTimeout = 10 * time.Second
)

// Pinger is anything that can issue a cheap read against the backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Status struct {
	Connected         bool      `json:"connected"`
	LastChecked       time.Time `json:"last_checked"`
	Error             string    `json:"error,omitempty"`
	ReconnectAttempts int       `json:"reconnect_attempts"`
}

type Monitor struct {
	target   Pinger
	schedule string
	log      *logrus.Entry
	onChange func(up bool)
	cron     *cron.Cron

	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time

	mu      sync.RWMutex
	status  Status
	checked bool
}

// NewMonitor probes target on a cron schedule such as "*/5 * * * *".
// onChange, if set, is called after every check with the result.
func NewMonitor(target Pinger, schedule string, log *logrus.Entry, onChange func(up bool)) *Monitor {
	if onChange == nil {
		onChange = func(bool) {}
	}
	return &Monitor{
		target:   target,
		schedule: schedule,
		log:      log,
		onChange: onChange,
		cron:     cron.New(),
		backoff:  retryBackoff,
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Monitor) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return m.target.Ping(ctx)
}

// Check probes the backend, retrying a failed probe up to three times with
// a linearly growing pause, and records the outcome.
func (m *Monitor) Check(ctx context.Context) Status {
	err := m.ping(ctx)
	attempts := 0
	for err != nil && attempts < maxRetries {
		attempts++
		m.log.WithError(err).WithField("attempt", attempts).Warn("Backend probe failed, retrying")
		if serr := m.sleep(ctx, m.backoff*time.Duration(attempts)); serr != nil {
			err = serr
			break
		}
		err = m.ping(ctx)
	}

	st := Status{
		Connected:         err == nil,
		LastChecked:       m.now(),
		ReconnectAttempts: attempts,
	}
	if err != nil {
		st.Error = err.Error()
		m.log.WithError(err).Error("Backend unreachable")
	}

	m.mu.Lock()
	wasUp := !m.checked || m.status.Connected
	m.status = st
	m.checked = true
	m.mu.Unlock()

	if !wasUp && st.Connected {
		m.log.Info("Backend connection restored")
	}
	m.onChange(st.Connected)
	return st
}

// AddJob runs fn on the monitor's scheduler.
func (m *Monitor) AddJob(schedule string, fn func()) error {
	if _, err := m.cron.AddFunc(schedule, fn); err != nil {
		return fmt.Errorf("schedule job %q: %w", schedule, err)
	}
	return nil
}

// Start runs a first check in the background and then follows the schedule.
func (m *Monitor) Start() error {
	if err := m.AddJob(m.schedule, func() { m.Check(context.Background()) }); err != nil {
		return err
	}
	go m.Check(context.Background())
	m.cron.Start()
	m.log.WithField("schedule", m.schedule).Info("Backend health monitor started")
	return nil
}

func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Healthy is true until a check has failed.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.checked || m.status.Connected
}
