package service

import (
	"context"
	"strconv"
	"time"

	"engagebot/events"
	"engagebot/ledger"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestLedger() (*ledger.Ledger, *testClock) {
	clock := &testClock{now: time.UnixMilli(1_700_000_000_000)}
	return ledger.New(ledger.WithClock(clock.Now)), clock
}

type fakeTimer struct {
	at      time.Duration
	task    events.Task
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() { t.stopped = true }

// fakeScheduler runs timers synchronously when Advance moves past their deadline
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, task events.Task) events.Timer {
	t := &fakeTimer{at: s.now + d, task: task}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		s.now = next.at
		next.fired = true
		next.task(context.Background())
	}
	s.now = target
}

func (s *fakeScheduler) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
