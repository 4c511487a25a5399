package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Najnomics/lockedin-api/internal/planner"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (g *fakeGateway) Send(_ context.Context, to, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, to+"|"+body)
	return g.err
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func newTestScheduler(t *testing.T, gw Gateway) *Scheduler {
	t.Helper()
	logger := zerolog.Nop()
	s := New(gw, &logger)
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s
}

func entriesAt(times ...string) []planner.Entry {
	out := make([]planner.Entry, 0, len(times))
	for i, hhmm := range times {
		h, m, _ := planner.ParseClock(hhmm)
		out = append(out, planner.Entry{PairIndex: i, UTCHour: h, UTCMinute: m, Goal: fmt.Sprintf("goal-%d", i)})
	}
	return out
}

func keysForUser(s *Scheduler, phone string) []JobKey {
	var keys []JobKey
	for _, j := range s.Jobs() {
		if j.Key.Phone == phone {
			keys = append(keys, j.Key)
		}
	}
	sort.Slice(keys, func(i, k int) bool { return keys[i].PairIndex < keys[k].PairIndex })
	return keys
}

func TestNextDaily(t *testing.T) {
	base := time.Date(2026, time.March, 10, 7, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Time
	}{
		{"later today", base, 8, 0, time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)},
		{"already passed rolls to tomorrow", base, 7, 0, time.Date(2026, time.March, 11, 7, 0, 0, 0, time.UTC)},
		{"exact instant rolls to tomorrow", base, 7, 30, time.Date(2026, time.March, 11, 7, 30, 0, 0, time.UTC)},
		{"midnight job", base, 0, 0, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)},
		{"non-utc input normalized", base.In(time.FixedZone("X", 3*3600)), 8, 0, time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextDaily(tt.now, tt.hour, tt.minute)
			if !got.Equal(tt.want) {
				t.Fatalf("nextDaily = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyPlanIsIdempotent(t *testing.T) {
	s := newTestScheduler(t, &fakeGateway{})
	plan := entriesAt("08:00", "19:00")

	if err := s.ApplyPlan("+111", "+111", plan); err != nil {
		t.Fatalf("first ApplyPlan: %v", err)
	}
	before := keysForUser(s, "+111")

	if err := s.ApplyPlan("+111", "+111", plan); err != nil {
		t.Fatalf("second ApplyPlan: %v", err)
	}
	after := keysForUser(s, "+111")

	if len(before) != 2 || len(after) != 2 {
		t.Fatalf("expected 2 jobs before and after, got %d and %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("job identity changed: %+v vs %+v", before[i], after[i])
		}
	}
}

func TestApplyPlanReplacesOnlyOwnedJobs(t *testing.T) {
	s := newTestScheduler(t, &fakeGateway{})

	if err := s.ApplyPlan("+111", "+111", entriesAt("08:00", "19:00")); err != nil {
		t.Fatalf("ApplyPlan user A: %v", err)
	}
	if err := s.ApplyPlan("+222", "+222", entriesAt("10:00")); err != nil {
		t.Fatalf("ApplyPlan user B: %v", err)
	}

	// Re-plan user A with different times and one fewer pair.
	if err := s.ApplyPlan("+111", "+111", entriesAt("07:00")); err != nil {
		t.Fatalf("re-plan user A: %v", err)
	}

	jobs := s.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs total, got %d: %+v", len(jobs), jobs)
	}
	for _, j := range jobs {
		switch j.Key.Phone {
		case "+111":
			if j.UTCHour != 7 || j.UTCMinute != 0 || j.Key.PairIndex != 0 {
				t.Fatalf("stale job survived re-plan: %+v", j)
			}
		case "+222":
			if j.UTCHour != 10 {
				t.Fatalf("other user's job was touched: %+v", j)
			}
		default:
			t.Fatalf("unexpected job owner %q", j.Key.Phone)
		}
	}
}

func TestRemoveAllForUser(t *testing.T) {
	s := newTestScheduler(t, &fakeGateway{})

	if err := s.ApplyPlan("+111", "+111", entriesAt("08:00", "19:00")); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	if err := s.ApplyPlan("+222", "+222", entriesAt("10:00")); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}

	s.RemoveAllForUser("+111")

	if got := keysForUser(s, "+111"); len(got) != 0 {
		t.Fatalf("expected no jobs for removed user, got %+v", got)
	}
	if got := keysForUser(s, "+222"); len(got) != 1 {
		t.Fatalf("expected other user's job to survive, got %+v", got)
	}
}

func TestConcurrentApplyPlanLeavesExactlyLastPlan(t *testing.T) {
	s := newTestScheduler(t, &fakeGateway{})

	plans := [][]planner.Entry{
		entriesAt("01:00"),
		entriesAt("02:00", "03:00"),
		entriesAt("04:00", "05:00", "06:00"),
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = s.ApplyPlan("+111", "+111", plans[(seed+i)%len(plans)])
			}
		}(w)
	}
	wg.Wait()

	final := entriesAt("08:00", "19:00")
	if err := s.ApplyPlan("+111", "+111", final); err != nil {
		t.Fatalf("final ApplyPlan: %v", err)
	}

	keys := keysForUser(s, "+111")
	if len(keys) != len(final) {
		t.Fatalf("expected exactly %d jobs after stress, got %+v", len(final), keys)
	}
	for i, k := range keys {
		if k.PairIndex != i {
			t.Fatalf("unexpected job identity %+v", k)
		}
	}
}

func TestJobsReturnsIndependentSnapshot(t *testing.T) {
	s := newTestScheduler(t, &fakeGateway{})
	if err := s.ApplyPlan("+111", "+111", entriesAt("08:00")); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}

	snap := s.Jobs()
	snap[0].Goal = "mutated"
	snap[0].Key.Phone = "someone-else"

	fresh := s.Jobs()
	if fresh[0].Goal != "goal-0" || fresh[0].Key.Phone != "+111" {
		t.Fatalf("snapshot mutation leaked into scheduler state: %+v", fresh[0])
	}
}

func TestDeliveryFailureKeepsJobScheduled(t *testing.T) {
	gw := &fakeGateway{err: errors.New("provider unavailable")}
	s := newTestScheduler(t, gw)

	// Pin the clock just before the trigger so the real timer fires almost
	// immediately.
	fireAt := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fireAt.Add(-50 * time.Millisecond) }

	if err := s.ApplyPlan("+111", "+111", entriesAt("08:00")); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for gw.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := keysForUser(s, "+111"); len(got) != 1 {
		t.Fatalf("failing job must stay scheduled, got %+v", got)
	}
}

func TestDispatchSendsRenderedReminder(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestScheduler(t, gw)

	s.wg.Add(1)
	s.dispatch(JobKey{Phone: "+111", PairIndex: 0}, "+111", "Exercise")

	gw.mu.Lock()
	defer gw.mu.Unlock()
	if len(gw.calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(gw.calls))
	}
	want := "+111|" + RenderReminder("Exercise")
	if gw.calls[0] != want {
		t.Fatalf("unexpected send %q, want %q", gw.calls[0], want)
	}
}

func TestApplyPlanRequiresRunningScheduler(t *testing.T) {
	logger := zerolog.Nop()
	s := New(&fakeGateway{}, &logger)

	if err := s.ApplyPlan("+111", "+111", entriesAt("08:00")); err == nil {
		t.Fatal("expected error from stopped scheduler")
	}
}
