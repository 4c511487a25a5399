package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Najnomics/lockedin-api/internal/planner"
)

// Gateway is the minimal interface the scheduler needs to deliver a reminder.
// gateway.WhatsAppGateway implements it. Send must be safe for concurrent use.
type Gateway interface {
	Send(ctx context.Context, to, body string) error
}

// JobKey identifies one recurring reminder job. Identity is the owning user
// plus the goal/time pair index; the trigger time is a mutable attribute, so
// re-planning a user can never leave an orphaned job behind.
type JobKey struct {
	Phone     string `json:"phone"`
	PairIndex int    `json:"pair_index"`
}

// JobInfo is a read-only snapshot of a scheduled job.
type JobInfo struct {
	Key         JobKey    `json:"key"`
	UTCHour     int       `json:"utc_hour"`
	UTCMinute   int       `json:"utc_minute"`
	Goal        string    `json:"goal"`
	NextFireUTC time.Time `json:"next_fire_utc"`
}

// job is the scheduler-internal state for one recurring trigger.
type job struct {
	key         JobKey
	destination string
	utcHour     int
	utcMinute   int
	goal        string
	nextFire    time.Time
	stop        chan struct{}
}

const defaultSendTimeout = 15 * time.Second

// Scheduler owns the authoritative set of reminder jobs and keeps one trigger
// goroutine per job synchronized with it. Instances are independent; create
// one per process (or per test) and drive its lifecycle with Start/Stop.
type Scheduler struct {
	gateway     Gateway
	logger      *zerolog.Logger
	sendTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	jobs    map[JobKey]*job
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	wg sync.WaitGroup
}

// New creates a stopped Scheduler delivering through gateway.
func New(gateway Gateway, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		gateway:     gateway,
		logger:      logger,
		sendTimeout: defaultSendTimeout,
		now:         time.Now,
		jobs:        make(map[JobKey]*job),
	}
}

// Start makes the scheduler accept jobs and run their triggers. ctx bounds
// the lifetime of every trigger loop and in-flight delivery.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
}

// Stop removes all jobs, stops their trigger loops and waits for in-flight
// deliveries to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	for key, j := range s.jobs {
		close(j.stop)
		delete(s.jobs, key)
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

// ApplyPlan atomically replaces every job owned by phone with one job per
// planner entry. This is the sole write path for a user's jobs: calling it
// twice with the same plan leaves the same job set, and concurrent calls for
// the same user serialize on the registry lock with last writer winning.
// destination is where fired reminders are sent.
func (s *Scheduler) ApplyPlan(phone, destination string, entries []planner.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return fmt.Errorf("scheduler is not running")
	}

	s.removeUserLocked(phone)

	for _, e := range entries {
		j := &job{
			key:         JobKey{Phone: phone, PairIndex: e.PairIndex},
			destination: destination,
			utcHour:     e.UTCHour,
			utcMinute:   e.UTCMinute,
			goal:        e.Goal,
			nextFire:    nextDaily(s.now(), e.UTCHour, e.UTCMinute),
			stop:        make(chan struct{}),
		}
		s.jobs[j.key] = j
		s.wg.Add(1)
		go s.run(j)
	}

	return nil
}

// RemoveAllForUser stops and forgets every job owned by phone. Jobs of other
// users are untouched. A firing already in progress completes.
func (s *Scheduler) RemoveAllForUser(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeUserLocked(phone)
}

func (s *Scheduler) removeUserLocked(phone string) {
	for key, j := range s.jobs {
		if key.Phone == phone {
			close(j.stop)
			delete(s.jobs, key)
		}
	}
}

// Jobs returns a consistent snapshot of the scheduled jobs. The snapshot is
// a copy; mutating it has no effect on the scheduler.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{
			Key:         j.key,
			UTCHour:     j.utcHour,
			UTCMinute:   j.utcMinute,
			Goal:        j.goal,
			NextFireUTC: j.nextFire,
		})
	}
	return out
}

// run is the recurring-trigger loop for a single job: wait until the next
// daily occurrence, hand delivery off to a dispatch goroutine, reschedule.
// Delivery never blocks the loop and never removes the job.
func (s *Scheduler) run(j *job) {
	defer s.wg.Done()

	for {
		now := s.now()
		next := nextDaily(now, j.utcHour, j.utcMinute)

		s.mu.Lock()
		j.nextFire = next
		s.mu.Unlock()

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-j.stop:
			timer.Stop()
			return
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.wg.Add(1)
			go s.dispatch(j.key, j.destination, j.goal)
		}
	}
}

// dispatch delivers one reminder outside the registry lock. Failures are
// logged and swallowed: the job keeps firing on its next occurrence.
func (s *Scheduler) dispatch(key JobKey, destination, goal string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.sendTimeout)
	defer cancel()

	if err := s.gateway.Send(ctx, destination, RenderReminder(goal)); err != nil {
		s.logger.Error().
			Err(err).
			Str("phone", key.Phone).
			Int("pair_index", key.PairIndex).
			Msg("reminder delivery failed")
		return
	}

	s.logger.Info().
		Str("phone", key.Phone).
		Int("pair_index", key.PairIndex).
		Msg("reminder delivered")
}

// RenderReminder formats the recurring reminder body for a goal.
func RenderReminder(goal string) string {
	return fmt.Sprintf("🎯 LockedIn Daily Reminder\n\nTime to focus on: %s\n\nStay locked in and make progress today! 💪", goal)
}
