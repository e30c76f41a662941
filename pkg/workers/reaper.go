package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultRoomIdleTTL is how long a room may go without activity before it is reaped.
	DefaultRoomIdleTTL = 30 * time.Minute
	// DefaultReapInterval is how often idle rooms are looked for.
	DefaultReapInterval = time.Minute
)

// IdleRoomReaper destroys rooms that have been idle for longer than a TTL.
type IdleRoomReaper interface {
	ReapIdleRooms(ctx context.Context, ttl time.Duration) []string
}

// ReapWorker periodically destroys idle rooms.
type ReapWorker struct {
	reaper   IdleRoomReaper
	clock    clockwork.Clock
	ttl      time.Duration
	interval time.Duration
}

type NewReapWorkerOptions struct {
	Reaper   IdleRoomReaper
	Clock    clockwork.Clock
	TTL      time.Duration
	Interval time.Duration
}

func NewReapWorker(opts NewReapWorkerOptions) *ReapWorker {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultRoomIdleTTL
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultReapInterval
	}
	return &ReapWorker{
		reaper:   opts.Reaper,
		clock:    opts.Clock,
		ttl:      opts.TTL,
		interval: opts.Interval,
	}
}

// Start schedules the reap job and blocks until the context is done.
func (w *ReapWorker) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithClock(w.clock))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %v", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			w.reap(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		scheduler.Shutdown()
		return fmt.Errorf("failed to schedule reap job: %v", err)
	}

	scheduler.Start()
	log.Info("Reaping rooms idle for %s every %s", w.ttl, w.interval)

	<-ctx.Done()
	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %v", err)
	}
	return nil
}

func (w *ReapWorker) reap(ctx context.Context) {
	reaped := w.reaper.ReapIdleRooms(ctx, w.ttl)
	if len(reaped) > 0 {
		log.Info("Reaped %d idle rooms: %v", len(reaped), reaped)
	}
}
