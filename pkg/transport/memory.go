package transport

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/queue"
)

type delivery struct {
	topic   string
	payload []byte
}

type subscription struct {
	filter  string
	handler Handler
	queue   queue.Queue
	cancel  context.CancelFunc
	done    chan struct{}
}

// MemoryBus is an in-process Bus. Each subscriber is served by its own goroutine
// so a slow handler never blocks a publisher.
type MemoryBus struct {
	lock          sync.RWMutex
	subscriptions map[uint64]*subscription
	nextID        uint64
	closed        bool

	duplicateRate float64
	rngLock       sync.Mutex
	rng           *rand.Rand
	queueSize     int
}

type NewMemoryBusOptions struct {
	// DuplicateRate is the probability that a delivery is repeated, simulating at-least-once transports.
	DuplicateRate float64
	Seed          int64
	QueueSize     int
}

func NewMemoryBus(opts NewMemoryBusOptions) *MemoryBus {
	return &MemoryBus{
		subscriptions: make(map[uint64]*subscription),
		duplicateRate: opts.DuplicateRate,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		queueSize:     opts.QueueSize,
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	for _, sub := range b.subscriptions {
		if !TopicMatches(sub.filter, topic) {
			continue
		}
		copies := 1
		if b.duplicate() {
			copies++
		}
		for i := 0; i < copies; i++ {
			d := delivery{topic: topic, payload: append([]byte(nil), payload...)}
			if err := sub.queue.Enqueue(d); err != nil {
				log.Warn("Dropping message on %s for subscriber %s with %d pending: %v", topic, sub.filter, sub.queue.Size(), err)
			}
		}
	}
	return nil
}

func (b *MemoryBus) duplicate() bool {
	if b.duplicateRate <= 0 {
		return false
	}
	b.rngLock.Lock()
	defer b.rngLock.Unlock()
	return b.rng.Float64() < b.duplicateRate
}

func (b *MemoryBus) Subscribe(topic string, handler Handler) (func(), error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		filter:  topic,
		handler: handler,
		queue:   queue.NewInMemoryQueue(b.queueSize),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	id := b.nextID
	b.nextID++
	b.subscriptions[id] = sub
	go sub.serve(ctx)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.lock.Lock()
			delete(b.subscriptions, id)
			b.lock.Unlock()
			sub.stop()
		})
	}, nil
}

func (s *subscription) serve(ctx context.Context) {
	defer close(s.done)
	for {
		item, err := s.queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("Failed to dequeue delivery for %s: %v", s.filter, err)
			}
			return
		}
		d := item.(delivery)
		s.handler(d.topic, d.payload)
	}
}

// stop ends delivery and discards what was not delivered yet.
// It does not wait for an in-flight handler.
func (s *subscription) stop() {
	s.cancel()
	s.queue.ClearQueue()
}

// Close stops every subscriber and waits for in-flight handlers to return.
func (b *MemoryBus) Close() {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscription, 0, len(b.subscriptions))
	for id, sub := range b.subscriptions {
		subs = append(subs, sub)
		delete(b.subscriptions, id)
	}
	b.lock.Unlock()

	for _, sub := range subs {
		sub.stop()
		<-sub.done
	}
}
