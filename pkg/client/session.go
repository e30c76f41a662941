package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/messages"
	"github.com/cbodonnell/memorymatch/pkg/relay"
	"github.com/cbodonnell/memorymatch/pkg/transport"
	"github.com/jonboulle/clockwork"
)

const (
	// EventBufferSize is the capacity of the channel handed to the renderer.
	EventBufferSize = 64
	flushInterval   = 100 * time.Millisecond
)

// Session is one participant's connection to a room over the bus.
// It filters echoes and duplicates and keeps a Mirror of the room.
type Session struct {
	bus           transport.Bus
	participantID string
	roomCode      string
	clock         clockwork.Clock
	deduper       *relay.Deduper

	// deliverLock keeps apply and emit of one delivery together so events reach the renderer in order
	deliverLock sync.Mutex
	lock        sync.Mutex
	mirror      *Mirror
	events      chan types.Event
}

type NewSessionOptions struct {
	Bus           transport.Bus
	ParticipantID string
	RoomCode      string
	Clock         clockwork.Clock
	BufferTimeout time.Duration
	// Snapshot seeds the mirror when joining a room that already has state.
	Snapshot *types.RoomSnapshot
}

func NewSession(opts NewSessionOptions) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	mirror := NewMirror(opts.BufferTimeout)
	if opts.Snapshot != nil {
		mirror.Seed(*opts.Snapshot)
	}
	return &Session{
		bus:           opts.Bus,
		participantID: opts.ParticipantID,
		roomCode:      opts.RoomCode,
		clock:         opts.Clock,
		deduper:       relay.NewDeduper(0),
		mirror:        mirror,
		events:        make(chan types.Event, EventBufferSize),
	}
}

// Events returns the events the renderer should animate, in order.
func (s *Session) Events() <-chan types.Event {
	return s.events
}

// View returns the mirrored room state.
func (s *Session) View() View {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mirror.View()
}

// Start subscribes to the room's events and blocks until the context is done.
func (s *Session) Start(ctx context.Context) error {
	unsubscribe, err := s.bus.Subscribe(messages.EventsTopic(s.roomCode), func(topic string, payload []byte) {
		err := s.Receive(ctx, payload)
		if errors.Is(err, relay.ErrStaleMessage) {
			log.Trace("Dropped message on %s: %v", topic, err)
		} else if err != nil {
			log.Warn("Failed to receive message on %s: %v", topic, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to room %s: %v", s.roomCode, err)
	}
	defer unsubscribe()

	ticker := s.clock.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			s.Flush(ctx)
		}
	}
}

// Receive decodes one message from the events topic and applies it to the mirror.
func (s *Session) Receive(ctx context.Context, payload []byte) error {
	msg, err := messages.DeserializeMessage(payload)
	if err != nil {
		return err
	}
	if msg.SenderID == s.participantID {
		return fmt.Errorf("echo of %s: %w", msg.MsgID, relay.ErrStaleMessage)
	}
	if msg.MsgID != "" && s.deduper.Seen(s.roomCode, msg.MsgID) {
		return fmt.Errorf("duplicate %s: %w", msg.MsgID, relay.ErrStaleMessage)
	}
	event, err := messages.EventFromMessage(msg)
	if err != nil {
		return err
	}

	s.deliverLock.Lock()
	defer s.deliverLock.Unlock()
	s.lock.Lock()
	visible, err := s.mirror.Apply(Delivery{Event: event, Seq: msg.Seq}, s.clock.Now())
	s.lock.Unlock()
	if err != nil {
		return err
	}
	return s.emit(ctx, visible)
}

// Flush adopts held events whose buffer timeout elapsed.
func (s *Session) Flush(ctx context.Context) {
	s.deliverLock.Lock()
	defer s.deliverLock.Unlock()
	s.lock.Lock()
	visible := s.mirror.Flush(s.clock.Now())
	s.lock.Unlock()
	if err := s.emit(ctx, visible); err != nil {
		log.Debug("Failed to emit flushed events: %v", err)
	}
}

func (s *Session) emit(ctx context.Context, events []types.Event) error {
	for _, e := range events {
		select {
		case s.events <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Session) RequestStart(ctx context.Context) error {
	return s.send(ctx, messages.MessageTypeRequestStart, nil)
}

func (s *Session) RequestFlip(ctx context.Context, position int) error {
	return s.send(ctx, messages.MessageTypeRequestFlip, messages.RequestFlip{Position: position})
}

func (s *Session) RequestRematch(ctx context.Context) error {
	return s.send(ctx, messages.MessageTypeRequestRematch, nil)
}

func (s *Session) CancelRematch(ctx context.Context) error {
	return s.send(ctx, messages.MessageTypeCancelRematch, nil)
}

func (s *Session) Leave(ctx context.Context) error {
	return s.send(ctx, messages.MessageTypeLeave, nil)
}

func (s *Session) send(ctx context.Context, messageType string, payload interface{}) error {
	s.lock.Lock()
	round := s.mirror.round
	s.lock.Unlock()

	msg, err := messages.NewMessage(s.participantID, messageType, s.roomCode, round, payload)
	if err != nil {
		return err
	}
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %v", messageType, err)
	}
	if err := s.bus.Publish(ctx, messages.IntentsTopic(s.roomCode), b); err != nil {
		return fmt.Errorf("failed to send %s: %v", messageType, err)
	}
	return nil
}
