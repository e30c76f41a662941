package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/messages"
	"github.com/cbodonnell/memorymatch/pkg/transport"
)

// Outbound maps authoritative events onto the room's events topic,
// one message per event with a per-room increasing sequence number.
type Outbound struct {
	bus      transport.Bus
	senderID string

	lock sync.Mutex
	seqs map[string]uint64
}

type NewOutboundOptions struct {
	Bus transport.Bus
	// SenderID defaults to messages.SenderServer.
	SenderID string
}

func NewOutbound(opts NewOutboundOptions) *Outbound {
	if opts.SenderID == "" {
		opts.SenderID = messages.SenderServer
	}
	return &Outbound{
		bus:      opts.Bus,
		senderID: opts.SenderID,
		seqs:     make(map[string]uint64),
	}
}

// PublishEvents publishes the events in order. It stops at the first failure.
func (o *Outbound) PublishEvents(ctx context.Context, roomCode string, events []types.Event) error {
	topic := messages.EventsTopic(roomCode)
	for _, e := range events {
		msg, err := messages.NewMessage(o.senderID, string(e.Kind), roomCode, e.Round, e.Payload)
		if err != nil {
			return err
		}
		msg.Seq = o.nextSeq(roomCode)

		b, err := messages.SerializeMessage(msg)
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %v", e.Kind, err)
		}
		if err := o.bus.Publish(ctx, topic, b); err != nil {
			return fmt.Errorf("failed to publish %s: %v", e.Kind, err)
		}
	}
	return nil
}

func (o *Outbound) nextSeq(roomCode string) uint64 {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.seqs[roomCode]++
	return o.seqs[roomCode]
}

// ForgetRoom drops the sequence counter of a destroyed room.
func (o *Outbound) ForgetRoom(roomCode string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	delete(o.seqs, roomCode)
}
