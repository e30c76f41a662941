package relay

import (
	"context"
	"fmt"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/messages"
	"github.com/cbodonnell/memorymatch/pkg/transport"
)

// CommandHandler applies decoded participant intents.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd types.Command) error
}

// Inbound consumes the intents of every room, drops duplicates and self-echoes,
// and dispatches the rest to a CommandHandler.
type Inbound struct {
	bus     transport.Bus
	handler CommandHandler
	localID string
	deduper *Deduper
}

type NewInboundOptions struct {
	Bus     transport.Bus
	Handler CommandHandler
	// LocalID is the sender id of this process. Messages carrying it are echoes.
	LocalID      string
	DedupeWindow int
}

func NewInbound(opts NewInboundOptions) *Inbound {
	if opts.LocalID == "" {
		opts.LocalID = messages.SenderServer
	}
	return &Inbound{
		bus:     opts.Bus,
		handler: opts.Handler,
		localID: opts.LocalID,
		deduper: NewDeduper(opts.DedupeWindow),
	}
}

// Start subscribes to the intents of every room and blocks until the context is done.
func (in *Inbound) Start(ctx context.Context) error {
	unsubscribe, err := in.bus.Subscribe(messages.IntentsWildcard, func(topic string, payload []byte) {
		if err := in.Dispatch(ctx, topic, payload); err != nil {
			log.Debug("Dropped intent on %s: %v", topic, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to intents: %v", err)
	}
	defer unsubscribe()

	log.Info("Listening for intents on %s", messages.IntentsWildcard)
	<-ctx.Done()
	return nil
}

// Dispatch decodes one intent and hands it to the handler.
func (in *Inbound) Dispatch(ctx context.Context, topic string, payload []byte) error {
	code, err := messages.RoomFromTopic(topic)
	if err != nil {
		return err
	}
	msg, err := messages.DeserializeMessage(payload)
	if err != nil {
		return err
	}
	if msg.SenderID == in.localID {
		return fmt.Errorf("echo of %s: %w", msg.MsgID, ErrStaleMessage)
	}
	if msg.MsgID == "" {
		return fmt.Errorf("intent %s from %s has no message id", msg.Type, msg.SenderID)
	}
	if msg.Room != "" && msg.Room != code {
		return fmt.Errorf("intent for room %s published on %s", msg.Room, topic)
	}
	msg.Room = code

	cmd, err := messages.CommandFromMessage(msg)
	if err != nil {
		return err
	}
	if in.deduper.Seen(code, msg.MsgID) {
		return fmt.Errorf("duplicate %s: %w", msg.MsgID, ErrStaleMessage)
	}
	if err := in.handler.HandleCommand(ctx, cmd); err != nil {
		log.Room(code).Warn("Failed to handle %s from %s: %v", cmd.Kind, cmd.ParticipantID, err)
	}
	return nil
}

// ForgetRoom drops the remembered message ids of a destroyed room.
func (in *Inbound) ForgetRoom(roomCode string) {
	in.deduper.Forget(roomCode)
}
