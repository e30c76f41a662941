package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/messages"
	"github.com/cbodonnell/memorymatch/pkg/rooms"
	"github.com/cbodonnell/memorymatch/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	lock     sync.Mutex
	commands []types.Command
}

func (h *recordingHandler) HandleCommand(_ context.Context, cmd types.Command) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.commands = append(h.commands, cmd)
	return nil
}

func (h *recordingHandler) all() []types.Command {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]types.Command(nil), h.commands...)
}

func encode(t *testing.T, msg *messages.Message) []byte {
	t.Helper()
	b, err := messages.SerializeMessage(msg)
	require.NoError(t, err)
	return b
}

func intent(t *testing.T, sender string, kind string, room string, payload interface{}) *messages.Message {
	t.Helper()
	msg, err := messages.NewMessage(sender, kind, room, 1, payload)
	require.NoError(t, err)
	return msg
}

func TestInbound_Dispatch(t *testing.T) {
	handler := &recordingHandler{}
	in := NewInbound(NewInboundOptions{Handler: handler})
	ctx := context.Background()

	flip := intent(t, "bob", messages.MessageTypeRequestFlip, "AB12", messages.RequestFlip{Position: 7})
	require.NoError(t, in.Dispatch(ctx, "rooms/AB12/intents", encode(t, flip)))

	// redelivery of the same message is dropped
	err := in.Dispatch(ctx, "rooms/AB12/intents", encode(t, flip))
	assert.ErrorIs(t, err, ErrStaleMessage)

	// our own messages are echoes
	echo := intent(t, messages.SenderServer, messages.MessageTypeRequestStart, "AB12", nil)
	err = in.Dispatch(ctx, "rooms/AB12/intents", encode(t, echo))
	assert.ErrorIs(t, err, ErrStaleMessage)

	// room in the envelope must match the topic
	misrouted := intent(t, "bob", messages.MessageTypeRequestStart, "CD34", nil)
	assert.Error(t, in.Dispatch(ctx, "rooms/AB12/intents", encode(t, misrouted)))

	assert.Error(t, in.Dispatch(ctx, "rooms/AB12/intents", []byte("garbage")))
	assert.Error(t, in.Dispatch(ctx, "lobby", encode(t, flip)))

	assert.Equal(t, []types.Command{{
		Kind:          types.CommandFlip,
		RoomCode:      "AB12",
		ParticipantID: "bob",
		Position:      7,
		MsgID:         flip.MsgID,
	}}, handler.all())
}

func TestInbound_StartSubscribes(t *testing.T) {
	bus := transport.NewMemoryBus(transport.NewMemoryBusOptions{})
	defer bus.Close()
	handler := &recordingHandler{}
	in := NewInbound(NewInboundOptions{Bus: bus, Handler: handler})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Start(ctx) }()

	payload := encode(t, intent(t, "alice", messages.MessageTypeLeave, "AB12", nil))
	assert.Eventually(t, func() bool {
		_ = bus.Publish(context.Background(), messages.IntentsTopic("AB12"), payload)
		return len(handler.all()) > 0
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, types.CommandLeave, handler.all()[0].Kind)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("inbound did not stop")
	}
}

// A duplicating transport must not cause an intent to be applied twice.
func TestRelay_EndToEndWithDuplicates(t *testing.T) {
	bus := transport.NewMemoryBus(transport.NewMemoryBusOptions{DuplicateRate: 1})
	defer bus.Close()

	registry := rooms.NewRegistry(rooms.NewRegistryOptions{})
	gm := game.NewGameManager(game.NewGameManagerOptions{
		Registry:  registry,
		Arbiter:   game.NewArbiter(game.NewArbiterOptions{}),
		Publisher: NewOutbound(NewOutboundOptions{Bus: bus}),
	})
	in := NewInbound(NewInboundOptions{Bus: bus, Handler: gm})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go in.Start(ctx)

	snap, err := gm.CreateRoom(ctx, "alice", types.DifficultyEasy)
	require.NoError(t, err)

	var lock sync.Mutex
	var received []*messages.Message
	_, err = bus.Subscribe(messages.EventsTopic(snap.Code), func(_ string, payload []byte) {
		msg, err := messages.DeserializeMessage(payload)
		if err != nil {
			return
		}
		lock.Lock()
		defer lock.Unlock()
		received = append(received, msg)
	})
	require.NoError(t, err)

	_, err = gm.JoinRoom(ctx, snap.Code, "bob")
	require.NoError(t, err)

	// resend the same intent until the inbound subscription is up; redeliveries are deduplicated
	start := encode(t, intent(t, "alice", messages.MessageTypeRequestStart, snap.Code, nil))
	assert.Eventually(t, func() bool {
		_ = bus.Publish(ctx, messages.IntentsTopic(snap.Code), start)
		status, err := gm.Status(ctx, snap.Code)
		return err == nil && status.Phase == types.PhaseInProgress
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(received) == 4
	}, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	status, err := gm.Status(ctx, snap.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Round)

	lock.Lock()
	defer lock.Unlock()
	// player-joined and deck-ready, each delivered twice by the transport
	assert.Len(t, received, 4)
	seqs := make(map[uint64]int)
	for _, msg := range received {
		seqs[msg.Seq]++
	}
	assert.Equal(t, map[uint64]int{1: 2, 2: 2}, seqs)
}
