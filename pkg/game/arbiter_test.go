package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairedDeck lays out pairs side by side: positions 2k and 2k+1 share a symbol.
type pairedDeck struct {
	dealt int
}

func (d *pairedDeck) Generate(pairsCount int) types.Deck {
	d.dealt++
	deck := make(types.Deck, 0, pairsCount*2)
	for i := 0; i < pairsCount*2; i++ {
		deck = append(deck, types.Card{
			Position:   i,
			Symbol:     string(rune('A' + i/2)),
			InstanceID: fmt.Sprintf("deal%d-card%d", d.dealt, i),
		})
	}
	return deck
}

func newTestArbiter() *Arbiter {
	return NewArbiter(NewArbiterOptions{
		Decks: &pairedDeck{},
		Clock: clockwork.NewFakeClock(),
	})
}

func readyRoom() *types.Room {
	room := types.NewRoom("ABCD", "alice", types.DifficultyEasy, time.Unix(0, 0))
	room.Participants = append(room.Participants, "bob")
	room.Phase = types.PhaseReadyToStart
	return room
}

func startedRoom(t *testing.T, a *Arbiter) *types.Room {
	t.Helper()
	room := readyRoom()
	_, err := a.Start(room, "alice")
	require.NoError(t, err)
	return room
}

func kinds(events []types.Event) []types.EventKind {
	out := make([]types.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func flip(t *testing.T, a *Arbiter, room *types.Room, pid string, pos int) Result {
	t.Helper()
	res, err := a.Flip(room, pid, pos)
	require.NoError(t, err)
	return res
}

func TestStart(t *testing.T) {
	tests := []struct {
		name      string
		room      func() *types.Room
		requester string
		wantErr   error
	}{
		{
			name:      "authority starts a full room",
			room:      readyRoom,
			requester: "alice",
		},
		{
			name:      "joiner cannot start",
			room:      readyRoom,
			requester: "bob",
			wantErr:   ErrNotAuthority,
		},
		{
			name:      "stranger cannot start",
			room:      readyRoom,
			requester: "mallory",
			wantErr:   ErrNotParticipant,
		},
		{
			name: "waiting room cannot start",
			room: func() *types.Room {
				return types.NewRoom("ABCD", "alice", types.DifficultyEasy, time.Unix(0, 0))
			},
			requester: "alice",
			wantErr:   ErrInvalidPhase,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArbiter()
			room := tt.room()
			res, err := a.Start(room, tt.requester)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, room.Deck)
				return
			}
			require.NoError(t, err)
			require.Len(t, res.Events, 1)
			assert.Equal(t, types.EventDeckReady, res.Events[0].Kind)
			assert.Equal(t, 1, res.Events[0].Round)

			payload := res.Events[0].Payload.(types.DeckReadyPayload)
			assert.Len(t, payload.Deck, 16)
			assert.Equal(t, "alice", payload.AuthorityID)
			assert.Equal(t, "alice", payload.TurnOwner)

			assert.Equal(t, types.PhaseInProgress, room.Phase)
			assert.Equal(t, 1, room.Round)
			assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, room.Match.Scores)
		})
	}
}

func TestStartTwice(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)
	_, err := a.Start(room, "alice")
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.Equal(t, 1, room.Round)
}

// Authority flips a matching pair and keeps the turn.
func TestMatchingPair(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	res := flip(t, a, room, "alice", 0)
	assert.Equal(t, []types.EventKind{types.EventFlipAccepted}, kinds(res.Events))
	require.NotNil(t, res.Followup)
	assert.Equal(t, FollowupPartnerTimeout, res.Followup.Kind)
	assert.Equal(t, DefaultPartnerTimeout, res.Followup.After)

	res = flip(t, a, room, "alice", 1)
	assert.Equal(t, []types.EventKind{types.EventFlipAccepted, types.EventPairResolved}, kinds(res.Events))
	assert.Nil(t, res.Followup)

	resolved := res.Events[1].Payload.(types.PairResolvedPayload)
	assert.True(t, resolved.IsMatch)
	assert.Equal(t, []int{0, 1}, resolved.Positions)
	assert.Equal(t, 1, resolved.Moves)
	assert.Equal(t, "alice", resolved.TurnOwner)
	assert.Equal(t, map[string]int{"alice": 1, "bob": 0}, resolved.Scores)
	assert.ElementsMatch(t, []string{room.Deck[0].InstanceID, room.Deck[1].InstanceID}, resolved.MatchedIDs)

	assert.Empty(t, room.Match.Revealed)
	assert.Equal(t, "alice", room.Match.TurnOwner)
}

// Joiner flips a mismatching pair; the turn passes after the reveal hold.
func TestMismatchedPair(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)
	room.Match.TurnOwner = "bob"

	flip(t, a, room, "bob", 0)
	res := flip(t, a, room, "bob", 2)
	require.Len(t, res.Events, 2)
	resolved := res.Events[1].Payload.(types.PairResolvedPayload)
	assert.False(t, resolved.IsMatch)
	assert.Equal(t, "alice", resolved.TurnOwner)
	assert.Equal(t, 1, resolved.Moves)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, resolved.Scores)

	require.NotNil(t, res.Followup)
	assert.Equal(t, FollowupRevealHold, res.Followup.Kind)
	assert.Equal(t, DefaultRevealHold, res.Followup.After)
	assert.True(t, room.Match.Resolving)

	// nobody can flip while the pair is held face up
	_, err := a.Flip(room, "bob", 4)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = a.Flip(room, "alice", 4)
	assert.ErrorIs(t, err, ErrInvalidTurn)

	held := a.Apply(room, *res.Followup)
	require.Len(t, held.Events, 1)
	assert.Equal(t, types.EventTurnChanged, held.Events[0].Kind)
	assert.Equal(t, "alice", held.Events[0].Payload.(types.TurnChangedPayload).TurnOwner)
	assert.Empty(t, room.Match.Revealed)
	assert.False(t, room.Match.Resolving)

	// applying the same hold again does nothing
	assert.Empty(t, a.Apply(room, *res.Followup).Events)
	assert.Equal(t, "alice", room.Match.TurnOwner)
}

// A flip from the participant who does not own the turn is rejected without any state change.
func TestOutOfTurnFlip(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	_, err := a.Flip(room, "bob", 0)
	assert.ErrorIs(t, err, ErrInvalidTurn)
	assert.Empty(t, room.Match.Revealed)
	assert.Equal(t, uint64(0), room.Match.Generation)
}

func TestFlipInvalidPosition(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, a *Arbiter, room *types.Room)
		position int
	}{
		{name: "negative", position: -1},
		{name: "past the end", position: 16},
		{
			name: "already matched",
			setup: func(t *testing.T, a *Arbiter, room *types.Room) {
				flip(t, a, room, "alice", 0)
				flip(t, a, room, "alice", 1)
			},
			position: 0,
		},
		{
			name: "already revealed",
			setup: func(t *testing.T, a *Arbiter, room *types.Room) {
				flip(t, a, room, "alice", 4)
			},
			position: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArbiter()
			room := startedRoom(t, a)
			if tt.setup != nil {
				tt.setup(t, a, room)
			}
			before := room.Match.Copy()

			_, err := a.Flip(room, "alice", tt.position)
			assert.ErrorIs(t, err, ErrInvalidPosition)
			assert.Equal(t, before, room.Match)
		})
	}
}

func TestFlipBeforeStart(t *testing.T) {
	a := newTestArbiter()
	_, err := a.Flip(readyRoom(), "alice", 0)
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

// Final matching pair finishes the round and reports the winner.
func TestRoundFinished(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	var last Result
	for pair := 0; pair < 8; pair++ {
		flip(t, a, room, "alice", pair*2)
		last = flip(t, a, room, "alice", pair*2+1)
	}

	assert.Equal(t, []types.EventKind{types.EventFlipAccepted, types.EventPairResolved, types.EventRoundFinished}, kinds(last.Events))
	finished := last.Events[2].Payload.(types.RoundFinishedPayload)
	assert.Equal(t, "alice", finished.WinnerID)
	assert.Equal(t, 8, finished.Moves)
	assert.Equal(t, map[string]int{"alice": 8, "bob": 0}, finished.Scores)

	assert.Equal(t, types.PhaseFinished, room.Phase)
	require.NotNil(t, room.Result)
	assert.Equal(t, "alice", room.Result.WinnerID)

	_, err := a.Flip(room, "alice", 0)
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestRoundFinishedDraw(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	var last Result
	for pair := 0; pair < 8; pair++ {
		owner := "alice"
		if pair >= 4 {
			owner = "bob"
		}
		room.Match.TurnOwner = owner
		flip(t, a, room, owner, pair*2)
		last = flip(t, a, room, owner, pair*2+1)
	}
	finished := last.Events[len(last.Events)-1].Payload.(types.RoundFinishedPayload)
	assert.Equal(t, types.WinnerDraw, finished.WinnerID)
	assert.Equal(t, map[string]int{"alice": 4, "bob": 4}, finished.Scores)
}

func TestTurnAlternatesOnlyOnMismatch(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	flip(t, a, room, "alice", 0)
	flip(t, a, room, "alice", 1)
	assert.Equal(t, "alice", room.Match.TurnOwner)

	flip(t, a, room, "alice", 2)
	res := flip(t, a, room, "alice", 4)
	a.Apply(room, *res.Followup)
	assert.Equal(t, "bob", room.Match.TurnOwner)

	flip(t, a, room, "bob", 3)
	res = flip(t, a, room, "bob", 5)
	a.Apply(room, *res.Followup)
	assert.Equal(t, "alice", room.Match.TurnOwner)
	assert.Equal(t, 3, room.Match.Moves)
}

func TestMatchedOnlyGrows(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	sequence := []struct {
		pid string
		pos int
	}{
		{"alice", 0}, {"alice", 1},
		{"alice", 2}, {"alice", 5},
		{"bob", 2}, {"bob", 3},
		{"bob", 6}, {"bob", 9},
		{"alice", 4}, {"alice", 5},
	}
	prev := 0
	for _, step := range sequence {
		res, err := a.Flip(room, step.pid, step.pos)
		require.NoError(t, err, "%s flipping %d", step.pid, step.pos)
		if res.Followup != nil && res.Followup.Kind == FollowupRevealHold {
			a.Apply(room, *res.Followup)
		}
		require.GreaterOrEqual(t, len(room.Match.Matched), prev)
		prev = len(room.Match.Matched)
	}
	assert.Equal(t, 6, prev)
	assert.Equal(t, 5, room.Match.Moves)
}

func TestPartnerTimeout(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	res := flip(t, a, room, "alice", 6)
	require.NotNil(t, res.Followup)

	expired := a.Apply(room, *res.Followup)
	require.Len(t, expired.Events, 1)
	assert.Equal(t, types.EventPairExpired, expired.Events[0].Kind)
	payload := expired.Events[0].Payload.(types.PairExpiredPayload)
	assert.Equal(t, []int{6}, payload.Positions)
	assert.Equal(t, "alice", payload.TurnOwner)

	assert.Empty(t, room.Match.Revealed)
	assert.Equal(t, 0, room.Match.Moves)
	assert.Equal(t, "alice", room.Match.TurnOwner)

	// the owner can flip the same card again
	flip(t, a, room, "alice", 6)
}

func TestStaleFollowupsAreIgnored(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	first := flip(t, a, room, "alice", 0)
	flip(t, a, room, "alice", 1)

	// the partner arrived, so the timeout for the first flip no longer applies
	assert.Empty(t, a.Apply(room, *first.Followup).Events)
	assert.Equal(t, 1, room.Match.Moves)

	next := flip(t, a, room, "alice", 2)
	stale := *next.Followup
	stale.Round = room.Round - 1
	assert.Empty(t, a.Apply(room, stale).Events)
	assert.Equal(t, []int{2}, room.Match.Revealed)
}

func TestRematch(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)
	for pair := 0; pair < 8; pair++ {
		flip(t, a, room, "alice", pair*2)
		flip(t, a, room, "alice", pair*2+1)
	}
	require.Equal(t, types.PhaseFinished, room.Phase)
	firstDeck := room.Deck.Clone()

	res, err := a.RequestRematch(room, "bob")
	require.NoError(t, err)
	assert.Equal(t, []types.EventKind{types.EventRematchOffered}, kinds(res.Events))
	assert.Equal(t, "bob", res.Events[0].Payload.(types.RematchOfferedPayload).FromID)
	assert.Equal(t, types.PhaseRematchPending, room.Phase)

	// duplicate request is a no-op
	res, err = a.RequestRematch(room, "bob")
	require.NoError(t, err)
	assert.Empty(t, res.Events)

	res, err = a.RequestRematch(room, "alice")
	require.NoError(t, err)
	assert.Equal(t, []types.EventKind{types.EventRematchStarting, types.EventDeckReady}, kinds(res.Events))
	assert.Equal(t, 2, res.Events[0].Round)
	assert.Equal(t, 2, res.Events[1].Round)

	assert.Equal(t, 2, room.Round)
	assert.Equal(t, types.PhaseInProgress, room.Phase)
	assert.Equal(t, "alice", room.Match.TurnOwner)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, room.Match.Scores)
	assert.Equal(t, 0, room.Match.Moves)
	assert.Empty(t, room.Match.Matched)
	assert.Empty(t, room.Rematch)
	assert.Nil(t, room.Result)
	assert.NotEqual(t, firstDeck[0].InstanceID, room.Deck[0].InstanceID)
}

func TestCancelRematch(t *testing.T) {
	a := newTestArbiter()
	room := readyRoom()
	room.Phase = types.PhaseFinished

	_, err := a.CancelRematch(room, "alice")
	assert.ErrorIs(t, err, ErrInvalidPhase)

	_, err = a.RequestRematch(room, "alice")
	require.NoError(t, err)

	// bob has nothing to cancel
	res, err := a.CancelRematch(room, "bob")
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.True(t, room.Rematch["alice"])

	res, err = a.CancelRematch(room, "alice")
	require.NoError(t, err)
	assert.Equal(t, []types.EventKind{types.EventRematchCancelled}, kinds(res.Events))
	assert.Equal(t, types.PhaseFinished, room.Phase)
	assert.False(t, room.Rematch["alice"])
}

func TestRematchRejectedMidRound(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)
	_, err := a.RequestRematch(room, "alice")
	assert.ErrorIs(t, err, ErrInvalidPhase)
	_, err = a.RequestRematch(room, "mallory")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestIsRejection(t *testing.T) {
	assert.True(t, IsRejection(ErrInvalidTurn))
	assert.True(t, IsRejection(fmt.Errorf("wrapped: %w", ErrInvalidPosition)))
	assert.True(t, IsRejection(ErrInvalidPhase))
	assert.False(t, IsRejection(ErrNotAuthority))
	assert.False(t, IsRejection(nil))
}

func TestRoundFinishedFiveThree(t *testing.T) {
	a := newTestArbiter()
	room := startedRoom(t, a)

	var last Result
	for pair := 0; pair < 8; pair++ {
		owner := "alice"
		if pair >= 5 {
			owner = "bob"
		}
		room.Match.TurnOwner = owner
		flip(t, a, room, owner, pair*2)
		last = flip(t, a, room, owner, pair*2+1)
	}

	assert.Len(t, room.Match.Matched, 16)
	assert.Equal(t, types.PhaseFinished, room.Phase)
	finished := last.Events[len(last.Events)-1].Payload.(types.RoundFinishedPayload)
	assert.Equal(t, "alice", finished.WinnerID)
	assert.Equal(t, map[string]int{"alice": 5, "bob": 3}, finished.Scores)

	// only alice asked for a rematch so far
	_, err := a.RequestRematch(room, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseRematchPending, room.Phase)
	_, err = a.RequestRematch(room, "bob")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseInProgress, room.Phase)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, room.Match.Scores)
}

func TestDuplicateSecondFlip(t *testing.T) {
	tests := []struct {
		name   string
		second int
	}{
		{name: "matching pair", second: 1},
		{name: "mismatching pair", second: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArbiter()
			room := startedRoom(t, a)
			room.Match.TurnOwner = "bob"

			flip(t, a, room, "bob", 0)
			flip(t, a, room, "bob", tt.second)
			once := room.Match.Copy()

			_, err := a.Flip(room, "bob", tt.second)
			assert.Error(t, err)
			assert.True(t, IsRejection(err))
			assert.Equal(t, once, room.Match)
		})
	}
}
