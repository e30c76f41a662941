package rooms

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return NewRegistry(NewRegistryOptions{Clock: clock, Seed: 42}), clock
}

func TestCreate(t *testing.T) {
	r, clock := newTestRegistry(t)

	snap, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{4}$`), snap.Code)
	assert.Equal(t, []string{"alice"}, snap.Participants)
	assert.Equal(t, "alice", snap.AuthorityID)
	assert.Equal(t, types.PhaseWaitingForPlayers, snap.Phase)
	assert.Equal(t, clock.Now(), snap.CreatedAt)
	assert.False(t, snap.Started)
	assert.Equal(t, 1, r.Len())
}

func TestCreateUniqueCodes(t *testing.T) {
	r, _ := newTestRegistry(t)
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		snap, err := r.Create("p", types.DifficultyEasy)
		require.NoError(t, err)
		_, dup := seen[snap.Code]
		require.False(t, dup, "duplicate code %s", snap.Code)
		seen[snap.Code] = struct{}{}
	}
	assert.Equal(t, 500, r.Len())
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *Registry, code string)
		code    string
		joiner  string
		wantErr error
		phase   types.Phase
		members []string
	}{
		{
			name:    "second participant readies the room",
			joiner:  "bob",
			phase:   types.PhaseReadyToStart,
			members: []string{"alice", "bob"},
		},
		{
			name:    "unknown code",
			code:    "ZZZZ",
			joiner:  "bob",
			wantErr: ErrRoomNotFound,
		},
		{
			name: "third participant",
			setup: func(r *Registry, code string) {
				_, err := r.Join(code, "bob")
				require.NoError(t, err)
			},
			joiner:  "carol",
			wantErr: ErrRoomFull,
		},
		{
			name: "rejoin is idempotent",
			setup: func(r *Registry, code string) {
				_, err := r.Join(code, "bob")
				require.NoError(t, err)
			},
			joiner:  "bob",
			phase:   types.PhaseReadyToStart,
			members: []string{"alice", "bob"},
		},
		{
			name:    "creator rejoining changes nothing",
			joiner:  "alice",
			phase:   types.PhaseWaitingForPlayers,
			members: []string{"alice"},
		},
		{
			name: "abandoned room is closed",
			setup: func(r *Registry, code string) {
				require.NoError(t, r.WithRoom(code, func(room *types.Room) error {
					room.Phase = types.PhaseAbandoned
					return nil
				}))
			},
			joiner:  "bob",
			wantErr: ErrRoomClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t)
			created, err := r.Create("alice", types.DifficultyEasy)
			require.NoError(t, err)
			if tt.setup != nil {
				tt.setup(r, created.Code)
			}
			code := created.Code
			if tt.code != "" {
				code = tt.code
			}

			snap, err := r.Join(code, tt.joiner)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.phase, snap.Phase)
			assert.Equal(t, tt.members, snap.Participants)
			assert.Equal(t, "alice", snap.AuthorityID)
		})
	}
}

func TestJoinRunsHooksUnderLock(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	var seen []string
	_, err = r.Join(created.Code, "bob", func(room *types.Room) {
		seen = append([]string(nil), room.Participants...)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, seen)

	// no membership change, no hook
	called := false
	_, err = r.Join(created.Code, "bob", func(room *types.Room) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
}

func TestConcurrentJoinAdmitsOne(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	joiners := []string{"bob", "carol", "dave", "erin", "frank"}
	var wg sync.WaitGroup
	var lock sync.Mutex
	admitted, full := 0, 0
	for _, j := range joiners {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := r.Join(created.Code, id)
			lock.Lock()
			defer lock.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, ErrRoomFull):
				full++
			}
		}(j)
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, len(joiners)-1, full)
	snap, err := r.Get(created.Code)
	require.NoError(t, err)
	assert.Len(t, snap.Participants, 2)
}

func TestLeave(t *testing.T) {
	tests := []struct {
		name          string
		phase         types.Phase
		leaver        string
		wantPhase     types.Phase
		wantAuthority string
	}{
		{
			name:          "authority leaves a ready room",
			phase:         types.PhaseReadyToStart,
			leaver:        "alice",
			wantPhase:     types.PhaseWaitingForPlayers,
			wantAuthority: "bob",
		},
		{
			name:          "joiner leaves a ready room",
			phase:         types.PhaseReadyToStart,
			leaver:        "bob",
			wantPhase:     types.PhaseWaitingForPlayers,
			wantAuthority: "alice",
		},
		{
			name:          "departure mid-round abandons",
			phase:         types.PhaseInProgress,
			leaver:        "bob",
			wantPhase:     types.PhaseAbandoned,
			wantAuthority: "alice",
		},
		{
			name:          "departure after the round",
			phase:         types.PhaseFinished,
			leaver:        "alice",
			wantPhase:     types.PhaseWaitingForPlayers,
			wantAuthority: "bob",
		},
		{
			name:          "departure during rematch handshake",
			phase:         types.PhaseRematchPending,
			leaver:        "bob",
			wantPhase:     types.PhaseWaitingForPlayers,
			wantAuthority: "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t)
			created, err := r.Create("alice", types.DifficultyEasy)
			require.NoError(t, err)
			_, err = r.Join(created.Code, "bob")
			require.NoError(t, err)
			require.NoError(t, r.WithRoom(created.Code, func(room *types.Room) error {
				room.Phase = tt.phase
				room.Rematch["alice"] = true
				room.Deck = types.Deck{{Position: 0, Symbol: "A", InstanceID: "a1"}, {Position: 1, Symbol: "A", InstanceID: "a2"}}
				room.Match = types.NewMatchState(room.Participants, "alice", time.Now())
				room.Match.Scores["alice"] = 1
				room.Match.Moves = 1
				room.Result = &types.RoundResult{WinnerID: "alice", Scores: map[string]int{"alice": 1, "bob": 0}, Moves: 1}
				return nil
			}))

			res, err := r.Leave(created.Code, tt.leaver)
			require.NoError(t, err)
			assert.Equal(t, tt.phase, res.PriorPhase)
			assert.False(t, res.Destroyed)
			assert.Equal(t, tt.wantPhase, res.Snapshot.Phase)
			assert.Equal(t, tt.wantAuthority, res.Snapshot.AuthorityID)
			assert.Len(t, res.Snapshot.Participants, 1)
			if tt.wantPhase == types.PhaseWaitingForPlayers {
				assert.Empty(t, res.Snapshot.RematchRequested)
				assert.Nil(t, res.Snapshot.Result)
				assert.Empty(t, res.Snapshot.Scores)
				assert.Zero(t, res.Snapshot.Moves)
				assert.False(t, res.Snapshot.Started)
			} else {
				assert.NotNil(t, res.Snapshot.Scores)
			}
		})
	}
}

func TestLeaveLastParticipantDestroys(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	res, err := r.Leave(created.Code, "alice")
	require.NoError(t, err)
	assert.True(t, res.Destroyed)
	assert.Equal(t, 0, r.Len())

	_, err = r.Get(created.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = r.Join(created.Code, "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	err = r.WithRoom(created.Code, func(*types.Room) error { return nil })
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveErrors(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	_, err = r.Leave("NOPE", "alice")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = r.Leave(created.Code, "mallory")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestGetReturnsCopy(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	snap, err := r.Get(created.Code)
	require.NoError(t, err)
	snap.Participants[0] = "mallory"

	again, err := r.Get(created.Code)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.AuthorityID)
}

func TestWithRoomPropagatesError(t *testing.T) {
	r, _ := newTestRegistry(t)
	created, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = r.WithRoom(created.Code, func(*types.Room) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestReap(t *testing.T) {
	r, clock := newTestRegistry(t)
	stale, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	fresh, err := r.Create("bob", types.DifficultyEasy)
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	reaped := r.Reap(30 * time.Minute)
	require.Len(t, reaped, 1)
	assert.Equal(t, stale.Code, reaped[0].Code)

	_, err = r.Get(stale.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = r.Get(fresh.Code)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{fresh.Code}, r.Codes())
}

func TestActivityDefersReap(t *testing.T) {
	r, clock := newTestRegistry(t)
	created, err := r.Create("alice", types.DifficultyEasy)
	require.NoError(t, err)

	clock.Advance(25 * time.Minute)
	require.NoError(t, r.WithRoom(created.Code, func(*types.Room) error { return nil }))
	clock.Advance(25 * time.Minute)

	assert.Empty(t, r.Reap(30*time.Minute))
}
