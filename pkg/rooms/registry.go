package rooms

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/jonboulle/clockwork"
)

const (
	// CodeMaxRetries represents the maximum number of retries when generating a unique room code
	CodeMaxRetries = 1024
	// DefaultCodeLength is the length of generated room codes
	DefaultCodeLength = 4
	codeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// entry guards a single room. Only the room's own lock is held while it is mutated.
type entry struct {
	lock   sync.Mutex
	room   *types.Room
	closed bool
}

// Registry is the in-memory arena of rooms keyed by code.
// The map lock is only held for lookups, inserts and deletes, never while a room is mutated.
type Registry struct {
	lock       sync.RWMutex
	rooms      map[string]*entry
	clock      clockwork.Clock
	codeLength int
	rngLock    sync.Mutex
	rng        *rand.Rand
}

type NewRegistryOptions struct {
	Clock      clockwork.Clock
	CodeLength int
	// Seed seeds room code generation. Zero seeds from the current time.
	Seed int64
}

func NewRegistry(opts NewRegistryOptions) *Registry {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = DefaultCodeLength
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return &Registry{
		rooms:      make(map[string]*entry),
		clock:      opts.Clock,
		codeLength: opts.CodeLength,
		rng:        rand.New(rand.NewSource(opts.Seed)),
	}
}

// Create creates a room with the creator as its only participant and returns its code.
func (r *Registry) Create(creatorID string, difficulty types.Difficulty) (types.RoomSnapshot, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	code, err := r.generateUniqueCode(CodeMaxRetries)
	if err != nil {
		return types.RoomSnapshot{}, fmt.Errorf("failed to generate a unique room code: %v", err)
	}
	room := types.NewRoom(code, creatorID, difficulty, r.clock.Now())
	r.rooms[code] = &entry{room: room}
	return room.Snapshot(), nil
}

// generateUniqueCode generates a room code that is not in use, rejecting collisions.
// It reads from the rooms map, so it needs to be locked before calling
func (r *Registry) generateUniqueCode(maxRetries int) (string, error) {
	r.rngLock.Lock()
	defer r.rngLock.Unlock()
	for attempt := 0; attempt < maxRetries; attempt++ {
		b := make([]byte, r.codeLength)
		for i := range b {
			b[i] = codeAlphabet[r.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, ok := r.rooms[code]; !ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free code after %d attempts", maxRetries)
}

func (r *Registry) lookup(code string) (*entry, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	e, ok := r.rooms[code]
	return e, ok
}

// remove deletes a closed entry. The entry lock must be held.
func (r *Registry) remove(code string, e *entry) {
	e.closed = true
	r.lock.Lock()
	defer r.lock.Unlock()
	if current, ok := r.rooms[code]; ok && current == e {
		delete(r.rooms, code)
	}
}

// Hook runs under the room's lock after a successful membership change.
type Hook func(room *types.Room)

// Join admits a second participant. Joining a room one is already in is a no-op.
func (r *Registry) Join(code string, joinerID string, hooks ...Hook) (types.RoomSnapshot, error) {
	e, ok := r.lookup(code)
	if !ok {
		return types.RoomSnapshot{}, ErrRoomNotFound
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return types.RoomSnapshot{}, ErrRoomNotFound
	}

	room := e.room
	if room.HasParticipant(joinerID) {
		return room.Snapshot(), nil
	}
	if room.Phase == types.PhaseAbandoned {
		return types.RoomSnapshot{}, ErrRoomClosed
	}
	if room.IsFull() {
		return types.RoomSnapshot{}, ErrRoomFull
	}

	room.Participants = append(room.Participants, joinerID)
	room.LastActivity = r.clock.Now()
	if room.Phase == types.PhaseWaitingForPlayers && room.IsFull() {
		room.Phase = types.PhaseReadyToStart
	}
	for _, hook := range hooks {
		hook(room)
	}
	return room.Snapshot(), nil
}

// LeaveResult describes a departure.
type LeaveResult struct {
	Snapshot   types.RoomSnapshot
	PriorPhase types.Phase
	// Destroyed is set when the room became empty and was removed.
	Destroyed bool
}

// LeaveHook runs under the room's lock after a participant was removed.
type LeaveHook func(room *types.Room, result LeaveResult)

// Leave removes a participant. A departure mid-round abandons the room; an empty room is destroyed.
func (r *Registry) Leave(code string, participantID string, hooks ...LeaveHook) (LeaveResult, error) {
	e, ok := r.lookup(code)
	if !ok {
		return LeaveResult{}, ErrRoomNotFound
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return LeaveResult{}, ErrRoomNotFound
	}

	room := e.room
	if !room.HasParticipant(participantID) {
		return LeaveResult{}, ErrNotInRoom
	}

	remaining := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		if p != participantID {
			remaining = append(remaining, p)
		}
	}
	room.Participants = remaining
	room.LastActivity = r.clock.Now()
	delete(room.Rematch, participantID)

	result := LeaveResult{PriorPhase: room.Phase}
	switch room.Phase {
	case types.PhaseInProgress:
		room.Phase = types.PhaseAbandoned
	case types.PhaseReadyToStart, types.PhaseFinished, types.PhaseRematchPending:
		// the next start deals a fresh round for a new pairing
		room.Phase = types.PhaseWaitingForPlayers
		room.Rematch = make(map[string]bool)
		room.Deck = nil
		room.Match = nil
		room.Result = nil
	}

	if len(room.Participants) == 0 {
		r.remove(code, e)
		result.Destroyed = true
	}
	result.Snapshot = room.Snapshot()
	for _, hook := range hooks {
		hook(room, result)
	}
	return result, nil
}

// Get returns a snapshot of a room.
func (r *Registry) Get(code string) (types.RoomSnapshot, error) {
	e, ok := r.lookup(code)
	if !ok {
		return types.RoomSnapshot{}, ErrRoomNotFound
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return types.RoomSnapshot{}, ErrRoomNotFound
	}
	return e.room.Snapshot(), nil
}

// WithRoom runs fn holding only the lock of the given room.
func (r *Registry) WithRoom(code string, fn func(room *types.Room) error) error {
	e, ok := r.lookup(code)
	if !ok {
		return ErrRoomNotFound
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return ErrRoomNotFound
	}
	e.room.LastActivity = r.clock.Now()
	return fn(e.room)
}

// Reap destroys rooms idle for longer than ttl and returns their snapshots.
func (r *Registry) Reap(ttl time.Duration) []types.RoomSnapshot {
	now := r.clock.Now()
	var reaped []types.RoomSnapshot
	for _, code := range r.Codes() {
		e, ok := r.lookup(code)
		if !ok {
			continue
		}
		e.lock.Lock()
		if !e.closed && now.Sub(e.room.LastActivity) > ttl {
			reaped = append(reaped, e.room.Snapshot())
			r.remove(code, e)
		}
		e.lock.Unlock()
	}
	return reaped
}

// Codes returns the codes of all live rooms.
func (r *Registry) Codes() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	return codes
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.rooms)
}
