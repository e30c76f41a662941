package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/deck"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/rooms"
	"github.com/jonboulle/clockwork"
)

// EventPublisher broadcasts authoritative events to the participants of a room.
// Calls for one room are made in order while the room is locked.
type EventPublisher interface {
	PublishEvents(ctx context.Context, roomCode string, events []types.Event) error
}

// RoundSummary describes a finished round for the leaderboard.
type RoundSummary struct {
	RoomCode   string
	Round      int
	Difficulty types.Difficulty
	Result     types.RoundResult
	Elapsed    time.Duration
}

type GameManager struct {
	registry          *rooms.Registry
	arbiter           *Arbiter
	publisher         EventPublisher
	clock             clockwork.Clock
	roundFinishedChan chan<- RoundSummary
	roomClosedHooks   []func(code string)

	timersLock sync.Mutex
	timers     map[string][]*pendingTimer
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	Registry  *rooms.Registry
	Arbiter   *Arbiter
	Publisher EventPublisher
	Clock     clockwork.Clock
	// RoundFinishedChan receives a summary for every finished round. Optional.
	RoundFinishedChan chan<- RoundSummary
	// RoomClosedHooks run after a room is destroyed, to release per-room state elsewhere.
	RoomClosedHooks []func(code string)
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &GameManager{
		registry:          opts.Registry,
		arbiter:           opts.Arbiter,
		publisher:         opts.Publisher,
		clock:             opts.Clock,
		roundFinishedChan: opts.RoundFinishedChan,
		roomClosedHooks:   opts.RoomClosedHooks,
		timers:            make(map[string][]*pendingTimer),
	}
}

// CreateRoom opens a room with the creator as authority.
func (gm *GameManager) CreateRoom(_ context.Context, creatorID string, difficulty types.Difficulty) (types.RoomSnapshot, error) {
	if err := CheckParticipantID(creatorID); err != nil {
		return types.RoomSnapshot{}, err
	}
	difficulty, err := deck.ParseDifficulty(string(difficulty))
	if err != nil {
		return types.RoomSnapshot{}, err
	}
	snap, err := gm.registry.Create(creatorID, difficulty)
	if err != nil {
		return types.RoomSnapshot{}, err
	}
	log.Room(snap.Code).Info("Room created by %s (%s)", creatorID, difficulty)
	return snap, nil
}

// JoinRoom admits a participant and announces them to the room.
func (gm *GameManager) JoinRoom(ctx context.Context, code string, participantID string) (types.RoomSnapshot, error) {
	if err := CheckParticipantID(participantID); err != nil {
		return types.RoomSnapshot{}, err
	}
	snap, err := gm.registry.Join(code, participantID, func(room *types.Room) {
		gm.publish(ctx, room, []types.Event{{
			Kind:  types.EventPlayerJoined,
			Round: room.Round,
			Payload: types.PlayerJoinedPayload{
				ParticipantID: participantID,
				Participants:  append([]string(nil), room.Participants...),
			},
		}})
	})
	if err != nil {
		return types.RoomSnapshot{}, fmt.Errorf("failed to join room %s: %w", code, err)
	}
	log.Room(code).Info("%s joined", participantID)
	return snap, nil
}

// Status returns a snapshot of a room for late joiners and reconnecting clients.
func (gm *GameManager) Status(_ context.Context, code string) (types.RoomSnapshot, error) {
	return gm.registry.Get(code)
}

// HandleCommand applies a decoded participant intent.
// Expected rejections are logged at debug and dropped.
func (gm *GameManager) HandleCommand(ctx context.Context, cmd types.Command) error {
	if cmd.Kind == types.CommandLeave {
		_, err := gm.LeaveRoom(ctx, cmd.RoomCode, cmd.ParticipantID)
		return err
	}

	err := gm.registry.WithRoom(cmd.RoomCode, func(room *types.Room) error {
		var res Result
		var err error
		switch cmd.Kind {
		case types.CommandStart:
			res, err = gm.arbiter.Start(room, cmd.ParticipantID)
		case types.CommandFlip:
			res, err = gm.arbiter.Flip(room, cmd.ParticipantID, cmd.Position)
		case types.CommandRematch:
			res, err = gm.arbiter.RequestRematch(room, cmd.ParticipantID)
		case types.CommandCancelRematch:
			res, err = gm.arbiter.CancelRematch(room, cmd.ParticipantID)
		default:
			return fmt.Errorf("unknown command kind: %s", cmd.Kind)
		}
		if err != nil {
			return err
		}
		gm.apply(ctx, room, res)
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			log.Room(cmd.RoomCode).Debug("Rejected %s from %s: %v", cmd.Kind, cmd.ParticipantID, err)
			return nil
		}
		return fmt.Errorf("failed to handle %s from %s: %w", cmd.Kind, cmd.ParticipantID, err)
	}
	return nil
}

// apply publishes the events of a transition and schedules its followup.
// The room lock must be held.
func (gm *GameManager) apply(ctx context.Context, room *types.Room, res Result) {
	if len(res.Events) > 0 {
		gm.publish(ctx, room, res.Events)
	}
	for _, e := range res.Events {
		if e.Kind == types.EventRoundFinished {
			gm.roundFinished(room)
		}
	}
	if res.Followup != nil {
		gm.schedule(room.Code, *res.Followup)
	}
}

type pendingTimer struct {
	timer clockwork.Timer
}

// schedule arms a timer that re-enters the room through the registry.
func (gm *GameManager) schedule(code string, f Followup) {
	pending := &pendingTimer{}

	gm.timersLock.Lock()
	defer gm.timersLock.Unlock()
	gm.timers[code] = append(gm.timers[code], pending)
	pending.timer = gm.clock.AfterFunc(f.After, func() {
		gm.forgetTimer(code, pending)
		err := gm.registry.WithRoom(code, func(room *types.Room) error {
			res := gm.arbiter.Apply(room, f)
			if f.Kind == FollowupPartnerTimeout && len(res.Events) > 0 {
				log.Room(code).Debug("Flip of %s: %v", room.Match.TurnOwner, ErrPartnerTimeout)
			}
			gm.apply(context.Background(), room, res)
			return nil
		})
		if err != nil && !errors.Is(err, rooms.ErrRoomNotFound) {
			log.Room(code).Error("Failed to apply followup: %v", err)
		}
	})
}

func (gm *GameManager) forgetTimer(code string, pending *pendingTimer) {
	gm.timersLock.Lock()
	defer gm.timersLock.Unlock()
	timers := gm.timers[code]
	for i, t := range timers {
		if t == pending {
			gm.timers[code] = append(timers[:i], timers[i+1:]...)
			break
		}
	}
	if len(gm.timers[code]) == 0 {
		delete(gm.timers, code)
	}
}

// cancelTimers stops every pending followup of a room.
func (gm *GameManager) cancelTimers(code string) {
	gm.timersLock.Lock()
	defer gm.timersLock.Unlock()
	for _, t := range gm.timers[code] {
		t.timer.Stop()
	}
	delete(gm.timers, code)
}

func (gm *GameManager) pendingTimers(code string) int {
	gm.timersLock.Lock()
	defer gm.timersLock.Unlock()
	return len(gm.timers[code])
}

func (gm *GameManager) roomClosed(code string) {
	gm.cancelTimers(code)
	for _, hook := range gm.roomClosedHooks {
		hook(code)
	}
}

func (gm *GameManager) publish(ctx context.Context, room *types.Room, events []types.Event) {
	if gm.publisher == nil {
		return
	}
	if err := gm.publisher.PublishEvents(ctx, room.Code, events); err != nil {
		log.Room(room.Code).Error("Failed to publish %d events: %v", len(events), err)
	}
}

func (gm *GameManager) roundFinished(room *types.Room) {
	if gm.roundFinishedChan == nil || room.Result == nil || room.Match == nil {
		return
	}
	summary := RoundSummary{
		RoomCode:   room.Code,
		Round:      room.Round,
		Difficulty: room.Difficulty,
		Result: types.RoundResult{
			WinnerID:    room.Result.WinnerID,
			Scores:      copyScores(room.Result.Scores),
			Moves:       room.Result.Moves,
			PlayerMoves: copyScores(room.Result.PlayerMoves),
		},
		Elapsed: gm.clock.Since(room.Match.StartedAt),
	}
	select {
	case gm.roundFinishedChan <- summary:
	default:
		log.Room(room.Code).Warn("Round summary dropped, channel full")
	}
}
