package game

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/rooms"
)

const (
	AbandonReasonLeft = "participant-left"
	AbandonReasonIdle = "idle"
)

// LeaveRoom handles an explicit leave or a dropped connection.
// Leaving mid-round abandons the room; leaving otherwise hands authority to whoever remains.
func (gm *GameManager) LeaveRoom(ctx context.Context, code string, participantID string) (rooms.LeaveResult, error) {
	res, err := gm.registry.Leave(code, participantID, func(room *types.Room, res rooms.LeaveResult) {
		events := []types.Event{{
			Kind:  types.EventPlayerLeft,
			Round: room.Round,
			Payload: types.PlayerLeftPayload{
				ParticipantID: participantID,
				AuthorityID:   room.Authority(),
			},
		}}
		if room.Phase == types.PhaseAbandoned && res.PriorPhase != types.PhaseAbandoned {
			events = append(events, types.Event{
				Kind:  types.EventRoomAbandoned,
				Round: room.Round,
				Payload: types.RoomAbandonedPayload{
					ParticipantID: participantID,
					Reason:        AbandonReasonLeft,
				},
			})
		}
		if !res.Destroyed {
			gm.publish(ctx, room, events)
		}
	})
	if err != nil {
		return rooms.LeaveResult{}, fmt.Errorf("failed to leave room %s: %w", code, err)
	}

	logger := log.Room(code)
	switch {
	case res.Destroyed:
		gm.roomClosed(code)
		logger.Info("%s left, room destroyed", participantID)
	case res.Snapshot.Phase == types.PhaseAbandoned:
		gm.cancelTimers(code)
		logger.Info("%s left mid-round, room abandoned", participantID)
	default:
		logger.Info("%s left", participantID)
	}
	return res, nil
}

// ReapIdleRooms destroys rooms without activity for longer than ttl and returns their codes.
func (gm *GameManager) ReapIdleRooms(ctx context.Context, ttl time.Duration) []string {
	reaped := gm.registry.Reap(ttl)
	codes := make([]string, 0, len(reaped))
	for _, snap := range reaped {
		if len(snap.Participants) > 0 && gm.publisher != nil {
			err := gm.publisher.PublishEvents(ctx, snap.Code, []types.Event{{
				Kind:    types.EventRoomAbandoned,
				Round:   snap.Round,
				Payload: types.RoomAbandonedPayload{Reason: AbandonReasonIdle},
			}})
			if err != nil {
				log.Room(snap.Code).Error("Failed to announce reaped room: %v", err)
			}
		}
		gm.roomClosed(snap.Code)
		log.Room(snap.Code).Info("Reaped idle room")
		codes = append(codes, snap.Code)
	}
	return codes
}
