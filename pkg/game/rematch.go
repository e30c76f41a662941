package game

import (
	"fmt"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
)

// RequestRematch records that a participant wants another round.
// The deck is regenerated only once both participants agree.
func (a *Arbiter) RequestRematch(room *types.Room, participantID string) (Result, error) {
	if !room.HasParticipant(participantID) {
		return Result{}, ErrNotParticipant
	}
	if room.Phase != types.PhaseFinished && room.Phase != types.PhaseRematchPending {
		return Result{}, fmt.Errorf("cannot request rematch in %s: %w", room.Phase, ErrInvalidPhase)
	}
	if room.Rematch[participantID] {
		return Result{}, nil
	}
	room.Rematch[participantID] = true

	if room.IsFull() && allAgreed(room) {
		// deal bumps the round, so announce the round that is about to start
		starting := newEvent(room, types.EventRematchStarting, types.RematchStartingPayload{Round: room.Round + 1})
		starting.Round = room.Round + 1
		dealt := a.deal(room)
		return Result{Events: []types.Event{starting, dealt}}, nil
	}

	room.Phase = types.PhaseRematchPending
	return Result{
		Events: []types.Event{newEvent(room, types.EventRematchOffered, types.RematchOfferedPayload{
			FromID: participantID,
		})},
	}, nil
}

// CancelRematch withdraws the caller's own pending request.
// The other participant's request is left untouched.
func (a *Arbiter) CancelRematch(room *types.Room, participantID string) (Result, error) {
	if !room.HasParticipant(participantID) {
		return Result{}, ErrNotParticipant
	}
	if room.Phase != types.PhaseRematchPending {
		return Result{}, fmt.Errorf("cannot cancel rematch in %s: %w", room.Phase, ErrInvalidPhase)
	}
	if !room.Rematch[participantID] {
		return Result{}, nil
	}
	room.Rematch[participantID] = false

	if !anyAgreed(room) {
		room.Phase = types.PhaseFinished
	}
	return Result{
		Events: []types.Event{newEvent(room, types.EventRematchCancelled, types.RematchCancelledPayload{
			FromID: participantID,
		})},
	}, nil
}

func allAgreed(room *types.Room) bool {
	for _, p := range room.Participants {
		if !room.Rematch[p] {
			return false
		}
	}
	return true
}

func anyAgreed(room *types.Room) bool {
	for _, wants := range room.Rematch {
		if wants {
			return true
		}
	}
	return false
}
