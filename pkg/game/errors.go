package game

import (
	"errors"
	"fmt"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/messages"
)

var (
	// ErrInvalidTurn is returned for a flip by a participant who does not own the turn.
	ErrInvalidTurn = errors.New("not your turn")
	// ErrInvalidPosition is returned for a flip that is out of range, already matched, already revealed,
	// or arrives while a pair is still resolving.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrInvalidPhase is returned when a command does not apply to the room's current phase.
	ErrInvalidPhase = errors.New("invalid phase")
	// ErrNotAuthority is returned when someone other than the authority tries to start the game.
	ErrNotAuthority = errors.New("only the authority can start the game")
	// ErrNotParticipant is returned for commands from someone outside the room.
	ErrNotParticipant = errors.New("not a participant of this room")
	// ErrReservedParticipant is returned for participant ids the protocol uses itself.
	ErrReservedParticipant = errors.New("participant id is reserved")
	// ErrPartnerTimeout marks a half-received pair that expired and flipped back.
	ErrPartnerTimeout = errors.New("partner flip timed out")
)

// IsRejection reports whether err is an expected, silently discarded command rejection.
// These happen under normal network races and are not faults.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidTurn) ||
		errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrInvalidPhase)
}

// CheckParticipantID rejects empty ids and ids that collide with the server sender id
// or the draw marker.
func CheckParticipantID(id string) error {
	switch id {
	case "":
		return fmt.Errorf("participant id is required")
	case messages.SenderServer, types.WinnerDraw:
		return fmt.Errorf("%q: %w", id, ErrReservedParticipant)
	}
	return nil
}
