package rooms

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	// ErrRoomClosed is returned when joining a room whose round was abandoned.
	ErrRoomClosed = errors.New("room closed")
	// ErrNotInRoom is returned when a participant leaves a room they are not in.
	ErrNotInRoom = errors.New("participant not in room")
)
