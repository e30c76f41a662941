package types

// CommandKind identifies an intent sent by a participant.
type CommandKind string

const (
	CommandStart         CommandKind = "request-start"
	CommandFlip          CommandKind = "request-flip"
	CommandRematch       CommandKind = "request-rematch"
	CommandCancelRematch CommandKind = "cancel-rematch"
	CommandLeave         CommandKind = "leave"
)

// Command is a decoded participant intent addressed to one room.
type Command struct {
	Kind          CommandKind
	RoomCode      string
	ParticipantID string
	// Position is only meaningful for CommandFlip.
	Position int
	MsgID    string
}
