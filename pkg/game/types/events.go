package types

// EventKind identifies an authoritative event broadcast to a room.
type EventKind string

const (
	EventPlayerJoined     EventKind = "player-joined"
	EventPlayerLeft       EventKind = "player-left"
	EventDeckReady        EventKind = "deck-ready"
	EventFlipAccepted     EventKind = "flip-accepted"
	EventPairResolved     EventKind = "pair-resolved"
	EventPairExpired      EventKind = "pair-expired"
	EventTurnChanged      EventKind = "turn-changed"
	EventRoundFinished    EventKind = "round-finished"
	EventRematchOffered   EventKind = "rematch-offered"
	EventRematchCancelled EventKind = "rematch-cancelled"
	EventRematchStarting  EventKind = "rematch-starting"
	EventRoomAbandoned    EventKind = "room-abandoned"
)

// Event is produced by the arbiter for every authoritative transition.
type Event struct {
	Kind EventKind
	// Round is the deck generation the event belongs to.
	Round   int
	Payload interface{}
}

type PlayerJoinedPayload struct {
	ParticipantID string   `json:"participantId"`
	Participants  []string `json:"participants"`
}

type PlayerLeftPayload struct {
	ParticipantID string `json:"participantId"`
	AuthorityID   string `json:"authorityId"`
}

type DeckReadyPayload struct {
	Deck        Deck       `json:"deck"`
	AuthorityID string     `json:"authorityId"`
	TurnOwner   string     `json:"turnOwner"`
	Difficulty  Difficulty `json:"difficulty"`
}

type FlipAcceptedPayload struct {
	Position      int    `json:"position"`
	ParticipantID string `json:"participantId"`
}

type PairResolvedPayload struct {
	Positions  []int          `json:"positions"`
	MatchedIDs []string       `json:"matchedIds"`
	Moves      int            `json:"moves"`
	IsMatch    bool           `json:"isMatch"`
	TurnOwner  string         `json:"turnOwner"`
	Scores     map[string]int `json:"scores"`
}

type PairExpiredPayload struct {
	Positions []int  `json:"positions"`
	TurnOwner string `json:"turnOwner"`
}

type TurnChangedPayload struct {
	TurnOwner string `json:"turnOwner"`
}

type RoundFinishedPayload struct {
	// WinnerID is WinnerDraw on equal scores.
	WinnerID string         `json:"winnerId"`
	Scores   map[string]int `json:"scores"`
	Moves    int            `json:"moves"`
}

type RematchOfferedPayload struct {
	FromID string `json:"fromId"`
}

type RematchCancelledPayload struct {
	FromID string `json:"fromId"`
}

type RematchStartingPayload struct {
	Round int `json:"round"`
}

type RoomAbandonedPayload struct {
	ParticipantID string `json:"participantId"`
	Reason        string `json:"reason"`
}
