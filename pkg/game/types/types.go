package types

import (
	"fmt"
	"time"
)

// Phase is the lifecycle phase of a room.
type Phase int

const (
	PhaseWaitingForPlayers Phase = iota
	PhaseReadyToStart
	PhaseInProgress
	PhaseFinished
	PhaseRematchPending
	// PhaseAbandoned is terminal: a participant left mid-round.
	PhaseAbandoned
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForPlayers:
		return "waiting-for-players"
	case PhaseReadyToStart:
		return "ready-to-start"
	case PhaseInProgress:
		return "in-progress"
	case PhaseFinished:
		return "finished"
	case PhaseRematchPending:
		return "rematch-pending"
	case PhaseAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseWaitingForPlayers; candidate <= PhaseAbandoned; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase: %s", text)
}

// Difficulty selects how many pairs a deck holds.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// WinnerDraw is reported as the winner when both scores are equal.
const WinnerDraw = "draw"

// Card is a single card of a deck.
// Position addresses flips, InstanceID identifies the physical card for match membership.
type Card struct {
	Position   int    `json:"position"`
	Symbol     string `json:"symbol"`
	InstanceID string `json:"instanceId"`
}

type Deck []Card

// Pairs returns the number of pairs in the deck.
func (d Deck) Pairs() int {
	return len(d) / 2
}

// Clone returns a copy of the deck.
func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	c := make(Deck, len(d))
	copy(c, d)
	return c
}

// RoundResult is the frozen outcome of a finished round.
type RoundResult struct {
	WinnerID string         `json:"winnerId"`
	Scores   map[string]int `json:"scores"`
	// Moves is the room total; PlayerMoves splits it by the participant whose turn it was.
	Moves       int            `json:"moves"`
	PlayerMoves map[string]int `json:"playerMoves,omitempty"`
}

// Room is the canonical state of one two-participant match.
// It is owned by the room registry and only mutated under the room's lock.
type Room struct {
	Code string
	// Participants holds at most two ids; the first entry is the authority.
	Participants []string
	Deck         Deck
	Phase        Phase
	Difficulty   Difficulty
	CreatedAt    time.Time
	LastActivity time.Time
	// Round counts decks dealt in this room, starting at 1 with the first start.
	Round   int
	Match   *MatchState
	Rematch map[string]bool
	Result  *RoundResult
}

// NewRoom creates a room in the waiting phase with its creator as authority.
func NewRoom(code string, creatorID string, difficulty Difficulty, now time.Time) *Room {
	return &Room{
		Code:         code,
		Participants: []string{creatorID},
		Phase:        PhaseWaitingForPlayers,
		Difficulty:   difficulty,
		CreatedAt:    now,
		LastActivity: now,
		Rematch:      make(map[string]bool),
	}
}

// Authority returns the participant whose flips are arbitrated first and who may start the game.
func (r *Room) Authority() string {
	if len(r.Participants) == 0 {
		return ""
	}
	return r.Participants[0]
}

func (r *Room) HasParticipant(id string) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Opponent returns the other participant, or an empty string.
func (r *Room) Opponent(id string) string {
	for _, p := range r.Participants {
		if p != id {
			return p
		}
	}
	return ""
}

// IsFull reports whether the room has two participants.
func (r *Room) IsFull() bool {
	return len(r.Participants) >= 2
}

// Snapshot returns a deep copy of the room suitable for status queries.
func (r *Room) Snapshot() RoomSnapshot {
	s := RoomSnapshot{
		Code:         r.Code,
		Participants: append([]string(nil), r.Participants...),
		AuthorityID:  r.Authority(),
		Phase:        r.Phase,
		Difficulty:   r.Difficulty,
		CreatedAt:    r.CreatedAt,
		Round:        r.Round,
		Deck:         r.Deck.Clone(),
		Started:      r.Deck != nil,
	}
	for id, wants := range r.Rematch {
		if wants {
			s.RematchRequested = append(s.RematchRequested, id)
		}
	}
	if r.Match != nil {
		s.Matched = r.Match.MatchedIDs()
		s.Revealed = append([]int{}, r.Match.Revealed...)
		s.Moves = r.Match.Moves
		s.Scores = copyScores(r.Match.Scores)
		s.TurnOwner = r.Match.TurnOwner
	}
	if r.Result != nil {
		s.Result = &RoundResult{
			WinnerID:    r.Result.WinnerID,
			Scores:      copyScores(r.Result.Scores),
			Moves:       r.Result.Moves,
			PlayerMoves: copyScores(r.Result.PlayerMoves),
		}
	}
	return s
}

// RoomSnapshot is a read-only view of a room.
type RoomSnapshot struct {
	Code             string         `json:"code"`
	Participants     []string       `json:"participants"`
	AuthorityID      string         `json:"authorityId"`
	Phase            Phase          `json:"phase"`
	Difficulty       Difficulty     `json:"difficulty"`
	CreatedAt        time.Time      `json:"createdAt"`
	Round            int            `json:"round"`
	Started          bool           `json:"started"`
	Deck             Deck           `json:"deck,omitempty"`
	Matched          []string       `json:"matched,omitempty"`
	Revealed         []int          `json:"revealed,omitempty"`
	Moves            int            `json:"moves"`
	Scores           map[string]int `json:"scores,omitempty"`
	TurnOwner        string         `json:"turnOwner,omitempty"`
	RematchRequested []string       `json:"rematchRequested,omitempty"`
	Result           *RoundResult   `json:"result,omitempty"`
}

func copyScores(scores map[string]int) map[string]int {
	if scores == nil {
		return nil
	}
	c := make(map[string]int, len(scores))
	for k, v := range scores {
		c[k] = v
	}
	return c
}
