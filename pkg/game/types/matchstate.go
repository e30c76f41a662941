package types

import (
	"sort"
	"time"
)

// MatchState is the per-room state of a round in progress.
type MatchState struct {
	// Matched holds instance ids of matched cards. It only grows.
	Matched map[string]struct{}
	// Revealed holds the positions currently face up and not yet matched, at most two.
	Revealed []int
	// Moves counts completed pair evaluations of both participants.
	Moves int
	// PlayerMoves counts the evaluations of each participant's own turns.
	PlayerMoves map[string]int
	// Scores maps participant ids to matched pairs.
	Scores map[string]int
	// TurnOwner is the participant allowed to flip.
	TurnOwner string
	// Resolving is set while a mismatched pair is held face up.
	Resolving bool
	// Generation changes whenever the revealed list changes so timers can detect staleness.
	Generation uint64
	StartedAt  time.Time
}

func NewMatchState(participants []string, turnOwner string, now time.Time) *MatchState {
	scores := make(map[string]int, len(participants))
	for _, p := range participants {
		scores[p] = 0
	}
	return &MatchState{
		Matched:     make(map[string]struct{}),
		Revealed:    make([]int, 0, 2),
		Scores:      scores,
		PlayerMoves: make(map[string]int, len(participants)),
		TurnOwner:   turnOwner,
		StartedAt:   now,
	}
}

func (m *MatchState) IsMatched(instanceID string) bool {
	_, ok := m.Matched[instanceID]
	return ok
}

func (m *MatchState) IsRevealed(position int) bool {
	for _, p := range m.Revealed {
		if p == position {
			return true
		}
	}
	return false
}

// MatchedIDs returns the matched instance ids in a stable order.
func (m *MatchState) MatchedIDs() []string {
	ids := make([]string, 0, len(m.Matched))
	for id := range m.Matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MatchState) Copy() *MatchState {
	c := &MatchState{
		Matched:     make(map[string]struct{}, len(m.Matched)),
		Revealed:    append(make([]int, 0, 2), m.Revealed...),
		Moves:       m.Moves,
		PlayerMoves: copyScores(m.PlayerMoves),
		Scores:      copyScores(m.Scores),
		TurnOwner:   m.TurnOwner,
		Resolving:   m.Resolving,
		Generation:  m.Generation,
		StartedAt:   m.StartedAt,
	}
	for id := range m.Matched {
		c.Matched[id] = struct{}{}
	}
	return c
}
