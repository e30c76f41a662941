package game

import (
	"fmt"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/deck"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultRevealHold is how long a mismatched pair stays face up before the turn passes.
	DefaultRevealHold = 800 * time.Millisecond
	// DefaultPartnerTimeout is how long a single revealed card waits for its partner flip.
	DefaultPartnerTimeout = 10 * time.Second
)

// DeckSource produces decks for new rounds.
type DeckSource interface {
	Generate(pairsCount int) types.Deck
}

// FollowupKind identifies a delayed transition the caller must schedule.
type FollowupKind int

const (
	FollowupRevealHold FollowupKind = iota + 1
	FollowupPartnerTimeout
)

// Followup asks the caller to call back into the arbiter after a delay.
// Round and Generation let the arbiter ignore followups that no longer apply.
type Followup struct {
	Kind       FollowupKind
	After      time.Duration
	Round      int
	Generation uint64
}

// Result is the outcome of an arbiter transition.
type Result struct {
	Events   []types.Event
	Followup *Followup
}

// Arbiter is the authoritative state machine of a room.
// It is the only writer of MatchState and Room.Phase during a round and
// expects the caller to serialize calls per room.
type Arbiter struct {
	decks          DeckSource
	clock          clockwork.Clock
	revealHold     time.Duration
	partnerTimeout time.Duration
}

type NewArbiterOptions struct {
	Decks          DeckSource
	Clock          clockwork.Clock
	RevealHold     time.Duration
	PartnerTimeout time.Duration
}

func NewArbiter(opts NewArbiterOptions) *Arbiter {
	a := &Arbiter{
		decks:          opts.Decks,
		clock:          opts.Clock,
		revealHold:     opts.RevealHold,
		partnerTimeout: opts.PartnerTimeout,
	}
	if a.decks == nil {
		a.decks = deck.NewGenerator(0)
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	if a.revealHold <= 0 {
		a.revealHold = DefaultRevealHold
	}
	if a.partnerTimeout <= 0 {
		a.partnerTimeout = DefaultPartnerTimeout
	}
	return a
}

// Start deals the first deck. Only the authority may start, and only once the room is full.
func (a *Arbiter) Start(room *types.Room, requesterID string) (Result, error) {
	if !room.HasParticipant(requesterID) {
		return Result{}, ErrNotParticipant
	}
	if requesterID != room.Authority() {
		return Result{}, ErrNotAuthority
	}
	if room.Phase != types.PhaseReadyToStart {
		return Result{}, fmt.Errorf("cannot start from %s: %w", room.Phase, ErrInvalidPhase)
	}
	return Result{Events: []types.Event{a.deal(room)}}, nil
}

// deal generates a new deck and resets the round, with the authority opening the turn.
func (a *Arbiter) deal(room *types.Room) types.Event {
	room.Deck = a.decks.Generate(deck.PairsFor(room.Difficulty))
	room.Round++
	room.Match = types.NewMatchState(room.Participants, room.Authority(), a.clock.Now())
	room.Rematch = make(map[string]bool)
	room.Result = nil
	room.Phase = types.PhaseInProgress

	return newEvent(room, types.EventDeckReady, types.DeckReadyPayload{
		Deck:        room.Deck.Clone(),
		AuthorityID: room.Authority(),
		TurnOwner:   room.Match.TurnOwner,
		Difficulty:  room.Difficulty,
	})
}

// Flip validates and applies a flip request.
// Validation order: turn ownership, then position.
func (a *Arbiter) Flip(room *types.Room, participantID string, position int) (Result, error) {
	if room.Phase != types.PhaseInProgress || room.Match == nil {
		return Result{}, fmt.Errorf("cannot flip in %s: %w", room.Phase, ErrInvalidPhase)
	}
	m := room.Match
	if participantID != m.TurnOwner {
		return Result{}, ErrInvalidTurn
	}
	if m.Resolving || len(m.Revealed) >= 2 {
		return Result{}, fmt.Errorf("pair still resolving: %w", ErrInvalidPosition)
	}
	if position < 0 || position >= len(room.Deck) {
		return Result{}, fmt.Errorf("position %d out of range: %w", position, ErrInvalidPosition)
	}
	if m.IsMatched(room.Deck[position].InstanceID) {
		return Result{}, fmt.Errorf("position %d already matched: %w", position, ErrInvalidPosition)
	}
	if m.IsRevealed(position) {
		return Result{}, fmt.Errorf("position %d already revealed: %w", position, ErrInvalidPosition)
	}

	m.Revealed = append(m.Revealed, position)
	m.Generation++

	res := Result{
		Events: []types.Event{newEvent(room, types.EventFlipAccepted, types.FlipAcceptedPayload{
			Position:      position,
			ParticipantID: participantID,
		})},
	}

	if len(m.Revealed) == 1 {
		res.Followup = &Followup{
			Kind:       FollowupPartnerTimeout,
			After:      a.partnerTimeout,
			Round:      room.Round,
			Generation: m.Generation,
		}
		return res, nil
	}

	evaluated := a.evaluate(room)
	res.Events = append(res.Events, evaluated.Events...)
	res.Followup = evaluated.Followup
	return res, nil
}

// evaluate resolves the two revealed cards. It runs exactly once per pair.
func (a *Arbiter) evaluate(room *types.Room) Result {
	m := room.Match
	positions := append([]int(nil), m.Revealed...)
	first, second := room.Deck[positions[0]], room.Deck[positions[1]]
	owner := m.TurnOwner
	m.Moves++
	m.PlayerMoves[owner]++

	if first.Symbol == second.Symbol {
		m.Matched[first.InstanceID] = struct{}{}
		m.Matched[second.InstanceID] = struct{}{}
		m.Scores[owner]++
		m.Revealed = m.Revealed[:0]
		m.Generation++

		events := []types.Event{newEvent(room, types.EventPairResolved, types.PairResolvedPayload{
			Positions:  positions,
			MatchedIDs: m.MatchedIDs(),
			Moves:      m.Moves,
			IsMatch:    true,
			TurnOwner:  owner,
			Scores:     copyScores(m.Scores),
		})}
		if len(m.Matched) == len(room.Deck) {
			events = append(events, a.finish(room))
		}
		return Result{Events: events}
	}

	m.Resolving = true
	next := room.Opponent(owner)
	if next == "" {
		next = owner
	}
	return Result{
		Events: []types.Event{newEvent(room, types.EventPairResolved, types.PairResolvedPayload{
			Positions:  positions,
			MatchedIDs: m.MatchedIDs(),
			Moves:      m.Moves,
			IsMatch:    false,
			TurnOwner:  next,
			Scores:     copyScores(m.Scores),
		})},
		Followup: &Followup{
			Kind:       FollowupRevealHold,
			After:      a.revealHold,
			Round:      room.Round,
			Generation: m.Generation,
		},
	}
}

// finish freezes the round and computes the winner.
func (a *Arbiter) finish(room *types.Room) types.Event {
	m := room.Match
	winner := types.WinnerDraw
	best := -1
	for _, p := range room.Participants {
		score := m.Scores[p]
		switch {
		case score > best:
			best = score
			winner = p
		case score == best:
			winner = types.WinnerDraw
		}
	}

	room.Phase = types.PhaseFinished
	room.Result = &types.RoundResult{
		WinnerID:    winner,
		Scores:      copyScores(m.Scores),
		Moves:       m.Moves,
		PlayerMoves: copyScores(m.PlayerMoves),
	}
	return newEvent(room, types.EventRoundFinished, types.RoundFinishedPayload{
		WinnerID: winner,
		Scores:   copyScores(m.Scores),
		Moves:    m.Moves,
	})
}

// Apply runs a followup previously returned by the arbiter.
// Followups for another round or an older generation are ignored.
func (a *Arbiter) Apply(room *types.Room, f Followup) Result {
	if room.Phase != types.PhaseInProgress || room.Match == nil {
		return Result{}
	}
	if room.Round != f.Round || room.Match.Generation != f.Generation {
		return Result{}
	}
	switch f.Kind {
	case FollowupRevealHold:
		return a.resolveHold(room)
	case FollowupPartnerTimeout:
		return a.expirePartner(room)
	default:
		return Result{}
	}
}

// resolveHold clears a mismatched pair and passes the turn.
func (a *Arbiter) resolveHold(room *types.Room) Result {
	m := room.Match
	if !m.Resolving {
		return Result{}
	}
	m.Resolving = false
	m.Revealed = m.Revealed[:0]
	m.Generation++
	if next := room.Opponent(m.TurnOwner); next != "" {
		m.TurnOwner = next
	}
	return Result{
		Events: []types.Event{newEvent(room, types.EventTurnChanged, types.TurnChangedPayload{
			TurnOwner: m.TurnOwner,
		})},
	}
}

// expirePartner flips a lone revealed card back without penalty.
// The turn stays with the same participant and no move is counted.
func (a *Arbiter) expirePartner(room *types.Room) Result {
	m := room.Match
	if m.Resolving || len(m.Revealed) != 1 {
		return Result{}
	}
	positions := append([]int(nil), m.Revealed...)
	m.Revealed = m.Revealed[:0]
	m.Generation++
	return Result{
		Events: []types.Event{newEvent(room, types.EventPairExpired, types.PairExpiredPayload{
			Positions: positions,
			TurnOwner: m.TurnOwner,
		})},
	}
}

func newEvent(room *types.Room, kind types.EventKind, payload interface{}) types.Event {
	return types.Event{
		Kind:    kind,
		Round:   room.Round,
		Payload: payload,
	}
}

func copyScores(scores map[string]int) map[string]int {
	c := make(map[string]int, len(scores))
	for k, v := range scores {
		c[k] = v
	}
	return c
}
