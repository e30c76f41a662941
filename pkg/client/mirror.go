package client

import (
	"fmt"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/relay"
)

// DefaultBufferTimeout is how long an event waits for the events it depends on.
const DefaultBufferTimeout = 2 * time.Second

// Delivery is an event as received from the transport.
// Seq is the room sequence number assigned by the server, zero when unknown.
type Delivery struct {
	Event types.Event
	Seq   uint64
}

type held struct {
	Delivery
	deadline time.Time
}

// View is the mirrored room state handed to the renderer.
type View struct {
	Round        int
	Phase        types.Phase
	Participants []string
	AuthorityID  string
	Deck         types.Deck
	Revealed     []int
	Matched      []string
	Moves        int
	Scores       map[string]int
	TurnOwner    string
	// Resolving is set while a mismatched pair is shown face up.
	Resolving bool
	Rematch   []string
	Result    *types.RoundResult
	// Held counts events waiting for the events they depend on.
	Held int
}

// Mirror applies authoritative events to a local copy of the room.
// It never decides outcomes itself; it only reorders what arrives out of order.
// Mirror is not safe for concurrent use.
type Mirror struct {
	bufferTimeout time.Duration

	round        int
	phase        types.Phase
	participants []string
	authorityID  string
	deck         types.Deck
	revealed     []int
	matched      map[string]struct{}
	moves        int
	scores       map[string]int
	turnOwner    string
	resolving    bool
	rematch      map[string]bool
	result       *types.RoundResult

	// clearedSeq is the highest sequence number of an event that settled the revealed cards.
	// Round events sequenced before it arrived late and must not reveal cards again.
	clearedSeq uint64
	held       []held
}

func NewMirror(bufferTimeout time.Duration) *Mirror {
	if bufferTimeout <= 0 {
		bufferTimeout = DefaultBufferTimeout
	}
	return &Mirror{
		bufferTimeout: bufferTimeout,
		matched:       make(map[string]struct{}),
		rematch:       make(map[string]bool),
	}
}

// Seed initializes the mirror from a status snapshot, for late joiners.
func (m *Mirror) Seed(s types.RoomSnapshot) {
	m.round = s.Round
	m.phase = s.Phase
	m.participants = append([]string(nil), s.Participants...)
	m.authorityID = s.AuthorityID
	m.deck = s.Deck.Clone()
	m.revealed = append([]int(nil), s.Revealed...)
	m.matched = make(map[string]struct{}, len(s.Matched))
	for _, id := range s.Matched {
		m.matched[id] = struct{}{}
	}
	m.moves = s.Moves
	m.scores = copyScores(s.Scores)
	m.turnOwner = s.TurnOwner
	m.resolving = len(s.Revealed) == 2
	m.rematch = make(map[string]bool)
	for _, id := range s.RematchRequested {
		m.rematch[id] = true
	}
	m.result = s.Result
	m.held = nil
}

// Apply takes one delivery and returns the events that became visible, in order.
// Deliveries from an earlier round return ErrStaleMessage.
func (m *Mirror) Apply(d Delivery, now time.Time) ([]types.Event, error) {
	e := d.Event
	if m.isStale(e) {
		return nil, fmt.Errorf("%s for round %d in round %d: %w", e.Kind, e.Round, m.round, relay.ErrStaleMessage)
	}
	if isTurnEvent(e.Kind) && e.Round == m.round && d.Seq != 0 && d.Seq <= m.clearedSeq {
		return m.applyLate(d)
	}

	switch {
	case e.Kind == types.EventDeckReady || e.Kind == types.EventRoomAbandoned:
		// a new deck or a closed room supersedes anything still waiting
		if len(m.held) > 0 && e.Kind == types.EventDeckReady {
			log.Debug("Discarding %d held events for round %d", len(m.held), m.round)
			m.held = m.keepFuture(e.Round)
		}
		out := m.applyNow(d)
		return append(out, m.drain(now, false)...), nil
	case e.Kind == types.EventPlayerJoined || e.Kind == types.EventPlayerLeft:
		// membership does not depend on turn order
		return m.applyNow(d), nil
	case e.Kind == types.EventFlipAccepted && e.Round == m.round && m.precedesHead(d):
		out := m.applyNow(d)
		return append(out, m.drain(now, false)...), nil
	case len(m.held) > 0 || !m.ready(d):
		m.held = append(m.held, held{Delivery: d, deadline: now.Add(m.bufferTimeout)})
		return nil, nil
	default:
		return m.applyNow(d), nil
	}
}

// Flush adopts held events whose deadline passed. Pair resolutions are adopted verbatim.
func (m *Mirror) Flush(now time.Time) []types.Event {
	return m.drain(now, true)
}

func (m *Mirror) isStale(e types.Event) bool {
	switch e.Kind {
	case types.EventPlayerJoined, types.EventPlayerLeft, types.EventRoomAbandoned:
		return false
	case types.EventDeckReady, types.EventRematchStarting:
		return m.deck != nil && e.Round <= m.round
	default:
		return e.Round < m.round
	}
}

// applyLate handles a round event overtaken by a later settling event.
// Only the tallies of a late resolution still matter.
func (m *Mirror) applyLate(d Delivery) ([]types.Event, error) {
	e := d.Event
	p, ok := e.Payload.(types.PairResolvedPayload)
	if !ok || p.Moves <= m.moves {
		return nil, fmt.Errorf("%s overtaken by seq %d: %w", e.Kind, m.clearedSeq, relay.ErrStaleMessage)
	}
	m.moves = p.Moves
	m.scores = copyScores(p.Scores)
	for _, id := range p.MatchedIDs {
		m.matched[id] = struct{}{}
	}
	return []types.Event{e}, nil
}

// precedesHead reports whether a delivery may bypass the held queue.
func (m *Mirror) precedesHead(d Delivery) bool {
	if len(m.held) == 0 {
		return true
	}
	head := m.held[0]
	return d.Seq == 0 || head.Seq == 0 || d.Seq < head.Seq
}

func (m *Mirror) ready(d Delivery) bool {
	e := d.Event
	switch e.Kind {
	case types.EventPlayerJoined, types.EventPlayerLeft, types.EventRoomAbandoned, types.EventRematchStarting:
		return true
	}
	if e.Round > m.round {
		return false
	}
	if e.Kind == types.EventPairResolved {
		p := e.Payload.(types.PairResolvedPayload)
		for _, pos := range p.Positions {
			if !m.isRevealed(pos) {
				return false
			}
		}
	}
	return true
}

func (m *Mirror) keepFuture(round int) []held {
	var kept []held
	for _, h := range m.held {
		if h.Event.Round >= round {
			kept = append(kept, h)
		}
	}
	return kept
}

func (m *Mirror) drain(now time.Time, flushing bool) []types.Event {
	var out []types.Event
	for len(m.held) > 0 {
		head := m.held[0]
		if m.isStale(head.Event) {
			m.held = m.held[1:]
			continue
		}
		if m.ready(head.Delivery) {
			m.held = m.held[1:]
			out = append(out, m.applyNow(head.Delivery)...)
			continue
		}
		if !flushing || now.Before(head.deadline) {
			break
		}
		m.held = m.held[1:]
		if head.Event.Kind == types.EventPairResolved && head.Event.Round == m.round {
			p := head.Event.Payload.(types.PairResolvedPayload)
			for _, pos := range p.Positions {
				if !m.isRevealed(pos) {
					m.revealed = append(m.revealed, pos)
				}
			}
			out = append(out, m.applyNow(head.Delivery)...)
			continue
		}
		log.Warn("Dropping %s for round %d, deck never arrived", head.Event.Kind, head.Event.Round)
	}
	return out
}

// applyNow mutates the mirror and returns the event if it changed anything.
func (m *Mirror) applyNow(d Delivery) []types.Event {
	e := d.Event
	switch p := e.Payload.(type) {
	case types.PlayerJoinedPayload:
		m.participants = append([]string(nil), p.Participants...)
		if len(m.participants) > 0 {
			m.authorityID = m.participants[0]
		}
		if m.phase == types.PhaseWaitingForPlayers && len(m.participants) == 2 {
			m.phase = types.PhaseReadyToStart
		}
	case types.PlayerLeftPayload:
		m.participants = without(m.participants, p.ParticipantID)
		m.authorityID = p.AuthorityID
		delete(m.rematch, p.ParticipantID)
		if m.phase != types.PhaseInProgress && m.phase != types.PhaseAbandoned {
			m.phase = types.PhaseWaitingForPlayers
			m.rematch = make(map[string]bool)
		}
	case types.DeckReadyPayload:
		m.round = e.Round
		m.deck = p.Deck.Clone()
		m.authorityID = p.AuthorityID
		m.turnOwner = p.TurnOwner
		m.revealed = nil
		m.matched = make(map[string]struct{})
		m.moves = 0
		m.scores = make(map[string]int, len(m.participants))
		for _, id := range m.participants {
			m.scores[id] = 0
		}
		m.resolving = false
		m.rematch = make(map[string]bool)
		m.result = nil
		m.clearedSeq = 0
		m.phase = types.PhaseInProgress
	case types.FlipAcceptedPayload:
		if m.isRevealed(p.Position) || m.isMatchedPosition(p.Position) {
			return nil
		}
		m.revealed = append(m.revealed, p.Position)
	case types.PairResolvedPayload:
		m.moves = p.Moves
		m.scores = copyScores(p.Scores)
		m.matched = make(map[string]struct{}, len(p.MatchedIDs))
		for _, id := range p.MatchedIDs {
			m.matched[id] = struct{}{}
		}
		m.turnOwner = p.TurnOwner
		if p.IsMatch {
			m.revealed = removeAll(m.revealed, p.Positions)
		} else {
			m.resolving = true
		}
		m.settled(d.Seq)
	case types.PairExpiredPayload:
		m.revealed = removeAll(m.revealed, p.Positions)
		m.turnOwner = p.TurnOwner
		m.settled(d.Seq)
	case types.TurnChangedPayload:
		m.revealed = nil
		m.resolving = false
		m.turnOwner = p.TurnOwner
		m.settled(d.Seq)
	case types.RoundFinishedPayload:
		m.phase = types.PhaseFinished
		m.revealed = nil
		m.result = &types.RoundResult{WinnerID: p.WinnerID, Scores: copyScores(p.Scores), Moves: p.Moves}
	case types.RematchOfferedPayload:
		m.rematch[p.FromID] = true
		m.phase = types.PhaseRematchPending
	case types.RematchCancelledPayload:
		m.rematch[p.FromID] = false
		if !anyTrue(m.rematch) {
			m.phase = types.PhaseFinished
		}
	case types.RematchStartingPayload:
		m.rematch = make(map[string]bool)
	case types.RoomAbandonedPayload:
		m.phase = types.PhaseAbandoned
		m.held = nil
	default:
		log.Warn("Ignoring %s with payload %T", e.Kind, e.Payload)
		return nil
	}
	return []types.Event{e}
}

func isTurnEvent(kind types.EventKind) bool {
	switch kind {
	case types.EventFlipAccepted, types.EventPairResolved, types.EventPairExpired, types.EventTurnChanged:
		return true
	default:
		return false
	}
}

func (m *Mirror) settled(seq uint64) {
	if seq > m.clearedSeq {
		m.clearedSeq = seq
	}
}

func (m *Mirror) isRevealed(position int) bool {
	for _, p := range m.revealed {
		if p == position {
			return true
		}
	}
	return false
}

func (m *Mirror) isMatchedPosition(position int) bool {
	if position < 0 || position >= len(m.deck) {
		return false
	}
	_, ok := m.matched[m.deck[position].InstanceID]
	return ok
}

// View returns a copy of the mirrored state.
func (m *Mirror) View() View {
	v := View{
		Round:        m.round,
		Phase:        m.phase,
		Participants: append([]string(nil), m.participants...),
		AuthorityID:  m.authorityID,
		Deck:         m.deck.Clone(),
		Revealed:     append([]int(nil), m.revealed...),
		Moves:        m.moves,
		Scores:       copyScores(m.scores),
		TurnOwner:    m.turnOwner,
		Resolving:    m.resolving,
		Held:         len(m.held),
	}
	for id := range m.matched {
		v.Matched = append(v.Matched, id)
	}
	for id, wants := range m.rematch {
		if wants {
			v.Rematch = append(v.Rematch, id)
		}
	}
	if m.result != nil {
		r := *m.result
		r.Scores = copyScores(m.result.Scores)
		v.Result = &r
	}
	return v
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, p := range ids {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}

func removeAll(positions []int, remove []int) []int {
	out := positions[:0:0]
	for _, p := range positions {
		keep := true
		for _, r := range remove {
			if p == r {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, p)
		}
	}
	return out
}

func anyTrue(flags map[string]bool) bool {
	for _, v := range flags {
		if v {
			return true
		}
	}
	return false
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
