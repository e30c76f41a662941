package deck

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/google/uuid"
)

// Palette is the fixed symbol set decks draw from, in draw order.
var Palette = []string{
	"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯", "🦁", "🐮",
	"🐸", "🐵", "🐔", "🦄", "🐙", "🐝", "🐞", "🪲", "🦋", "🐢", "🐬", "🐳",
}

var pairsByDifficulty = map[types.Difficulty]int{
	types.DifficultyEasy:   8,
	types.DifficultyMedium: 12,
	types.DifficultyHard:   24,
}

// ParseDifficulty validates a difficulty name. An empty name means easy.
func ParseDifficulty(name string) (types.Difficulty, error) {
	if name == "" {
		return types.DifficultyEasy, nil
	}
	d := types.Difficulty(name)
	if _, ok := pairsByDifficulty[d]; !ok {
		return "", fmt.Errorf("unknown difficulty: %s", name)
	}
	return d, nil
}

// PairsFor returns the pair count of a difficulty.
// It panics on an unknown difficulty; use ParseDifficulty on untrusted input.
func PairsFor(d types.Difficulty) int {
	pairs, ok := pairsByDifficulty[d]
	if !ok {
		panic(fmt.Sprintf("unsupported difficulty %q", d))
	}
	return pairs
}

// Generate builds a shuffled deck of pairsCount pairs.
// Every card, including both copies of a symbol, gets its own instance id.
func Generate(pairsCount int, rng *rand.Rand) types.Deck {
	if pairsCount <= 0 || pairsCount > len(Palette) {
		panic(fmt.Sprintf("unsupported pairs count %d", pairsCount))
	}

	symbols := make([]string, 0, pairsCount*2)
	symbols = append(symbols, Palette[:pairsCount]...)
	symbols = append(symbols, Palette[:pairsCount]...)

	// Fisher-Yates
	for i := len(symbols) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		symbols[i], symbols[j] = symbols[j], symbols[i]
	}

	d := make(types.Deck, len(symbols))
	for i, s := range symbols {
		d[i] = types.Card{
			Position:   i,
			Symbol:     s,
			InstanceID: uuid.NewString(),
		}
	}
	return d
}

// Generator is a goroutine-safe deck source.
type Generator struct {
	lock sync.Mutex
	rng  *rand.Rand
}

// NewGenerator creates a Generator. A zero seed seeds from the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (g *Generator) Generate(pairsCount int) types.Deck {
	g.lock.Lock()
	defer g.lock.Unlock()
	return Generate(pairsCount, g.rng)
}
