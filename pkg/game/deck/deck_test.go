package deck

import (
	"math/rand"
	"testing"

	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for _, pairs := range []int{8, 12, 24} {
		rng := rand.New(rand.NewSource(int64(pairs)))
		for i := 0; i < 50; i++ {
			d := Generate(pairs, rng)
			require.Len(t, d, pairs*2)
			assert.Zero(t, len(d)%2)

			bySymbol := map[string][]types.Card{}
			instances := map[string]struct{}{}
			for pos, c := range d {
				assert.Equal(t, pos, c.Position)
				bySymbol[c.Symbol] = append(bySymbol[c.Symbol], c)
				instances[c.InstanceID] = struct{}{}
			}
			assert.Len(t, bySymbol, pairs)
			for symbol, cards := range bySymbol {
				require.Len(t, cards, 2, "symbol %s", symbol)
				assert.NotEqual(t, cards[0].InstanceID, cards[1].InstanceID)
			}
			assert.Len(t, instances, len(d))
		}
	}
}

func TestGenerateUsesPalettePrefix(t *testing.T) {
	d := Generate(8, rand.New(rand.NewSource(1)))
	allowed := map[string]bool{}
	for _, s := range Palette[:8] {
		allowed[s] = true
	}
	for _, c := range d {
		assert.True(t, allowed[c.Symbol], "unexpected symbol %s", c.Symbol)
	}
}

func TestGenerateFreshInstanceIDsAcrossDecks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	first := Generate(8, rng)
	second := Generate(8, rng)
	seen := map[string]struct{}{}
	for _, c := range first {
		seen[c.InstanceID] = struct{}{}
	}
	for _, c := range second {
		_, dup := seen[c.InstanceID]
		assert.False(t, dup)
	}
}

func TestGenerateUnsupportedPairsPanics(t *testing.T) {
	assert.Panics(t, func() { Generate(0, rand.New(rand.NewSource(1))) })
	assert.Panics(t, func() { Generate(len(Palette)+1, rand.New(rand.NewSource(1))) })
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    types.Difficulty
		pairs   int
		wantErr bool
	}{
		{name: "default", in: "", want: types.DifficultyEasy, pairs: 8},
		{name: "easy", in: "easy", want: types.DifficultyEasy, pairs: 8},
		{name: "medium", in: "medium", want: types.DifficultyMedium, pairs: 12},
		{name: "hard", in: "hard", want: types.DifficultyHard, pairs: 24},
		{name: "unknown", in: "extreme", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDifficulty(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.pairs, PairsFor(got))
		})
	}
}

func TestGenerator(t *testing.T) {
	g := NewGenerator(42)
	d := g.Generate(12)
	assert.Len(t, d, 24)
}
