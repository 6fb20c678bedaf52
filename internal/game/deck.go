package game

import (
	"fmt"
	"math/rand"

	"go-pairs/internal/config"
	"go-pairs/internal/state"
)

// GenerateDeck builds a shuffled board for d from the first d.Pairs symbols
// of alphabet. Each symbol appears exactly twice and every card starts
// face-down and unmatched.
func GenerateDeck(d config.Difficulty, alphabet []string, rng *rand.Rand) ([]state.Card, error) {
	if d.Pairs < 1 {
		return nil, &config.ConfigurationError{Difficulty: d.Name, Reason: fmt.Sprintf("pair count %d is below 1", d.Pairs)}
	}
	if d.Pairs > len(alphabet) {
		return nil, &config.ConfigurationError{
			Difficulty: d.Name,
			Reason:     fmt.Sprintf("pair count %d exceeds alphabet of %d symbols", d.Pairs, len(alphabet)),
		}
	}

	values := make([]string, 0, d.Cards())
	values = append(values, alphabet[:d.Pairs]...)
	values = append(values, alphabet[:d.Pairs]...)

	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	cards := make([]state.Card, len(values))
	for i, v := range values {
		cards[i] = state.Card{Index: i, Value: v}
	}
	return cards, nil
}
