package game

import (
	"math/rand"

	"go-pairs/internal/config"
	"go-pairs/internal/scoring"
	"go-pairs/internal/state"
)

// Game encapsulates the core game logic, independent of the UI.
type Game struct {
	State *state.State
}

// NewGame deals a fresh board for d and starts its clock.
func NewGame(d config.Difficulty, alphabet []string, rng *rand.Rand, opts ...state.Option) (*Game, error) {
	cards, err := GenerateDeck(d, alphabet, rng)
	if err != nil {
		return nil, err
	}
	st, err := state.NewState(d, cards, opts...)
	if err != nil {
		return nil, err
	}
	return &Game{State: st}, nil
}

// Flip processes a card selection and returns what happened.
func (g *Game) Flip(index int) []state.Event {
	return g.State.Flip(index)
}

// Settle resolves a pending mismatch.
func (g *Game) Settle(ticket state.SettleTicket) []state.Event {
	return g.State.Settle(ticket)
}

func (g *Game) IsFinished() bool {
	return g.State.IsComplete()
}

// Result returns the final result, or nil while the game is running.
func (g *Game) Result() *scoring.Result {
	return g.State.Result
}
