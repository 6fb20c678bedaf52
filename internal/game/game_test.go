package game

import (
	"math/rand"
	"testing"
	"time"

	"go-pairs/internal/config"
	"go-pairs/internal/state"
)

func TestGame_Init(t *testing.T) {
	d, _ := config.Default().Lookup("medium")
	g, err := NewGame(d, config.DefaultAlphabet, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	if len(g.State.Cards) != 12 {
		t.Errorf("Expected 12 cards, got %d", len(g.State.Cards))
	}
	if g.IsFinished() {
		t.Error("New game should not be finished")
	}
	if g.Result() != nil {
		t.Error("Expected no result before the game ends")
	}
}

func TestGame_Gameplay_Flow(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	d, _ := config.Default().Lookup("easy")
	g, err := NewGame(d, config.DefaultAlphabet, rand.New(rand.NewSource(5)),
		state.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	now = start.Add(5 * time.Second)
	for _, idx := range pairsOf(g.State.Cards) {
		g.Flip(idx[0])
		g.Flip(idx[1])
	}

	if !g.IsFinished() {
		t.Fatal("Expected game to be finished")
	}
	r := g.Result()
	if r == nil {
		t.Fatal("Expected a result")
	}
	if r.Score != 650 {
		t.Errorf("Expected score 650, got %d", r.Score)
	}
	if r.ElapsedTime != "00:05" {
		t.Errorf("Expected elapsed 00:05, got %s", r.ElapsedTime)
	}
}

func TestGame_BadDifficulty(t *testing.T) {
	d := config.Difficulty{Name: "huge", Pairs: 13, Columns: 4, Multiplier: 1, BaseScore: 100}
	if _, err := NewGame(d, config.DefaultAlphabet, rand.New(rand.NewSource(1))); err == nil {
		t.Error("Expected an error for more pairs than symbols")
	}
}
