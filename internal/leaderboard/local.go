package leaderboard

import (
	"context"

	"go-pairs/internal/scoring"
)

// Local serves the same calls as Client straight from a Service, for games
// hosted by the server process itself.
type Local struct {
	Service *Service
}

func (l Local) Health(ctx context.Context) error { return nil }

func (l Local) Submit(ctx context.Context, playerName string, r scoring.Result) error {
	_, err := l.Service.Submit(ctx, SubmissionFromResult(playerName, r))
	return err
}

func (l Local) Global(ctx context.Context, difficulty string, limit int) ([]Entry, error) {
	return l.Service.Global(ctx, difficulty, limit)
}

func (l Local) Player(ctx context.Context, name string) ([]Entry, error) {
	return l.Service.Player(ctx, name)
}
