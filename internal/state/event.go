package state

import (
	"go-pairs/internal/scoring"

	"github.com/google/uuid"
)

// EventKind tells what happened in the engine.
type EventKind int

const (
	CardFlipped EventKind = iota
	MatchFound
	MismatchFound
	CardsSettled
	SessionComplete
)

func (k EventKind) String() string {
	switch k {
	case CardFlipped:
		return "CardFlipped"
	case MatchFound:
		return "MatchFound"
	case MismatchFound:
		return "MismatchFound"
	case CardsSettled:
		return "CardsSettled"
	case SessionComplete:
		return "SessionComplete"
	}
	return "Unknown"
}

// Event is emitted by Flip and Settle.
type Event struct {
	Kind    EventKind
	Session uuid.UUID
	// Cards holds snapshots of the cards involved, taken when the event fired.
	Cards  []Card
	Points int
	// Ticket is set on MismatchFound; pass it to Settle once the delay expires.
	Ticket SettleTicket
	Result *scoring.Result
}
