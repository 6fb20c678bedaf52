package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// MaxHistoryEntries is the number of games kept in the local history.
const MaxHistoryEntries = 20

// AnonymousPlayer is recorded when no player name was given.
const AnonymousPlayer = "Anonymous"

// HistoryEntry is a single completed game in the local history.
type HistoryEntry struct {
	PlayerName string `json:"playerName"`
	Result
}

// ScoreHistory holds the local play history, newest entry first.
type ScoreHistory struct {
	Entries []HistoryEntry
}

// HighScoreEntry returns the best entry for a difficulty, or nil if none.
func (sh ScoreHistory) HighScoreEntry(difficulty string) *HistoryEntry {
	var best *HistoryEntry
	for i := range sh.Entries {
		e := &sh.Entries[i]
		if e.Difficulty != difficulty {
			continue
		}
		if best == nil || e.Score > best.Score {
			best = e
		}
	}
	return best
}

// GetNScoreEntries returns the top N entries, sorted by score.
func (sh ScoreHistory) GetNScoreEntries(n int) []HistoryEntry {
	// Make a copy to avoid modifying the original slice.
	entriesCopy := make([]HistoryEntry, len(sh.Entries))
	copy(entriesCopy, sh.Entries)

	sort.SliceStable(entriesCopy, func(i, j int) bool {
		return entriesCopy[i].Score > entriesCopy[j].Score
	})

	if len(entriesCopy) < n {
		return entriesCopy
	}
	return entriesCopy[:n]
}

// GotHighScore reports whether r meets or beats the recorded high score for
// its difficulty. With no previous games it is vacuously a high score.
func (sh ScoreHistory) GotHighScore(r Result) bool {
	best := sh.HighScoreEntry(r.Difficulty)
	if best == nil {
		return true
	}
	return r.Score >= best.Score
}

// History records completed games through a ScoreStorage.
type History struct {
	storage ScoreStorage
}

// NewHistory creates a History backed by storage.
func NewHistory(storage ScoreStorage) *History {
	return &History{storage: storage}
}

// Load reads the history from storage.
func (h *History) Load() (ScoreHistory, error) {
	entries, err := h.storage.LoadAll()
	if err != nil {
		return ScoreHistory{}, fmt.Errorf("could not load score history: %w", err)
	}
	return ScoreHistory{Entries: entries}, nil
}

// Record prepends a game to the history, trims it to MaxHistoryEntries and
// saves it. It returns the history as it was before the game was added, so
// callers can still ask whether the game was a high score.
func (h *History) Record(playerName string, r Result) (ScoreHistory, error) {
	previous, err := h.Load()
	if err != nil {
		return ScoreHistory{}, err
	}

	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		playerName = AnonymousPlayer
	}

	updated := make([]HistoryEntry, 0, len(previous.Entries)+1)
	updated = append(updated, HistoryEntry{PlayerName: playerName, Result: r})
	updated = append(updated, previous.Entries...)
	if len(updated) > MaxHistoryEntries {
		updated = updated[:MaxHistoryEntries]
	}

	if err := h.storage.SaveAll(updated); err != nil {
		return previous, fmt.Errorf("could not save score history: %w", err)
	}
	return previous, nil
}
