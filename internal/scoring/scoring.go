package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go-pairs/internal/config"
)

const (
	// minEfficiency keeps a very inefficient match worth half the base score.
	minEfficiency = 0.5
	// maxEfficiency caps the ratio at the theoretical minimum of two moves per pair.
	maxEfficiency = 1.0
	// timeBonusStep is the number of elapsed seconds that cost one bonus point.
	timeBonusStep = 10
)

// Result is the immutable summary of a completed game.
type Result struct {
	Score             int           `json:"score"`
	Moves             int           `json:"moves"`
	Elapsed           time.Duration `json:"-"`
	ElapsedTime       string        `json:"elapsedTime"`
	Difficulty        string        `json:"difficulty"`
	EfficiencyPercent int           `json:"efficiencyPercent"`
	TimeBonus         int           `json:"timeBonus"`
	PerfectBonus      int           `json:"perfectBonus"`
	Date              time.Time     `json:"date"`
}

// Progress is the game state the final score is computed from.
type Progress struct {
	Difficulty   config.Difficulty
	MatchedPairs int
	Moves        int
	RunningScore int
	StartedAt    time.Time
}

// Efficiency returns the per-match efficiency ratio, clamped to [0.5, 1].
func Efficiency(totalPairs, movesSoFar int) float64 {
	ratio := float64(totalPairs*2) / float64(max(1, movesSoFar))
	return math.Max(minEfficiency, math.Min(maxEfficiency, ratio))
}

// ScoreForMatch returns the points earned by one match.
func ScoreForMatch(d config.Difficulty, totalPairs, movesSoFar int) int {
	points := float64(d.BaseScore) * Efficiency(totalPairs, movesSoFar) * d.Multiplier
	return int(math.Round(points))
}

// TimeBonus returns the remaining time bonus after elapsed.
func TimeBonus(d config.Difficulty, elapsed time.Duration) int {
	seconds := int(elapsed / time.Second)
	return max(0, d.TimeBonus-seconds/timeBonusStep)
}

// IsPerfect reports whether moves meets the two-moves-per-pair threshold.
func IsPerfect(totalPairs, moves int) bool {
	return moves <= totalPairs*2
}

// EfficiencyPercent is the reporting ratio of matched pairs to moves.
func EfficiencyPercent(matchedPairs, moves int) int {
	return int(math.Round(float64(matchedPairs) / float64(max(1, moves)) * 100))
}

// FinalScore computes the completion Result at time now.
func FinalScore(p Progress, now time.Time) Result {
	elapsed := now.Sub(p.StartedAt).Truncate(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	timeBonus := TimeBonus(p.Difficulty, elapsed)
	perfectBonus := 0
	if IsPerfect(p.Difficulty.Pairs, p.Moves) {
		perfectBonus = p.Difficulty.PerfectBonus
	}

	return Result{
		Score:             max(0, p.RunningScore+timeBonus+perfectBonus),
		Moves:             p.Moves,
		Elapsed:           elapsed,
		ElapsedTime:       FormatElapsed(elapsed),
		Difficulty:        p.Difficulty.Name,
		EfficiencyPercent: EfficiencyPercent(p.MatchedPairs, p.Moves),
		TimeBonus:         timeBonus,
		PerfectBonus:      perfectBonus,
		Date:              now,
	}
}

// FormatElapsed renders a duration as MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ParseElapsed parses an MM:SS string back into a duration.
func ParseElapsed(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q (want MM:SS)", s)
	}
	minutes, err1 := strconv.Atoi(parts[0])
	seconds, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || minutes < 0 || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid time %q (want MM:SS)", s)
	}
	return time.Duration(minutes*60+seconds) * time.Second, nil
}

// Rating is a performance tier for an efficiency percentage.
type Rating struct {
	Tier  string
	Label string
}

var ratings = []struct {
	min    int
	rating Rating
}{
	{90, Rating{Tier: "perfect", Label: "PERFECT!"}},
	{75, Rating{Tier: "excellent", Label: "EXCELLENT!"}},
	{60, Rating{Tier: "good", Label: "VERY GOOD!"}},
	{40, Rating{Tier: "average", Label: "GOOD!"}},
}

// PerformancePercent compares moves with the fewest a game of totalPairs
// could take. A game within the perfect bonus scores 100 or more.
func PerformancePercent(totalPairs, moves int) int {
	return int(math.Round(float64(totalPairs*2) / float64(max(1, moves)) * 100))
}

// Performance rates a finished game for the victory screen.
func Performance(totalPairs, moves int) Rating {
	return Rate(PerformancePercent(totalPairs, moves))
}

// Rate maps an efficiency percentage to its tier.
func Rate(efficiencyPercent int) Rating {
	for _, r := range ratings {
		if efficiencyPercent >= r.min {
			return r.rating
		}
	}
	return Rating{Tier: "practice", Label: "KEEP PRACTICING!"}
}
