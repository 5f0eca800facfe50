// Package rewards holds the point rules of the reading engine: the level curve,
// the award amounts, quiz grading and the per-book progress state machine.
// Nothing in here performs I/O.
package rewards

import "math"

// Award amounts. Every point grant in the system is derived from these.
const (
	CompletionBonus = 20 // first time a book reaches 100%
	QuizBonusMax    = 30 // perfect quiz score
	PointsPerLevel  = 100
)

// LevelFor returns the level reached with the given point total.
func LevelFor(points int) int {
	if points < 0 {
		return 1
	}
	return max(1, points/PointsPerLevel+1)
}

// QuizBonus converts a graded quiz into bonus points: round(score/total*30).
// An empty quiz earns nothing.
func QuizBonus(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	if score > total {
		score = total
	}
	return int(math.Round(float64(score*QuizBonusMax) / float64(total)))
}
