package rewards

import (
	"errors"
	"math"
)

// ErrInvalidPercentage is returned for progress outside [0,100].
var ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")

// State is where a user stands with one book.
type State int

const (
	NotStarted State = iota
	Reading
	Completed
)

func (s State) String() string {
	switch s {
	case Reading:
		return "reading"
	case Completed:
		return "completed"
	default:
		return "not_started"
	}
}

// ParseState maps a stored status back to a State. Unknown values are
// treated as Reading since a stored record always means the book was opened.
func ParseState(status string) State {
	switch status {
	case "completed":
		return Completed
	case "":
		return NotStarted
	default:
		return Reading
	}
}

// Transition describes the effect of one progress report.
type Transition struct {
	From       State
	To         State
	Percentage int
	// Award is the number of points the transition earns.
	Award int
	// Changed is false when the record must stay as it is.
	Changed bool
}

// Completes reports whether this transition is the first completion.
func (t Transition) Completes() bool {
	return t.To == Completed && t.From != Completed
}

// Advance applies a progress report to the current state. Completed is
// absorbing: once there, nothing moves the book back and nothing is awarded
// again.
func Advance(from State, percentage float64) (Transition, error) {
	if math.IsNaN(percentage) || percentage < 0 || percentage > 100 {
		return Transition{}, ErrInvalidPercentage
	}
	if from == Completed {
		return Transition{From: from, To: Completed, Percentage: 100}, nil
	}
	if percentage >= 100 {
		return Transition{From: from, To: Completed, Percentage: 100, Award: CompletionBonus, Changed: true}, nil
	}
	return Transition{From: from, To: Reading, Percentage: int(math.Floor(percentage)), Changed: true}, nil
}
