package rewards

// DefaultQuestionPoints is used when a question carries no point value.
const DefaultQuestionPoints = 10

// Question is one multiple-choice item of a book quiz.
type Question struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	AnswerIndex *int     `json:"answer_index,omitempty"`
	Points      int      `json:"points,omitempty"`
}

// PointValue is what answering the question correctly is worth.
func (q Question) PointValue() int {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// Grade is the outcome of scoring one submission.
type Grade struct {
	Score int
	Total int
}

// Percent returns the score as a fraction of the total in [0,1].
func (g Grade) Percent() float64 {
	if g.Total == 0 {
		return 0
	}
	return float64(g.Score) / float64(g.Total)
}

// Bonus is the quiz bonus this grade earns.
func (g Grade) Bonus() int {
	return QuizBonus(g.Score, g.Total)
}

// GradeSubmission scores answers against questions position by position.
// A slot that is missing, nil or different from the recorded answer earns
// nothing; a question without a recorded answer never scores.
func GradeSubmission(questions []Question, answers []*int) Grade {
	var g Grade
	for i, q := range questions {
		points := q.PointValue()
		g.Total += points
		if i >= len(answers) || answers[i] == nil || q.AnswerIndex == nil {
			continue
		}
		if *answers[i] == *q.AnswerIndex {
			g.Score += points
		}
	}
	return g
}
