package rewards_test

import (
	"math"
	"testing"

	"bookhub/internal/rewards"

	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(i int) *int { return &i }

func TestLevelFor(t *testing.T) {
	Convey("Given the level curve", t, func() {
		Convey("A fresh account is level 1", func() {
			So(rewards.LevelFor(0), ShouldEqual, 1)
		})

		Convey("Every 100 points is one level", func() {
			So(rewards.LevelFor(99), ShouldEqual, 1)
			So(rewards.LevelFor(100), ShouldEqual, 2)
			So(rewards.LevelFor(120), ShouldEqual, 2)
			So(rewards.LevelFor(250), ShouldEqual, 3)
		})

		Convey("Level matches max(1, floor(points/100)+1) across a range", func() {
			for p := 0; p <= 1000; p += 7 {
				want := int(math.Max(1, math.Floor(float64(p)/100)+1))
				So(rewards.LevelFor(p), ShouldEqual, want)
			}
		})

		Convey("Negative totals never go below level 1", func() {
			So(rewards.LevelFor(-5), ShouldEqual, 1)
		})
	})
}

func TestGradeSubmission(t *testing.T) {
	Convey("Given a two question quiz worth 10 points each", t, func() {
		questions := []rewards.Question{
			{Prompt: "q1", Options: []string{"a", "b"}, AnswerIndex: intPtr(0), Points: 10},
			{Prompt: "q2", Options: []string{"a", "b"}, AnswerIndex: intPtr(1), Points: 10},
		}

		Convey("When only the first answer matches", func() {
			g := rewards.GradeSubmission(questions, []*int{intPtr(0), intPtr(0)})

			Convey("Then score is 10 of 20 and the bonus is 15", func() {
				So(g.Score, ShouldEqual, 10)
				So(g.Total, ShouldEqual, 20)
				So(g.Bonus(), ShouldEqual, 15)
			})
		})

		Convey("When every answer matches", func() {
			g := rewards.GradeSubmission(questions, []*int{intPtr(0), intPtr(1)})
			So(g.Score, ShouldEqual, g.Total)
			So(g.Bonus(), ShouldEqual, rewards.QuizBonusMax)
		})

		Convey("When nothing matches", func() {
			g := rewards.GradeSubmission(questions, []*int{intPtr(1), intPtr(0)})
			So(g.Score, ShouldEqual, 0)
			So(g.Bonus(), ShouldEqual, 0)
		})

		Convey("When the submission is sparse or short", func() {
			g := rewards.GradeSubmission(questions, []*int{nil})
			So(g.Score, ShouldEqual, 0)
			So(g.Total, ShouldEqual, 20)

			g = rewards.GradeSubmission(questions, nil)
			So(g.Score, ShouldEqual, 0)
		})

		Convey("When an index is out of range it is simply wrong", func() {
			g := rewards.GradeSubmission(questions, []*int{intPtr(7), intPtr(-1)})
			So(g.Score, ShouldEqual, 0)
		})

		Convey("Extra answers are ignored", func() {
			g := rewards.GradeSubmission(questions, []*int{intPtr(0), intPtr(1), intPtr(3)})
			So(g.Score, ShouldEqual, 20)
		})
	})

	Convey("Given questions without explicit points", t, func() {
		questions := []rewards.Question{
			{Prompt: "q1", Options: []string{"a", "b"}, AnswerIndex: intPtr(1)},
			{Prompt: "q2", Options: []string{"a", "b"}, AnswerIndex: intPtr(0), Points: 5},
		}

		Convey("Unset points default to 10", func() {
			g := rewards.GradeSubmission(questions, []*int{intPtr(1), nil})
			So(g.Score, ShouldEqual, 10)
			So(g.Total, ShouldEqual, 15)
		})
	})

	Convey("Given a question with no recorded answer", t, func() {
		questions := []rewards.Question{{Prompt: "q1", Options: []string{"a", "b"}}}

		Convey("It counts toward the total but can never be scored", func() {
			g := rewards.GradeSubmission(questions, []*int{intPtr(0)})
			So(g.Score, ShouldEqual, 0)
			So(g.Total, ShouldEqual, 10)
		})
	})

	Convey("Given an empty quiz", t, func() {
		g := rewards.GradeSubmission(nil, []*int{intPtr(0)})
		So(g.Total, ShouldEqual, 0)
		So(g.Bonus(), ShouldEqual, 0)
		So(g.Percent(), ShouldEqual, 0)
	})
}

func TestQuizBonus(t *testing.T) {
	Convey("Quiz bonus rounds score/total*30", t, func() {
		So(rewards.QuizBonus(1, 3), ShouldEqual, 10)
		So(rewards.QuizBonus(2, 3), ShouldEqual, 20)
		So(rewards.QuizBonus(1, 4), ShouldEqual, 8) // 7.5 rounds up
		So(rewards.QuizBonus(3, 3), ShouldEqual, 30)
		So(rewards.QuizBonus(0, 0), ShouldEqual, 0)
	})
}

func TestAdvance(t *testing.T) {
	Convey("Given a book that was never opened", t, func() {
		Convey("Reporting 50% starts reading without points", func() {
			tr, err := rewards.Advance(rewards.NotStarted, 50)
			So(err, ShouldBeNil)
			So(tr.To, ShouldEqual, rewards.Reading)
			So(tr.Percentage, ShouldEqual, 50)
			So(tr.Award, ShouldEqual, 0)
			So(tr.Changed, ShouldBeTrue)
		})

		Convey("Reporting 100% completes it with the completion bonus", func() {
			tr, err := rewards.Advance(rewards.NotStarted, 100)
			So(err, ShouldBeNil)
			So(tr.To, ShouldEqual, rewards.Completed)
			So(tr.Award, ShouldEqual, rewards.CompletionBonus)
			So(tr.Completes(), ShouldBeTrue)
		})

		Convey("Fractions are floored", func() {
			tr, err := rewards.Advance(rewards.NotStarted, 99.9)
			So(err, ShouldBeNil)
			So(tr.To, ShouldEqual, rewards.Reading)
			So(tr.Percentage, ShouldEqual, 99)
		})
	})

	Convey("Given a book being read", t, func() {
		Convey("Progress may go down", func() {
			tr, err := rewards.Advance(rewards.Reading, 30)
			So(err, ShouldBeNil)
			So(tr.To, ShouldEqual, rewards.Reading)
			So(tr.Percentage, ShouldEqual, 30)
		})
	})

	Convey("Given a completed book", t, func() {
		Convey("Lower progress leaves it completed", func() {
			tr, err := rewards.Advance(rewards.Completed, 10)
			So(err, ShouldBeNil)
			So(tr.To, ShouldEqual, rewards.Completed)
			So(tr.Percentage, ShouldEqual, 100)
			So(tr.Changed, ShouldBeFalse)
		})

		Convey("Completing again earns nothing", func() {
			tr, err := rewards.Advance(rewards.Completed, 100)
			So(err, ShouldBeNil)
			So(tr.Award, ShouldEqual, 0)
			So(tr.Completes(), ShouldBeFalse)
		})
	})

	Convey("Out of range reports are rejected", t, func() {
		for _, p := range []float64{-1, 100.5, math.NaN()} {
			_, err := rewards.Advance(rewards.Reading, p)
			So(err, ShouldEqual, rewards.ErrInvalidPercentage)
		}
	})

	Convey("States round-trip through their stored form", t, func() {
		So(rewards.ParseState(rewards.Reading.String()), ShouldEqual, rewards.Reading)
		So(rewards.ParseState(rewards.Completed.String()), ShouldEqual, rewards.Completed)
		So(rewards.ParseState(""), ShouldEqual, rewards.NotStarted)
	})
}
