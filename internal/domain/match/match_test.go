package match_test

import (
	"errors"
	"testing"

	"github.com/okian/gradeflow/internal/domain/match"
	"github.com/okian/gradeflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func seedQuestions() []model.Question {
	return []model.Question{
		{
			ID: "q-1", ParameterID: "param-1", ProjectContext: "SDP",
			Text: "I can interpret financial statements and draw conclusions from them.",
		},
		{
			ID: "q-2", ParameterID: "param-2", ProjectContext: "SDP",
			Text: "I documented my work and communicated outcomes clearly.",
		},
		{
			ID: "q-3", ParameterID: "param-3", ProjectContext: "Accounts",
			Text: "I can interpret financial statements and draw conclusions from them.",
		},
	}
}

func TestMatcher(t *testing.T) {
	Convey("Given a matcher over seeded questions", t, func() {
		m := match.New(seedQuestions())

		Convey("When the header text equals a candidate after normalization", func() {
			res, err := m.Match("I can interpret FINANCIAL statements, and draw conclusions from them!", "SDP")

			Convey("Then it matches with full confidence regardless of threshold", func() {
				So(err, ShouldBeNil)
				So(res.QuestionID, ShouldEqual, "q-1")
				So(res.ParameterID, ShouldEqual, "param-1")
				So(res.Confidence, ShouldEqual, 1.0)
			})
		})

		Convey("When the header was lightly reworded", func() {
			res, err := m.Match("I can interpret the financial statements and draw conclusions from them", "SDP")
			So(err, ShouldBeNil)
			So(res.QuestionID, ShouldEqual, "q-1")
			So(res.Confidence, ShouldBeGreaterThan, 0.80)
		})

		Convey("When the same phrase exists in another project context", func() {
			res, err := m.Match("I can interpret financial statements and draw conclusions from them.", "Accounts")

			Convey("Then only the in-context candidate is considered", func() {
				So(err, ShouldBeNil)
				So(res.QuestionID, ShouldEqual, "q-3")
				So(res.ParameterID, ShouldEqual, "param-3")
			})
		})

		Convey("When only the opening clause survives a rewrite", func() {
			// Below the ratio threshold, but the first 20 normalized
			// characters are unchanged.
			res, err := m.Match("I documented my work and then rewrote everything else", "SDP")
			So(err, ShouldBeNil)
			So(res.QuestionID, ShouldEqual, "q-2")
		})

		Convey("When nothing matches", func() {
			_, err := m.Match("What is one insight you gained from this project?", "SDP")

			Convey("Then the error carries the best-seen candidate", func() {
				So(errors.Is(err, match.ErrNoMatch), ShouldBeTrue)
				var nm *match.NoMatchError
				So(errors.As(err, &nm), ShouldBeTrue)
				So(nm.Context, ShouldEqual, "SDP")
				So(nm.BestText, ShouldNotBeEmpty)
				So(nm.BestRatio, ShouldBeBetween, 0.0, 0.80)
			})
		})

		Convey("When the context has no candidates at all", func() {
			_, err := m.Match("anything", "Kickstart")
			So(errors.Is(err, match.ErrNoMatch), ShouldBeTrue)
		})
	})
}

func TestMatcherFallbackConfidence(t *testing.T) {
	Convey("Given a prefix-preserving candidate and a closer fuzzy one below threshold", t, func() {
		questions := []model.Question{
			{
				ID: "q-prefix", ParameterID: "param-prefix", ProjectContext: "SDP",
				Text: "Documenting outcomes for stakeholders and leadership teams.",
			},
			{
				ID: "q-fuzzy", ParameterID: "param-fuzzy", ProjectContext: "SDP",
				Text: "The documenting outcomes from the quarter.",
			},
		}
		m := match.New(questions)
		input := "Documenting outcomes from the quarter in a very different way"

		Convey("When only the fallback resolves the header", func() {
			res, err := m.Match(input, "SDP")
			So(err, ShouldBeNil)

			Convey("Then the confidence is the accepted candidate's own ratio", func() {
				So(res.QuestionID, ShouldEqual, "q-prefix")

				own := match.Ratio(match.Normalize(input), match.Normalize(questions[0].Text))
				other := match.Ratio(match.Normalize(input), match.Normalize(questions[1].Text))
				So(other, ShouldBeGreaterThan, own)
				So(res.Confidence, ShouldEqual, own)
			})
		})
	})
}

func TestMatcherDeterminism(t *testing.T) {
	Convey("Given two candidates equally similar to the input", t, func() {
		questions := []model.Question{
			{ID: "q-b", ParameterID: "param-b", ProjectContext: "SDP", Text: "planning the work ahead xx"},
			{ID: "q-a", ParameterID: "param-a", ProjectContext: "SDP", Text: "planning the work ahead yy"},
		}

		Convey("When matching the shared stem repeatedly", func() {
			var got []string
			for i := 0; i < 5; i++ {
				m := match.New(questions)
				res, err := m.Match("planning the work ahead", "SDP")
				So(err, ShouldBeNil)
				got = append(got, res.QuestionID)
			}

			Convey("Then the tie breaks to the lower parameter id every run", func() {
				for _, id := range got {
					So(id, ShouldEqual, "q-a")
				}
			})
		})
	})
}

func TestMatcherOptions(t *testing.T) {
	Convey("Given a matcher with a custom threshold", t, func() {
		questions := []model.Question{
			{ID: "q-1", ParameterID: "param-1", ProjectContext: "SDP", Text: "completely different text here"},
		}
		m := match.New(questions, match.WithThreshold(0.99), match.WithPrefixLength(50))

		Convey("When a near-but-not-exact header arrives", func() {
			_, err := m.Match("completely different text her", "SDP")

			Convey("Then the stricter threshold rejects it", func() {
				So(errors.Is(err, match.ErrNoMatch), ShouldBeTrue)
			})
		})

		Convey("When an invalid threshold is supplied", func() {
			m2 := match.New(questions, match.WithThreshold(1.5))
			So(m2.Threshold(), ShouldEqual, 0.80)
		})
	})
}
