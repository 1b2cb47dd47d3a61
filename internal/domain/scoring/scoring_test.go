package scoring_test

import (
	"fmt"
	"testing"

	"github.com/okian/tipset/internal/domain/model"
	scoring "github.com/okian/tipset/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMaxPossibleError(t *testing.T) {
	Convey("Given reference lengths", t, func() {
		Convey("Then even lengths give n*n/2", func() {
			So(scoring.MaxPossibleError(4), ShouldEqual, 8)
			So(scoring.MaxPossibleError(16), ShouldEqual, 128)
		})

		Convey("And odd lengths give (n*n-1)/2", func() {
			So(scoring.MaxPossibleError(3), ShouldEqual, 4)
			So(scoring.MaxPossibleError(5), ShouldEqual, 12)
		})

		Convey("And it matches the displacement of a full reversal", func() {
			for n := 1; n <= 20; n++ {
				total := 0
				for i := 0; i < n; i++ {
					d := i - (n - 1 - i)
					if d < 0 {
						d = -d
					}
					total += d
				}
				So(scoring.MaxPossibleError(n), ShouldEqual, total)
			}
		})

		Convey("And degenerate lengths give zero", func() {
			So(scoring.MaxPossibleError(0), ShouldEqual, 0)
			So(scoring.MaxPossibleError(1), ShouldEqual, 0)
		})
	})
}

func TestScore(t *testing.T) {
	reference := []string{"A", "B", "C", "D"}

	Convey("Given the reference [A B C D]", t, func() {
		Convey("When a participant swaps the top two", func() {
			records, err := scoring.Score(reference, model.PredictionSet{
				{Participant: "Anna", Items: []string{"B", "A", "C", "D"}},
			})

			Convey("Then the error is 2 and the score 6 of 8", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 1)
				rec := records[0]
				So(rec.TotalError, ShouldEqual, 2)
				So(rec.Score, ShouldEqual, 6)
				So(rec.MaxPossible, ShouldEqual, 8)
				So(rec.Percent, ShouldEqual, 75.0)
			})

			Convey("And the first zero-error item is best, the first one-error item worst", func() {
				rec := records[0]
				So(rec.Best, ShouldResemble, &scoring.Placement{Item: "C", Predicted: 3, Actual: 3, Error: 0})
				So(rec.Worst, ShouldResemble, &scoring.Placement{Item: "B", Predicted: 1, Actual: 2, Error: 1})
			})
		})

		Convey("When a participant matches the reference exactly", func() {
			records, err := scoring.Score(reference, model.PredictionSet{
				{Participant: "Anna", Items: []string{"A", "B", "C", "D"}},
			})

			Convey("Then they get the full score", func() {
				So(err, ShouldBeNil)
				So(records[0].TotalError, ShouldEqual, 0)
				So(records[0].Score, ShouldEqual, 8)
				So(records[0].Percent, ShouldEqual, 100.0)
			})
		})

		Convey("When a participant predicts the exact reverse", func() {
			records, err := scoring.Score(reference, model.PredictionSet{
				{Participant: "Anna", Items: []string{"D", "C", "B", "A"}},
			})

			Convey("Then the error equals the maximum and the score is zero", func() {
				So(err, ShouldBeNil)
				So(records[0].TotalError, ShouldEqual, 8)
				So(records[0].Score, ShouldEqual, 0)
				So(records[0].Percent, ShouldEqual, 0.0)
			})
		})

		Convey("When a participant names teams outside the reference", func() {
			records, err := scoring.Score(reference, model.PredictionSet{
				{Participant: "Anna", Items: []string{"A", "X", "B"}},
			})

			Convey("Then unknown teams contribute nothing", func() {
				So(err, ShouldBeNil)
				rec := records[0]
				So(len(rec.Breakdown), ShouldEqual, 2)
				// A: |0-0| = 0, B: |2-1| = 1
				So(rec.TotalError, ShouldEqual, 1)
				So(rec.Score, ShouldEqual, 7)
				So(rec.Percent, ShouldEqual, 87.5)
			})
		})

		Convey("When a participant matches nothing", func() {
			records, err := scoring.Score(reference, model.PredictionSet{
				{Participant: "Anna", Items: []string{"X", "Y"}},
			})

			Convey("Then best and worst are undefined", func() {
				So(err, ShouldBeNil)
				So(records[0].Best, ShouldBeNil)
				So(records[0].Worst, ShouldBeNil)
				So(records[0].Score, ShouldEqual, 8)
			})
		})

		Convey("When several participants are scored", func() {
			records, err := scoring.Score(reference, model.PredictionSet{
				{Participant: "Bo", Items: []string{"D", "C", "B", "A"}},
				{Participant: "Anna", Items: []string{"A", "B", "C", "D"}},
			})

			Convey("Then records keep input order", func() {
				So(err, ShouldBeNil)
				So(records[0].Participant, ShouldEqual, "Bo")
				So(records[1].Participant, ShouldEqual, "Anna")
			})
		})
	})

	Convey("Given an odd reference of three", t, func() {
		records, err := scoring.Score([]string{"A", "B", "C"}, model.PredictionSet{
			{Participant: "Anna", Items: []string{"B", "A", "C"}},
		})

		Convey("Then the percentage is rounded to one decimal", func() {
			So(err, ShouldBeNil)
			// max 4, error 2, score 2
			So(records[0].Percent, ShouldEqual, 50.0)
		})
	})

	Convey("Given a reference of sixteen", t, func() {
		ref := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P"}
		pred := []string{"B", "A", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P"}
		records, err := scoring.Score(ref, model.PredictionSet{{Participant: "Anna", Items: pred}})

		Convey("Then the percentage is 126/128 rounded", func() {
			So(err, ShouldBeNil)
			So(records[0].Score, ShouldEqual, 126)
			So(records[0].Percent, ShouldEqual, 98.4)
		})
	})

	Convey("Given no reference", t, func() {
		records, err := scoring.Score(nil, model.PredictionSet{{Participant: "Anna", Items: []string{"A"}}})

		Convey("Then scoring is unavailable", func() {
			So(err, ShouldEqual, scoring.ErrEmptyReference)
			So(records, ShouldBeNil)
		})
	})

	Convey("Given a single-item reference", t, func() {
		records, err := scoring.Score([]string{"A"}, model.PredictionSet{{Participant: "Anna", Items: []string{"A"}}})

		Convey("Then scoring refuses to divide by zero", func() {
			So(err, ShouldEqual, scoring.ErrDegenerateItemCount)
			So(records, ShouldBeNil)
		})
	})
}

func TestScorePercentRounding(t *testing.T) {
	reference := make([]string, 16)
	for i := range reference {
		reference[i] = fmt.Sprintf("T%02d", i)
	}
	swapped := func(pairs ...int) model.Prediction {
		items := append([]string(nil), reference...)
		for _, i := range pairs {
			j := len(items) - 1 - i
			items[i], items[j] = items[j], items[i]
		}
		return model.Prediction{Participant: "Anna", Items: items}
	}

	Convey("Given a sixteen team reference", t, func() {
		Convey("When the score lands on a half tenth", func() {
			records, err := scoring.Score(reference, model.PredictionSet{
				swapped(0, 1, 2, 3, 4, 5),
				swapped(0, 1, 2, 5),
			})

			Convey("Then the percentage rounds half to even", func() {
				So(err, ShouldBeNil)
				So(records[0].TotalError, ShouldEqual, 120)
				So(records[0].Score, ShouldEqual, 8)
				So(records[0].Percent, ShouldEqual, 6.2)
				So(records[1].TotalError, ShouldEqual, 88)
				So(records[1].Score, ShouldEqual, 40)
				So(records[1].Percent, ShouldEqual, 31.2)
			})
		})
	})
}
