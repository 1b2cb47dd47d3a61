package model_test

import (
	"testing"

	"github.com/okian/tipset/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given a prediction with padding, blanks and a repeated item", t, func() {
		p := model.Prediction{
			Participant: "  Anna ",
			Items:       []string{" AIK", "Hammarby", "", "AIK", "Malmö FF"},
		}

		Convey("When normalizing it", func() {
			out, issues := model.Normalize(p)

			Convey("Then names are trimmed and the repeat leaves a placeholder", func() {
				So(out.Participant, ShouldEqual, "Anna")
				So(out.Items, ShouldResemble, []string{"AIK", "Hammarby", "", "Malmö FF"})
			})

			Convey("And blanks close up while the repeat holds its slot", func() {
				pos := out.Positions()
				So(pos["AIK"], ShouldEqual, 0)
				So(pos["Hammarby"], ShouldEqual, 1)
				So(pos["Malmö FF"], ShouldEqual, 3)
				So(len(out.Slots()), ShouldEqual, 3)
			})

			Convey("And both problems are reported", func() {
				So(len(issues), ShouldEqual, 2)
				So(issues[0].Kind, ShouldEqual, model.IssueEmptyItem)
				So(issues[1].Kind, ShouldEqual, model.IssueDuplicateItem)
				So(issues[1].Item, ShouldEqual, "AIK")
			})
		})
	})

	Convey("Given blanks and a repeat ahead of later items", t, func() {
		p := model.Prediction{
			Participant: "Bo",
			Items:       []string{"AIK", "", "AIK", "", "Hammarby", "Malmö FF"},
		}

		Convey("When normalizing it", func() {
			out, _ := model.Normalize(p)

			Convey("Then blanks are removed and the repeat keeps a placeholder", func() {
				So(out.Items, ShouldResemble, []string{"AIK", "", "Hammarby", "Malmö FF"})
				pos := out.Positions()
				So(pos["Hammarby"], ShouldEqual, 2)
				So(pos["Malmö FF"], ShouldEqual, 3)
			})
		})
	})
}

func TestNormalizeSet(t *testing.T) {
	Convey("Given a set where one participant appears twice", t, func() {
		set := model.PredictionSet{
			{Participant: "Anna", Items: []string{"A", "B"}},
			{Participant: "Bo", Items: []string{"B", "A"}},
			{Participant: "Anna", Items: []string{"B", "A"}},
			{Participant: " ", Items: []string{"A"}},
		}

		out, issues := model.NormalizeSet(set)

		Convey("Then the later prediction wins but keeps the first slot", func() {
			So(out.Participants(), ShouldResemble, []string{"Anna", "Bo"})
			anna, ok := out.Find("Anna")
			So(ok, ShouldBeTrue)
			So(anna.Items, ShouldResemble, []string{"B", "A"})
		})

		Convey("And nameless predictions are dropped with an issue", func() {
			So(len(issues), ShouldEqual, 2)
			So(issues[0].Kind, ShouldEqual, model.IssueDuplicateParticipant)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given predictions of uneven length", t, func() {
		set := model.PredictionSet{
			{Participant: "Anna", Items: []string{"A", "B", "C"}},
			{Participant: "Bo", Items: []string{"A", "X"}},
		}

		Convey("When validating against three known items", func() {
			issues := model.Validate(set, 3, []string{"A", "B", "C"})

			Convey("Then short and unknown entries are reported, not rejected", func() {
				So(len(issues), ShouldEqual, 2)
				So(issues[0].Kind, ShouldEqual, model.IssueUnknownItem)
				So(issues[0].Item, ShouldEqual, "X")
				So(issues[1].Kind, ShouldEqual, model.IssueCountMismatch)
				So(issues[1].Participant, ShouldEqual, "Bo")
			})
		})

		Convey("When no reference is known", func() {
			issues := model.Validate(set, 0, nil)

			Convey("Then nothing is reported", func() {
				So(issues, ShouldBeEmpty)
			})
		})
	})
}

func TestSetItems(t *testing.T) {
	Convey("Given two overlapping predictions", t, func() {
		set := model.PredictionSet{
			{Participant: "Anna", Items: []string{"B", "A"}},
			{Participant: "Bo", Items: []string{"C", "A"}},
		}

		Convey("Then the union keeps first-seen order", func() {
			So(set.Items(), ShouldResemble, []string{"B", "A", "C"})
		})
	})
}

func TestReferenceOrder(t *testing.T) {
	Convey("Given standings with a repeated and a blank row", t, func() {
		standings := []model.Standing{
			{Position: 1, Item: "AIK"},
			{Position: 2, Item: ""},
			{Position: 3, Item: "Hammarby"},
			{Position: 4, Item: "AIK"},
		}

		Convey("Then the reference order skips both", func() {
			So(model.ReferenceOrder(standings), ShouldResemble, []string{"AIK", "Hammarby"})
		})

		Convey("And an order round-trips through stat-less standings", func() {
			rows := model.StandingsFromOrder([]string{"X", "Y"})
			So(rows[1].Position, ShouldEqual, 2)
			So(model.ReferenceOrder(rows), ShouldResemble, []string{"X", "Y"})
		})
	})
}
