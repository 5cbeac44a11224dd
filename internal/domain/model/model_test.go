package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	model "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

func TestParseOutcome(t *testing.T) {
	convey.Convey("Given the default competitor labels", t, func() {
		labels := model.DefaultLabels()

		convey.Convey("When parsing legacy bare strings", func() {
			cases := map[string]model.Outcome{
				"Mama":    model.OutcomeA,
				"papa":    model.OutcomeB,
				" Both ":  model.OutcomeBoth,
				"Draw":    model.OutcomeDraw,
				"Neither": model.OutcomeNeither,
				"A":       model.OutcomeA,
				"b":       model.OutcomeB,
			}

			convey.Convey("Then each maps to its canonical outcome", func() {
				for raw, want := range cases {
					got, err := model.ParseOutcome(raw, labels)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldEqual, want)
				}
			})
		})

		convey.Convey("When parsing an unknown token", func() {
			_, err := model.ParseOutcome("grandma", labels)

			convey.Convey("Then it is rejected as unsupported", func() {
				convey.So(errors.Is(err, model.ErrUnsupportedOutcome), convey.ShouldBeTrue)
			})
		})
	})
}

func TestOutcomeResult(t *testing.T) {
	convey.Convey("Given each outcome", t, func() {
		r, ok := model.OutcomeA.Result()
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(r, convey.ShouldEqual, 1.0)

		r, ok = model.OutcomeB.Result()
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(r, convey.ShouldEqual, 0.0)

		r, ok = model.OutcomeBoth.Result()
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(r, convey.ShouldEqual, 0.5)

		_, ok = model.OutcomeNeither.Result()
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(model.Outcome("x").Valid(), convey.ShouldBeFalse)
	})
}

func TestComparisonEventValidate(t *testing.T) {
	convey.Convey("Given a comparison event", t, func() {
		ev := model.ComparisonEvent{FamilyID: "f1", Category: "Invisible Household Tasks", Outcome: model.OutcomeA}

		convey.Convey("When all required fields are set", func() {
			convey.Convey("Then it validates and falls back to the category as task key", func() {
				convey.So(ev.Validate(), convey.ShouldBeNil)
				convey.So(ev.TaskKey(), convey.ShouldEqual, "Invisible Household Tasks")
			})
		})

		convey.Convey("When the category is missing", func() {
			ev.Category = ""

			convey.Convey("Then it is invalid", func() {
				convey.So(errors.Is(ev.Validate(), model.ErrInvalidEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the outcome is unknown", func() {
			ev.Outcome = "Grandma"

			convey.Convey("Then the outcome is unsupported", func() {
				convey.So(errors.Is(ev.Validate(), model.ErrUnsupportedOutcome), convey.ShouldBeTrue)
			})
		})
	})
}

func TestFamilyRatingsClone(t *testing.T) {
	convey.Convey("Given a family rating document", t, func() {
		doc := model.NewFamilyRatings("f1", model.DefaultLabels())
		doc.Categories["c"] = model.NewRatingPair(model.DefaultLabels())
		doc.Uncovered.ByTask["t"] = 2

		convey.Convey("When the clone is mutated", func() {
			c := doc.Clone()
			c.Uncovered.ByTask["t"] = 9
			delete(c.Categories, "c")

			convey.Convey("Then the original is untouched", func() {
				convey.So(doc.Uncovered.ByTask["t"], convey.ShouldEqual, 2)
				convey.So(doc.Categories, convey.ShouldContainKey, "c")
				convey.So(doc.Global.A.Rating, convey.ShouldEqual, model.InitialRating)
				convey.So(doc.Global.A.SubjectID, convey.ShouldEqual, "Mama")
			})
		})

		convey.Convey("When a sparse document has its maps ensured", func() {
			var sparse model.FamilyRatings
			sparse.EnsureMaps()

			convey.Convey("Then writes do not panic", func() {
				convey.So(func() { sparse.Uncovered.ByCategory["c"]++ }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestWeekID(t *testing.T) {
	convey.Convey("Given dates around a year boundary", t, func() {
		convey.So(model.WeekID(time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)), convey.ShouldEqual, "2026-W07")
		convey.So(model.WeekID(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)), convey.ShouldEqual, "2026-W53")
	})
}
