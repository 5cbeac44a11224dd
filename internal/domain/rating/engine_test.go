package rating

import (
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

func TestUpdate(t *testing.T) {
	Convey("Given a rating engine", t, func() {
		e := NewEngine()

		Convey("When A wins between equal ratings at uncertainty 100 and average weight", func() {
			res, err := e.Update(UpdateInput{RatingA: 1500, RatingB: 1500, UncertaintyA: 100, UncertaintyB: 100, Outcome: model.OutcomeA, Weight: 5})

			Convey("Then K is 32 and the ratings move by 16", func() {
				So(err, ShouldBeNil)
				So(res.ExpectedA, ShouldEqual, 0.5)
				So(res.WeightMultiplier, ShouldEqual, 1.0)
				So(res.RatingA, ShouldEqual, 1516)
				So(res.RatingB, ShouldEqual, 1484)
				So(res.ChangeA, ShouldEqual, 16)
				So(res.ChangeB, ShouldEqual, -16)
				So(res.UncertaintyA, ShouldEqual, 95)
			})
		})

		Convey("When the two sides have different uncertainty", func() {
			res, err := e.Update(UpdateInput{RatingA: 1500, RatingB: 1500, UncertaintyA: 350, UncertaintyB: 100, Outcome: model.OutcomeA, Weight: 5})

			Convey("Then the changes are not zero-sum", func() {
				So(err, ShouldBeNil)
				So(res.ChangeA, ShouldEqual, 56)
				So(res.ChangeB, ShouldEqual, -16)
			})
		})

		Convey("When the outcome is a draw between equal ratings", func() {
			res, err := e.Update(UpdateInput{RatingA: 1500, RatingB: 1500, UncertaintyA: 350, UncertaintyB: 350, Outcome: model.OutcomeBoth, Weight: 9})

			Convey("Then ratings stay put and uncertainty still decays", func() {
				So(err, ShouldBeNil)
				So(res.RatingA, ShouldEqual, 1500)
				So(res.RatingB, ShouldEqual, 1500)
				So(res.UncertaintyA, ShouldEqual, 333)
			})
		})

		Convey("When the outcome is Neither or unknown", func() {
			_, err1 := e.Update(UpdateInput{Outcome: model.OutcomeNeither})
			_, err2 := e.Update(UpdateInput{Outcome: "Grandma"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err1, ErrUnsupportedOutcome), ShouldBeTrue)
				So(errors.Is(err2, ErrUnsupportedOutcome), ShouldBeTrue)
			})
		})
	})
}

func TestWeightMultiplierClamp(t *testing.T) {
	Convey("Given task weights across the range", t, func() {
		for _, w := range []float64{0.0001, 0.5, 1, 2, 5, 7.5, 12.5, 14, 100, 1e9} {
			m := WeightMultiplier(w)
			So(m, ShouldBeGreaterThanOrEqualTo, MinMultiplier)
			So(m, ShouldBeLessThanOrEqualTo, MaxMultiplier)
		}
		So(WeightMultiplier(1), ShouldEqual, MinMultiplier)
		So(WeightMultiplier(50), ShouldEqual, MaxMultiplier)
		So(WeightMultiplier(math.NaN()), ShouldEqual, 1.0)
		So(WeightMultiplier(-3), ShouldEqual, 1.0)
	})
}

func TestUncertaintyMonotonic(t *testing.T) {
	Convey("Given repeated updates from the initial uncertainty", t, func() {
		e := NewEngine()
		rA, rB, uA, uB := model.InitialRating, model.InitialRating, model.InitialUncertainty, model.InitialUncertainty
		outcomes := []model.Outcome{model.OutcomeA, model.OutcomeB, model.OutcomeDraw}

		for i := 0; i < 120; i++ {
			res, err := e.Update(UpdateInput{RatingA: rA, RatingB: rB, UncertaintyA: uA, UncertaintyB: uB, Outcome: outcomes[i%3], Weight: float64(i%14 + 1)})
			So(err, ShouldBeNil)
			So(res.UncertaintyA, ShouldBeLessThanOrEqualTo, uA)
			if uA > model.MinUncertainty {
				So(res.UncertaintyA, ShouldBeLessThan, uA)
			}
			So(res.UncertaintyA, ShouldBeGreaterThanOrEqualTo, model.MinUncertainty)
			rA, rB, uA, uB = res.RatingA, res.RatingB, res.UncertaintyA, res.UncertaintyB
		}

		Convey("Then uncertainty ends at the floor", func() {
			So(uA, ShouldEqual, model.MinUncertainty)
			So(uB, ShouldEqual, model.MinUncertainty)
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given an empty family document", t, func() {
		fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		e := NewEngine(WithClock(func() time.Time { return fixed }))
		doc := model.NewFamilyRatings("fam", e.Labels())
		ev := model.ComparisonEvent{
			EventID:  "e1",
			FamilyID: "fam",
			Category: model.CategoryInvisibleHousehold,
			TaskType: "meal-planning",
			Outcome:  model.OutcomeA,
			Weight:   5,
		}

		Convey("When A wins one comparison", func() {
			rec, err := e.Apply(&doc, ev)

			Convey("Then category and task ratings both move", func() {
				So(err, ShouldBeNil)
				cat := doc.Categories[model.CategoryInvisibleHousehold]
				task := doc.Tasks["meal-planning"]
				So(cat.A.Rating, ShouldEqual, 1556)
				So(cat.B.Rating, ShouldEqual, 1444)
				So(cat.A.MatchCount, ShouldEqual, 1)
				So(task.A.Rating, ShouldEqual, 1556)
				So(task.Category, ShouldEqual, model.CategoryInvisibleHousehold)
				So(cat.A.Uncertainty, ShouldEqual, 333)
			})

			Convey("Then the global rating follows the categories", func() {
				So(doc.Global.A.Rating, ShouldEqual, 1556)
				So(doc.Global.A.MatchCount, ShouldEqual, 1)
				So(ResponseCount(doc), ShouldEqual, 1)
			})

			Convey("Then the history record captures before and after", func() {
				So(rec.CategoryChange, ShouldNotBeNil)
				So(rec.CategoryChange.A.RatingBefore, ShouldEqual, 1500)
				So(rec.CategoryChange.A.RatingAfter, ShouldEqual, 1556)
				So(rec.ImpactA, ShouldEqual, 56*5)
				So(rec.Timestamp, ShouldEqual, fixed)
				So(doc.LastUpdated, ShouldEqual, fixed)
			})
		})

		Convey("When the answer is Neither", func() {
			ev.Outcome = model.OutcomeNeither
			rec, err := e.Apply(&doc, ev)

			Convey("Then only the uncovered counters change", func() {
				So(err, ShouldBeNil)
				So(rec.CategoryChange, ShouldBeNil)
				So(doc.Tasks["meal-planning"].NeitherCount, ShouldEqual, 1)
				So(doc.Tasks["meal-planning"].A.Rating, ShouldEqual, model.InitialRating)
				So(doc.Uncovered.Total, ShouldEqual, 1)
				So(doc.Uncovered.ByCategory[model.CategoryInvisibleHousehold], ShouldEqual, 1)
				So(doc.Uncovered.ByTask["meal-planning"], ShouldEqual, 1)
				So(ResponseCount(doc), ShouldEqual, 0)
			})
		})

		Convey("When the answer is Both", func() {
			ev.Outcome = model.OutcomeBoth
			_, err := e.Apply(&doc, ev)

			Convey("Then the shared counter increments and ratings are a draw", func() {
				So(err, ShouldBeNil)
				So(doc.Tasks["meal-planning"].BothCount, ShouldEqual, 1)
				So(doc.Categories[model.CategoryInvisibleHousehold].A.Rating, ShouldEqual, 1500)
				So(doc.Categories[model.CategoryInvisibleHousehold].A.MatchCount, ShouldEqual, 1)
			})
		})

		Convey("When the outcome is unsupported", func() {
			ev.Outcome = "Grandma"
			_, err := e.Apply(&doc, ev)

			Convey("Then it fails and the document is untouched", func() {
				So(errors.Is(err, ErrUnsupportedOutcome), ShouldBeTrue)
				So(doc.Categories, ShouldBeEmpty)
				So(doc.Tasks, ShouldBeEmpty)
			})
		})

		Convey("When the weight is not usable", func() {
			ev.Weight = math.Inf(1)
			rec, err := e.Apply(&doc, ev)

			Convey("Then the average weight is used", func() {
				So(err, ShouldBeNil)
				So(rec.Weight, ShouldEqual, AverageWeight)
				So(rec.WeightMultiplier, ShouldEqual, 1.0)
			})
		})
	})
}
