package balance

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

type fakeRatings struct {
	doc   model.FamilyRatings
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeRatings) Load(ctx context.Context, familyID string) (model.FamilyRatings, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return model.FamilyRatings{}, f.err
	}
	doc := f.doc
	doc.FamilyID = familyID
	return doc, nil
}

type fakeStores struct {
	mu        sync.Mutex
	baselines map[string]model.Baseline
	weekly    map[string][]model.WeeklyScore
}

func newFakeStores() *fakeStores {
	return &fakeStores{baselines: map[string]model.Baseline{}, weekly: map[string][]model.WeeklyScore{}}
}

func (f *fakeStores) GetBaseline(_ context.Context, id string) (model.Baseline, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.baselines[id]
	return b, ok, nil
}

func (f *fakeStores) PutBaseline(_ context.Context, id string, b model.Baseline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.baselines[id]; ok {
		return ErrBaselineExists
	}
	f.baselines[id] = b
	return nil
}

func (f *fakeStores) PutWeeklyScore(_ context.Context, id string, s model.WeeklyScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.weekly[id]
	for i := range list {
		if list[i].WeekID == s.WeekID {
			list[i] = s
			return nil
		}
	}
	f.weekly[id] = append(list, s)
	return nil
}

func (f *fakeStores) ListWeeklyScores(_ context.Context, id string, limit int) ([]model.WeeklyScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.weekly[id]
	out := make([]model.WeeklyScore, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

type staticLoad []PersonLoad

func (s staticLoad) CognitiveLoad(context.Context, string) ([]PersonLoad, error) { return s, nil }

type staticHarmony HarmonyReading

func (s staticHarmony) Harmony(context.Context, string) (HarmonyReading, error) {
	return HarmonyReading(s), nil
}

type staticHabits []Habit

func (s staticHabits) ActiveHabits(context.Context, string) ([]Habit, error) { return s, nil }

type failingHarmony struct{}

func (failingHarmony) Harmony(context.Context, string) (HarmonyReading, error) {
	return HarmonyReading{}, errors.New("harmony service unreachable")
}

type slowHabits struct{}

func (slowHabits) ActiveHabits(ctx context.Context, _ string) ([]Habit, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// ctxHabits reports its habits only while the caller's context is live.
type ctxHabits []Habit

func (h ctxHabits) ActiveHabits(ctx context.Context, _ string) ([]Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func ratedDoc(gaps map[string]float64) model.FamilyRatings {
	l := model.DefaultLabels()
	doc := model.NewFamilyRatings("", l)
	for cat, gap := range gaps {
		p := model.NewRatingPair(l)
		p.A.Rating = 1500 + gap/2
		p.B.Rating = 1500 - gap/2
		p.A.MatchCount, p.B.MatchCount = 10, 10
		doc.Categories[cat] = p
	}
	return doc
}

func TestTotalAndInterpret(t *testing.T) {
	Convey("Given sub-scores 80, 70, 90 and 50", t, func() {
		total := Total(80, 70, 90, 50, DefaultWeights())

		Convey("Then the total is 76 and reads as Growing", func() {
			So(total, ShouldEqual, 76)
			interp, celebration := Interpret(total)
			So(interp.Level, ShouldEqual, "Growing")
			So(interp.Color, ShouldEqual, "blue")
			So(celebration, ShouldEqual, "great")
		})
	})

	Convey("Given sub-scores anywhere in or outside 0-100", t, func() {
		vals := []float64{-1e9, -5, 0, 33.3, 50, 99.9, 100, 250, math.Inf(1), math.NaN()}

		Convey("Then the total is always within 0-100", func() {
			for _, a := range vals {
				for _, b := range vals {
					for _, c := range vals {
						total := Total(a, b, c, a, DefaultWeights())
						So(total, ShouldBeBetweenOrEqual, 0, 100)
					}
				}
			}
		})
	})

	Convey("Given the interpretation ladder edges", t, func() {
		levels := map[int]string{100: "Thriving", 80: "Thriving", 79: "Growing", 60: "Growing", 59: "Improving", 40: "Improving", 39: "Getting Started", 0: "Getting Started"}
		for total, want := range levels {
			interp, _ := Interpret(total)
			So(interp.Level, ShouldEqual, want)
		}
	})
}

func TestWeightsValidate(t *testing.T) {
	Convey("Given sub-score weights", t, func() {
		So(DefaultWeights().Validate(), ShouldBeNil)
		So(errors.Is(Weights{MentalLoad: 0.5, TaskDistribution: 0.5, RelationshipHarmony: 0.5}.Validate(), ErrInvalidWeights), ShouldBeTrue)
		So(errors.Is(Weights{MentalLoad: 1.2, TaskDistribution: -0.2}.Validate(), ErrInvalidWeights), ShouldBeTrue)
	})
}

func TestSubScores(t *testing.T) {
	Convey("Given mental load data", t, func() {
		Convey("When fewer than two people report", func() {
			score, details := MentalLoadScore([]PersonLoad{{Name: "A", Anticipation: 3}})

			Convey("Then the neutral default applies", func() {
				So(score, ShouldEqual, 50)
				So(details["dataAvailable"], ShouldEqual, false)
			})
		})

		Convey("When all loads are zero", func() {
			score, _ := MentalLoadScore([]PersonLoad{{Name: "A"}, {Name: "B"}})
			So(score, ShouldEqual, 50)
		})

		Convey("When load is split 60/40", func() {
			// A: 2x10 + 1.5x4 + 1x4 = 30, B: 2x5 + 1.5x4 + 1x4 = 20
			score, details := MentalLoadScore([]PersonLoad{
				{Name: "B", Anticipation: 5, Monitoring: 4, Execution: 4},
				{Name: "A", Anticipation: 10, Monitoring: 4, Execution: 4},
			})

			Convey("Then the score is 100 x (1 - 10/50)", func() {
				So(score, ShouldEqual, 80)
				So(details["leader"], ShouldEqual, "A")
				So(details["leaderPercentage"], ShouldEqual, 60.0)
			})
		})
	})

	Convey("Given a family with zero recorded categories", t, func() {
		score, details := TaskDistributionScore(model.NewFamilyRatings("f", model.DefaultLabels()))

		Convey("Then task distribution is 50 with no data", func() {
			So(score, ShouldEqual, 50)
			So(details["dataAvailable"], ShouldEqual, false)
		})
	})

	Convey("Given core category gaps of 60 and 180 plus a non-core category", t, func() {
		doc := ratedDoc(map[string]float64{
			model.CategoryVisibleHousehold:  60,
			model.CategoryInvisibleParental: 180,
			model.CategoryFinancial:         600,
		})
		score, details := TaskDistributionScore(doc)

		Convey("Then only core categories count", func() {
			So(score, ShouldEqual, 80)
			So(details["mostImbalanced"], ShouldEqual, model.CategoryInvisibleParental)
		})
	})

	Convey("Given a very large gap", t, func() {
		score, _ := TaskDistributionScore(ratedDoc(map[string]float64{model.CategoryVisibleParental: 900}))
		So(score, ShouldEqual, 0)
	})

	Convey("Given harmony readings", t, func() {
		s, _ := HarmonyScore(HarmonyReading{})
		So(s, ShouldEqual, 75)
		s, d := HarmonyScore(HarmonyReading{Available: true, Level: 0})
		So(s, ShouldEqual, 0)
		So(d["dataAvailable"], ShouldEqual, true)
		s, _ = HarmonyScore(HarmonyReading{Available: true, Level: math.NaN()})
		So(s, ShouldEqual, 75)
		s, _ = HarmonyScore(HarmonyReading{Available: true, Level: 140})
		So(s, ShouldEqual, 100)
	})

	Convey("Given habit cycles", t, func() {
		s, _ := HabitScore(nil)
		So(s, ShouldEqual, 0)
		s, _ = HabitScore([]Habit{{TargetFrequency: 5, CompletionCount: 3}, {TargetFrequency: 5, CompletionCount: 4}})
		So(s, ShouldEqual, 70)
		s, _ = HabitScore([]Habit{{TargetFrequency: 2, CompletionCount: 9}})
		So(s, ShouldEqual, 100)
		s, _ = HabitScore([]Habit{{Name: "no target"}})
		So(s, ShouldEqual, 0)
	})
}

func TestEstimatedCharge(t *testing.T) {
	Convey("Given improvements across the range", t, func() {
		So(EstimatedCharge(75), ShouldEqual, 50)
		So(EstimatedCharge(-10), ShouldEqual, 0)
		So(EstimatedCharge(0), ShouldEqual, 0)
		So(EstimatedCharge(12), ShouldEqual, 12)
		So(EstimatedCharge(50), ShouldEqual, 50)

		Convey("Then the charge never decreases as improvement grows", func() {
			prev := EstimatedCharge(-100)
			for i := -99; i <= 150; i++ {
				cur := EstimatedCharge(i)
				So(cur, ShouldBeGreaterThanOrEqualTo, prev)
				prev = cur
			}
		})
	})
}

func TestCalculate(t *testing.T) {
	Convey("Given an aggregator with every signal wired", t, func() {
		clk := &clock{t: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
		ratings := &fakeRatings{doc: ratedDoc(map[string]float64{model.CategoryVisibleHousehold: 180})}
		stores := newFakeStores()
		agg, err := NewAggregator(ratings, stores, stores,
			WithCognitiveLoadSource(staticLoad{{Name: "A", Execution: 6}, {Name: "B", Execution: 4}}),
			WithHarmonySource(staticHarmony{Available: true, Level: 90}),
			WithHabitSource(staticHabits{{TargetFrequency: 10, CompletionCount: 5}}),
			WithClock(clk.Now),
		)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When the score is calculated", func() {
			s, err := agg.Calculate(ctx, "fam", Options{})

			Convey("Then sub-scores combine with their weights", func() {
				So(err, ShouldBeNil)
				So(s.Breakdown.MentalLoad.Score, ShouldEqual, 80)
				So(s.Breakdown.TaskDistribution.Score, ShouldEqual, 70)
				So(s.Breakdown.RelationshipHarmony.Score, ShouldEqual, 90)
				So(s.Breakdown.HabitConsistency.Score, ShouldEqual, 50)
				So(s.Breakdown.MentalLoad.Contribution, ShouldEqual, 32)
				So(s.TotalScore, ShouldEqual, 76)
				So(s.Interpretation.Level, ShouldEqual, "Growing")
				So(s.CacheTTL, ShouldEqual, (5 * time.Minute).Milliseconds())
				So(s.FamilyID, ShouldEqual, "fam")
			})

			Convey("Then a second call within the TTL returns the identical cached result", func() {
				again, err := agg.Calculate(ctx, "fam", Options{})
				So(err, ShouldBeNil)
				So(again, ShouldResemble, s)
				So(ratings.calls.Load(), ShouldEqual, 1)
			})

			Convey("Then a forced refresh recomputes", func() {
				_, err := agg.Calculate(ctx, "fam", Options{ForceRefresh: true})
				So(err, ShouldBeNil)
				So(ratings.calls.Load(), ShouldEqual, 2)
			})

			Convey("Then an expired entry is recomputed", func() {
				clk.Advance(5 * time.Minute)
				_, err := agg.Calculate(ctx, "fam", Options{})
				So(err, ShouldBeNil)
				So(ratings.calls.Load(), ShouldEqual, 2)
			})

			Convey("Then invalidation drops the entry", func() {
				So(agg.CacheLen(), ShouldEqual, 1)
				agg.Invalidate("fam")
				So(agg.CacheLen(), ShouldEqual, 0)
			})
		})

		Convey("When the family id is empty", func() {
			_, err := agg.Calculate(ctx, " ", Options{})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrMissingFamilyID), ShouldBeTrue)
			})
		})
	})

	Convey("Given failing and slow collaborators", t, func() {
		stores := newFakeStores()
		agg, err := NewAggregator(&fakeRatings{err: errors.New("store down")}, stores, stores,
			WithHarmonySource(failingHarmony{}),
			WithHabitSource(slowHabits{}),
			WithSignalTimeout(20*time.Millisecond),
		)
		So(err, ShouldBeNil)

		Convey("When the score is calculated", func() {
			s, err := agg.Calculate(context.Background(), "fam", Options{})

			Convey("Then each sub-score falls back and the composite is still produced", func() {
				So(err, ShouldBeNil)
				So(s.Breakdown.MentalLoad.Score, ShouldEqual, DefaultMentalLoad)
				So(s.Breakdown.TaskDistribution.Score, ShouldEqual, DefaultTaskDistribution)
				So(s.Breakdown.TaskDistribution.Details["error"], ShouldEqual, "store down")
				So(s.Breakdown.RelationshipHarmony.Score, ShouldEqual, DefaultHarmony)
				So(s.Breakdown.RelationshipHarmony.Details["error"], ShouldEqual, "harmony service unreachable")
				So(s.Breakdown.HabitConsistency.Score, ShouldEqual, DefaultHabits)
				So(s.Breakdown.HabitConsistency.Details, ShouldContainKey, "error")
				// 50x0.4 + 50x0.3 + 75x0.2 + 0x0.1
				So(s.TotalScore, ShouldEqual, 50)
			})
		})
	})

	Convey("Given concurrent cold calculations for one family", t, func() {
		ratings := &fakeRatings{delay: 30 * time.Millisecond}
		stores := newFakeStores()
		agg, err := NewAggregator(ratings, stores, stores)
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		results := make([]model.BalanceScore, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = agg.Calculate(context.Background(), "fam", Options{})
			}(i)
		}
		wg.Wait()

		Convey("Then the computation is shared", func() {
			So(ratings.calls.Load(), ShouldBeLessThan, 8)
			for _, r := range results {
				So(r.TotalScore, ShouldEqual, results[0].TotalScore)
			}
		})
	})

	Convey("Given invalid construction arguments", t, func() {
		stores := newFakeStores()
		_, err := NewAggregator(nil, stores, stores)
		So(errors.Is(err, ErrNilRatingReader), ShouldBeTrue)
		_, err = NewAggregator(&fakeRatings{}, nil, stores)
		So(errors.Is(err, ErrNilStore), ShouldBeTrue)
		_, err = NewAggregator(&fakeRatings{}, stores, stores, WithWeights(Weights{MentalLoad: 2}))
		So(errors.Is(err, ErrInvalidWeights), ShouldBeTrue)
	})
}

func TestCalculateCancelledCaller(t *testing.T) {
	Convey("Given an aggregator whose habit source honours cancellation", t, func() {
		ratings := &fakeRatings{doc: ratedDoc(map[string]float64{model.CategoryVisibleHousehold: 0})}
		stores := newFakeStores()
		agg, err := NewAggregator(ratings, stores, stores,
			WithHabitSource(ctxHabits{{TargetFrequency: 10, CompletionCount: 10}}),
		)
		So(err, ShouldBeNil)

		Convey("When the first caller has already gone away", func() {
			cancelled, cancel := context.WithCancel(context.Background())
			cancel()
			first, err := agg.Calculate(cancelled, "fam", Options{})
			So(err, ShouldBeNil)

			Convey("Then the shared computation still reads the signals", func() {
				So(first.Breakdown.HabitConsistency.Score, ShouldEqual, 100)
				So(first.Breakdown.HabitConsistency.Details, ShouldNotContainKey, "error")
			})

			Convey("Then later callers are served a healthy cached score", func() {
				again, err := agg.Calculate(context.Background(), "fam", Options{})
				So(err, ShouldBeNil)
				So(again.Breakdown.HabitConsistency.Score, ShouldEqual, 100)
				So(again, ShouldResemble, first)
				So(ratings.calls.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestBaselineAndImprovement(t *testing.T) {
	Convey("Given an aggregator whose harmony can change", t, func() {
		clk := &clock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
		h := &mutableHarmony{level: 40}
		stores := newFakeStores()
		agg, err := NewAggregator(&fakeRatings{}, stores, stores, WithHarmonySource(h), WithClock(clk.Now))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When no baseline has been saved", func() {
			imp, err := agg.Improvement(ctx, "fam")

			Convey("Then HasBaseline is false", func() {
				So(err, ShouldBeNil)
				So(imp.HasBaseline, ShouldBeFalse)
				So(imp.Message, ShouldNotBeEmpty)
			})
		})

		Convey("When a baseline is saved and harmony later improves", func() {
			b, err := agg.SaveBaseline(ctx, "fam")
			So(err, ShouldBeNil)
			// 50x0.4 + 50x0.3 + 40x0.2 + 0 = 43
			So(b.Score.TotalScore, ShouldEqual, 43)

			h.set(100)
			clk.Advance(45*24*time.Hour + time.Hour)
			agg.Invalidate("fam")
			imp, err := agg.Improvement(ctx, "fam")

			Convey("Then improvement, percentage, days and charge follow", func() {
				So(err, ShouldBeNil)
				So(imp.HasBaseline, ShouldBeTrue)
				So(imp.Baseline, ShouldEqual, 43)
				So(imp.Current, ShouldEqual, 55)
				So(imp.Improvement, ShouldEqual, 12)
				So(imp.ImprovementPercentage, ShouldEqual, 28)
				So(imp.DaysTracking, ShouldEqual, 45)
				So(imp.EstimatedCharge, ShouldEqual, 12)
			})

			Convey("Then a second baseline is refused and the first is kept", func() {
				_, err := agg.SaveBaseline(ctx, "fam")
				So(errors.Is(err, ErrBaselineExists), ShouldBeTrue)
				kept, ok, _ := stores.GetBaseline(ctx, "fam")
				So(ok, ShouldBeTrue)
				So(kept.Score.TotalScore, ShouldEqual, 43)
			})
		})
	})
}

func TestWeeklyHistory(t *testing.T) {
	Convey("Given weekly scores recorded over three weeks", t, func() {
		clk := &clock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
		stores := newFakeStores()
		agg, err := NewAggregator(&fakeRatings{}, stores, stores, WithClock(clk.Now))
		So(err, ShouldBeNil)
		ctx := context.Background()

		var weeks []string
		for i := 0; i < 3; i++ {
			ws, err := agg.RecordWeeklyScore(ctx, "fam")
			So(err, ShouldBeNil)
			weeks = append(weeks, ws.WeekID)
			clk.Advance(7 * 24 * time.Hour)
		}

		Convey("Then history is chronological and limited", func() {
			So(weeks, ShouldResemble, []string{"2026-W10", "2026-W11", "2026-W12"})
			all, err := agg.ScoreHistory(ctx, "fam", 0)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 3)
			So(all[0].WeekID, ShouldEqual, "2026-W10")
			last2, err := agg.ScoreHistory(ctx, "fam", 2)
			So(err, ShouldBeNil)
			So(last2[0].WeekID, ShouldEqual, "2026-W11")
			So(last2[1].WeekID, ShouldEqual, "2026-W12")
		})

		Convey("Then recording twice in one week replaces the entry", func() {
			clk.Advance(-7 * 24 * time.Hour)
			_, err := agg.RecordWeeklyScore(ctx, "fam")
			So(err, ShouldBeNil)
			all, _ := agg.ScoreHistory(ctx, "fam", 0)
			So(all, ShouldHaveLength, 3)
		})
	})
}

type mutableHarmony struct {
	mu    sync.Mutex
	level float64
}

func (m *mutableHarmony) set(v float64) {
	m.mu.Lock()
	m.level = v
	m.mu.Unlock()
}

func (m *mutableHarmony) Harmony(context.Context, string) (HarmonyReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return HarmonyReading{Available: true, Level: m.level}, nil
}
