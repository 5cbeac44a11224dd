package signals_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/signals"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/balance"
)

func newServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /families/fam/cognitive-load", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"people":[{"personId":"p1","name":"Mama","anticipation":4,"monitoring":2,"execution":3},{"personId":"p2","name":"Papa","anticipation":1,"monitoring":1,"execution":5}]}`))
	})
	mux.HandleFunc("GET /families/fam/harmony", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"harmonyLevel":0,"stressIndicators":2,"cascadeRisk":"Medium","trend":"down"}`))
	})
	mux.HandleFunc("GET /families/new/harmony", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"stressIndicators":0}`))
	})
	mux.HandleFunc("GET /families/fam/habit-cycle", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"habits":[{"name":"meal plan","targetFrequency":5,"completionCount":4,"active":true}]}`))
	})
	mux.HandleFunc("GET /families/broken/habit-cycle", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("GET /families/garbled/habit-cycle", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"habits":`))
	})
	mux.HandleFunc("GET /families/slow/cognitive-load", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	return httptest.NewServer(mux)
}

func TestClient(t *testing.T) {
	Convey("Given a client for a signal service", t, func() {
		srv := newServer()
		defer srv.Close()
		client, err := signals.NewClient(srv.URL+"/", signals.WithTimeout(50*time.Millisecond))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When cognitive load is fetched", func() {
			people, err := client.CognitiveLoad(ctx, "fam")

			Convey("Then each person is decoded", func() {
				So(err, ShouldBeNil)
				So(people, ShouldHaveLength, 2)
				So(people[0].Name, ShouldEqual, "Mama")
				So(people[0].Anticipation, ShouldEqual, 4)
			})
		})

		Convey("When harmony reports a level of zero", func() {
			h, err := client.Harmony(ctx, "fam")

			Convey("Then it is an available reading", func() {
				So(err, ShouldBeNil)
				So(h.Available, ShouldBeTrue)
				So(h.Level, ShouldEqual, 0)
				So(h.CascadeRisk, ShouldEqual, "Medium")
			})
		})

		Convey("When harmony has no level yet", func() {
			h, err := client.Harmony(ctx, "new")
			So(err, ShouldBeNil)
			So(h.Available, ShouldBeFalse)
		})

		Convey("When the family is unknown to the service", func() {
			habits, err := client.ActiveHabits(ctx, "nobody")
			So(err, ShouldBeNil)
			So(habits, ShouldBeEmpty)
		})

		Convey("When habits are fetched", func() {
			habits, err := client.ActiveHabits(ctx, "fam")
			So(err, ShouldBeNil)
			So(habits, ShouldHaveLength, 1)
			So(habits[0].CompletionCount, ShouldEqual, 4)
		})

		Convey("When the service fails", func() {
			_, err := client.ActiveHabits(ctx, "broken")
			So(errors.Is(err, signals.ErrUpstream), ShouldBeTrue)
		})

		Convey("When the service returns malformed JSON", func() {
			_, err := client.ActiveHabits(ctx, "garbled")
			So(errors.Is(err, signals.ErrDecode), ShouldBeTrue)
		})

		Convey("When the service is slower than the timeout", func() {
			_, err := client.CognitiveLoad(ctx, "slow")
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given an empty base URL", t, func() {
		_, err := signals.NewClient(" ")
		So(errors.Is(err, signals.ErrMissingBaseURL), ShouldBeTrue)
	})
}

func TestStatic(t *testing.T) {
	Convey("Given a static source feeding the aggregator", t, func() {
		src := signals.NewStatic()
		src.SetCognitiveLoad("fam", []balance.PersonLoad{{Name: "A", Execution: 6}, {Name: "B", Execution: 4}})
		src.SetHarmony("fam", balance.HarmonyReading{Available: true, Level: 90})
		src.SetHabits("fam", []balance.Habit{{TargetFrequency: 10, CompletionCount: 5}})
		ctx := context.Background()

		people, _ := src.CognitiveLoad(ctx, "fam")
		score, _ := balance.MentalLoadScore(people)
		So(score, ShouldEqual, 80)

		h, _ := src.Harmony(ctx, "fam")
		hs, _ := balance.HarmonyScore(h)
		So(hs, ShouldEqual, 90)

		habits, _ := src.ActiveHabits(ctx, "fam")
		hb, _ := balance.HabitScore(habits)
		So(hb, ShouldEqual, 50)

		Convey("Then unknown families have no data", func() {
			h, err := src.Harmony(ctx, "other")
			So(err, ShouldBeNil)
			So(h.Available, ShouldBeFalse)
		})
	})
}
