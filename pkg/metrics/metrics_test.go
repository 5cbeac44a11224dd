package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			reg := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(reg))

			Convey("Then collectors are registered under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.RecordComparisonApplied("A")
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "balance_engine_comparisons_applied_total")
			})
		})

		Convey("When creating with custom options", func() {
			reg := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("allie"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(reg),
			)

			Convey("Then the namespace and labels are applied", func() {
				manager.RecordStoreError("update")
				n, err := testutil.GatherAndCount(reg, "allie_test_store_errors_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When empty option values are passed", func() {
			reg := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(reg))

			Convey("Then defaults survive", func() {
				So(manager.namespace, ShouldEqual, "balance")
				So(manager.subsystem, ShouldEqual, "engine")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg))

		Convey("When comparisons are applied and rejected", func() {
			m.RecordComparisonApplied("A")
			m.RecordComparisonApplied("A")
			m.RecordComparisonApplied("Neither")
			m.RecordComparisonRejected("unsupported_outcome")
			m.RecordComparisonDuplicate()
			m.RecordUncoveredResponse()

			Convey("Then counters reflect every call", func() {
				So(testutil.ToFloat64(m.comparisonsApplied.WithLabelValues("A")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.comparisonsApplied.WithLabelValues("Neither")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.comparisonsRejected.WithLabelValues("unsupported_outcome")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.comparisonsDuplicate), ShouldEqual, 1)
				So(testutil.ToFloat64(m.uncoveredResponses), ShouldEqual, 1)
			})
		})

		Convey("When queue and worker gauges are updated", func() {
			m.UpdateQueue(3, 10)
			m.UpdateWorkerCount(4)
			m.RecordWorkerEvent(2.5, true)
			m.RecordWorkerEvent(1, false)

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(m.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(m.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(m.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(m.workerErrors), ShouldEqual, 1)
			})
		})

		Convey("When score cache and fallbacks are recorded", func() {
			m.RecordScoreCache("hit")
			m.RecordScoreCache("miss")
			m.RecordScoreCache("miss")
			m.RecordSubScoreFallback("harmony", "timeout")
			m.RecordScoreCalculation("Growing", 12)

			Convey("Then they are labelled", func() {
				So(testutil.ToFloat64(m.scoreCache.WithLabelValues("miss")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.subScoreFallbacks.WithLabelValues("harmony", "timeout")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.scoreCalculations.WithLabelValues("Growing")), ShouldEqual, 1)
			})
		})
	})
}

func TestPackageLevelRecorders(t *testing.T) {
	Convey("Given the package-level recorders", t, func() {
		Convey("Then none of them panic and the registry is exposed", func() {
			So(func() {
				RecordComparisonApplied("B")
				RecordComparisonRejected("invalid")
				RecordComparisonDuplicate()
				RecordUncoveredResponse()
				RecordRatingUpdateLatency(1)
				RecordStoreError("load")
				RecordStoreConflict()
				RecordScoreCalculation("Thriving", 3)
				RecordScoreCache("hit")
				RecordSubScoreFallback("habits", "error")
				RecordBaselineSaved()
				UpdateQueue(1, 2)
				RecordQueueRejection("full")
				UpdateWorkerCount(2)
				RecordWorkerEvent(1, false)
				RecordHTTPRequest("/healthz", "GET", "200", 0.4)
				UpdateProcess(1024, 8)
				UpdateFamiliesActive(3)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
