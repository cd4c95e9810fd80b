package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with empty or nil option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should fill in", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then its registry should be gatherable", func() {
			registry := GetRegistry()
			So(registry, ShouldNotBeNil)
			_, err := registry.Gather()
			So(err, ShouldBeNil)
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the package-level recorders", t, func() {
		Convey("When recording ingest metrics", func() {
			So(func() {
				RecordObservationIngested()
				RecordObservationDuplicate()
				RecordObservationRejected()
			}, ShouldNotPanic)
		})

		Convey("When recording queue metrics", func() {
			So(func() {
				UpdateQueueSize(1000)
				UpdateQueueCapacity(10000)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueueError()
			}, ShouldNotPanic)
		})

		Convey("When recording worker metrics", func() {
			So(func() {
				UpdateWorkerActive(4)
				RecordWorkerProcessingLatency(12.5)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording store metrics", func() {
			So(func() {
				UpdateStoreObservations(500)
				RecordStoreError()
			}, ShouldNotPanic)
		})

		Convey("When recording scoreboard metrics", func() {
			So(func() {
				RecordScoreboardRebuild(35.0)
				UpdateScoreboardParticipants(120)
				UpdateScoreboardAge(1.5)
				RecordTrophyEvalDuration(8.0)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/leaderboard", "GET", "200")
				RecordHTTPRequest("/observations", "POST", "202")
				RecordHTTPRequestDuration("/leaderboard", "GET", 5.0)
			}, ShouldNotPanic)
		})

		Convey("When recording with edge values", func() {
			So(func() {
				UpdateQueueSize(0)
				UpdateQueueSize(-10)
				UpdateScoreboardParticipants(0)
				RecordWorkerProcessingLatency(0)
				RecordHTTPRequest("", "", "")
			}, ShouldNotPanic)
		})
	})
}

func TestConcurrentRecording(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		done := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordObservationIngested()
					UpdateQueueSize(j)
					RecordWorkerProcessingLatency(float64(j))
					RecordHTTPRequest("/leaderboard", "GET", "200")
				}
				done <- true
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		Convey("Then no panics should occur", func() {
			So(true, ShouldBeTrue)
		})
	})
}
