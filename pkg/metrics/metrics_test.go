package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecorder(t *testing.T) {
	Convey("Given a recorder on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		r := New(WithRegistry(reg), WithNamespace("test"))

		Convey("When awards are recorded", func() {
			r.Award(ReasonCompletion, 20)
			r.Award(ReasonQuiz, 15)
			r.Award(ReasonQuiz, 30)

			Convey("Then points and counts are tracked per reason", func() {
				So(testutil.ToFloat64(r.pointsAwarded.WithLabelValues(ReasonQuiz)), ShouldEqual, 45)
				So(testutil.ToFloat64(r.awards.WithLabelValues(ReasonQuiz)), ShouldEqual, 2)
				So(testutil.ToFloat64(r.pointsAwarded.WithLabelValues(ReasonCompletion)), ShouldEqual, 20)
			})
		})

		Convey("When HTTP requests are observed", func() {
			r.ObserveHTTP("/api/progress", http.MethodPost, 200, 12*time.Millisecond)

			Convey("Then the scrape endpoint exposes them", func() {
				rec := httptest.NewRecorder()
				r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(rec.Body.String(), "test_http_requests_total"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a nil recorder", t, func() {
		var r *Recorder

		Convey("Then recording is a no-op", func() {
			So(func() {
				r.Award(ReasonManual, 1)
				r.BookCompleted()
				r.QuizSubmitted()
				r.TxConflict()
				r.TxExhausted()
				r.CacheLookup("hit")
				r.LeaderboardRead()
				r.ObserveHTTP("/", http.MethodGet, 200, time.Millisecond)
			}, ShouldNotPanic)
			So(r.Registry(), ShouldBeNil)
		})
	})
}
