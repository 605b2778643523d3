// Package metrics exposes prometheus counters for submissions, grading and logins.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/douaaea/schoolhub/core/identity"
)

const namespace = "schoolhub"

type Recorder struct {
	registry    *prometheus.Registry
	steps       *prometheus.CounterVec
	submissions *prometheus.CounterVec
	grades      *prometheus.CounterVec
	logins      *prometheus.CounterVec
	dbPing      prometheus.Histogram
}

// NewRecorder registers its collectors, plus the go and process collectors, on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "submission_steps_total", Help: "Submission steps by step and result",
		}, []string{"step", "result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "submissions_total", Help: "Submissions by outcome",
		}, []string{"outcome"}),
		grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "grade_upserts_total", Help: "Grade ledger writes by path and outcome",
		}, []string{"path", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "logins_total", Help: "Login attempts by resolved role",
		}, []string{"role"}),
		dbPing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.registry.MustRegister(
		r.steps, r.submissions, r.grades, r.logins, r.dbPing,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStep has the signature of a submission step observer.
func (r *Recorder) ObserveStep(step string, err error) {
	r.steps.WithLabelValues(step, result(err)).Inc()
}

func (r *Recorder) Submission(outcome string) {
	r.submissions.WithLabelValues(outcome).Inc()
}

// Grading paths.
const (
	PathLedger     = "ledger"
	PathWorkReturn = "work-return"
)

// GradeUpsert counts a ledger write made through path, by outcome (created, updated).
func (r *Recorder) GradeUpsert(path, outcome string) {
	r.grades.WithLabelValues(path, outcome).Inc()
}

// Login counts a login attempt. Failed attempts are counted under "none".
func (r *Recorder) Login(role identity.Kind) {
	if role == "" {
		role = "none"
	}
	r.logins.WithLabelValues(string(role)).Inc()
}

func (r *Recorder) ObserveDBPing(d time.Duration) {
	r.dbPing.Observe(d.Seconds())
}
