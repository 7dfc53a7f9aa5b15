package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the assessment core.
type Metrics struct {
	AreasSubmitted          prometheus.Counter
	ReworksRequested        prometheus.Counter
	AreasApproved           prometheus.Counter
	CalibrationsRequested   prometheus.Counter
	RecalibrationsRequested prometheus.Counter
	AssessmentsCompleted    prometheus.Counter
	GuardDenials            *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AreasSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sglgb_areas_submitted_total",
			Help: "Total number of governance area submissions (first and resubmissions)",
		}),
		ReworksRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sglgb_reworks_requested_total",
			Help: "Total number of assessor rework requests",
		}),
		AreasApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sglgb_areas_approved_total",
			Help: "Total number of governance areas approved",
		}),
		CalibrationsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sglgb_calibrations_requested_total",
			Help: "Total number of validator calibration requests",
		}),
		RecalibrationsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sglgb_recalibrations_requested_total",
			Help: "Total number of admin recalibration requests",
		}),
		AssessmentsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sglgb_assessments_completed_total",
			Help: "Total number of assessments reaching the Completed state",
		}),
		GuardDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sglgb_guard_denials_total",
			Help: "Workflow guard denials by error code",
		}, []string{"code"}),
	}
}
