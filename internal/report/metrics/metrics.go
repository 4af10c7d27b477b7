package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the report lifecycle counters.
type Metrics struct {
	ReportsCreated          prometheus.Counter
	Endorsements            prometheus.Counter
	ResolutionConfirmations prometheus.Counter
	ProximityRejections     prometheus.Counter
	AdminStatusOverrides    prometheus.Counter
}

// New creates and registers the report metrics.
func New() *Metrics {
	return &Metrics{
		ReportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reclama_reports_created_total",
			Help: "Total number of reports created",
		}),
		Endorsements: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reclama_report_endorsements_total",
			Help: "Total number of accepted endorsements",
		}),
		ResolutionConfirmations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reclama_report_resolution_confirmations_total",
			Help: "Total number of accepted resolution confirmations",
		}),
		ProximityRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reclama_report_proximity_rejections_total",
			Help: "Total number of endorse/confirm calls rejected by the distance gate",
		}),
		AdminStatusOverrides: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reclama_report_admin_status_overrides_total",
			Help: "Total number of admin status overrides",
		}),
	}
}

func (m *Metrics) IncrementReportsCreated()          { m.ReportsCreated.Inc() }
func (m *Metrics) IncrementEndorsements()            { m.Endorsements.Inc() }
func (m *Metrics) IncrementResolutionConfirmations() { m.ResolutionConfirmations.Inc() }
func (m *Metrics) IncrementProximityRejections()     { m.ProximityRejections.Inc() }
func (m *Metrics) IncrementAdminStatusOverrides()    { m.AdminStatusOverrides.Inc() }
