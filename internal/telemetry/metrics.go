// Package telemetry holds the Prometheus instruments of the scraper.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsStarted   = prometheus.NewCounter(prometheus.CounterOpts{Name: "leadradar_jobs_started_total", Help: "Scrape jobs started"})
	JobsFinished  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "leadradar_jobs_finished_total", Help: "Scrape jobs finished by terminal status"}, []string{"status"})
	JobsRunning   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "leadradar_jobs_running", Help: "Scrape jobs currently running"})
	LeadsSaved    = prometheus.NewCounter(prometheus.CounterOpts{Name: "leadradar_leads_saved_total", Help: "Leads persisted"})
	LeadsSkipped  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "leadradar_leads_skipped_total", Help: "Businesses not persisted, by reason"}, []string{"reason"})
	ScrapeErrors  = prometheus.NewCounter(prometheus.CounterOpts{Name: "leadradar_scrape_errors_total", Help: "Errors recorded on jobs"})
	SocialResolve = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "leadradar_social_resolved_total", Help: "Instagram profiles found, by discovery layer"}, []string{"layer"})
)

// Skip reasons.
const (
	SkipDuplicate  = "duplicate"
	SkipKnownBrand = "known_brand"
)

// Register adds the instruments to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			JobsStarted,
			JobsFinished,
			JobsRunning,
			LeadsSaved,
			LeadsSkipped,
			ScrapeErrors,
			SocialResolve,
		)
	})
}

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
