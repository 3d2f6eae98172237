// Package metrics defines Prometheus metrics for the masking tools.
//
// Metric naming follows Prometheus conventions:
//   - wa3fecta_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run status labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Clear result labels.
const (
	ClearAccepted = "accepted"
	ClearRejected = "rejected"
	ClearSkipped  = "skipped"
)

//nolint:gochecknoglobals // Prometheus collectors are registered once per process.
var (
	// Registry holds every collector exposed by this project.
	Registry = prometheus.NewRegistry()

	// RecordsScannedTotal counts alarm records read from a source.
	RecordsScannedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wa3fecta_records_scanned_total",
		Help: "Total alarm records read by masking runs.",
	})

	// RecordsSelectedTotal counts records whose state takes part in masking.
	RecordsSelectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wa3fecta_records_selected_total",
		Help: "Total alarm records in RAISED, UPDATED, RETRY or CLEARED state.",
	})

	// GroupsTotal counts (network element, raised time) groups built.
	GroupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wa3fecta_groups_total",
		Help: "Total alarm groups built by masking runs.",
	})

	// MaskedGroupsTotal counts groups holding both a clear and an active state.
	MaskedGroupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wa3fecta_masked_groups_total",
		Help: "Total groups that hold a CLEARED state and an active state.",
	})

	// MaskedRecordsTotal counts records returned by masking runs.
	MaskedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wa3fecta_masked_records_total",
		Help: "Total alarm records returned by masking runs.",
	})

	// SpillsTotal counts runs that moved their working set to disk.
	SpillsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wa3fecta_spills_total",
		Help: "Total masking runs that spilled groups to disk.",
	})

	// RunsTotal counts masking runs by mode and terminal status.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa3fecta_runs_total",
			Help: "Total masking runs by mode and status.",
		},
		[]string{"mode", "status"},
	)

	// RunDurationSeconds is a histogram of masking run duration by mode.
	RunDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wa3fecta_run_duration_seconds",
			Help:    "Duration of masking runs in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	// ClearRequestsTotal counts clear notifications by result.
	ClearRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa3fecta_clear_requests_total",
			Help: "Total clear notifications by result.",
		},
		[]string{"result"},
	)
)

func init() { //nolint:gochecknoinits // Collectors must be registered before first use.
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RecordsScannedTotal,
		RecordsSelectedTotal,
		GroupsTotal,
		MaskedGroupsTotal,
		MaskedRecordsTotal,
		SpillsTotal,
		RunsTotal,
		RunDurationSeconds,
		ClearRequestsTotal,
	)
}

// RunStats is the subset of a masking run reported to Prometheus.
type RunStats struct {
	// Scanned is the number of records read.
	Scanned int
	// Selected is the number of records in a relevant state.
	Selected int
	// Groups is the number of groups built.
	Groups int
	// MaskedGroups is the number of qualifying groups.
	MaskedGroups int
	// Emitted is the number of records returned.
	Emitted int
	// Spilled is true when the run used on-disk groups.
	Spilled bool
}

// RecordRun records the outcome of a masking run.
func RecordRun(mode string, err error, duration time.Duration, stats RunStats) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}

	RunsTotal.WithLabelValues(mode, status).Inc()
	RunDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())

	RecordsScannedTotal.Add(float64(stats.Scanned))
	RecordsSelectedTotal.Add(float64(stats.Selected))

	if err != nil {
		return
	}

	GroupsTotal.Add(float64(stats.Groups))
	MaskedGroupsTotal.Add(float64(stats.MaskedGroups))
	MaskedRecordsTotal.Add(float64(stats.Emitted))

	if stats.Spilled {
		SpillsTotal.Inc()
	}
}

// RecordClear records the result of one clear notification.
func RecordClear(result string) {
	ClearRequestsTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on address until the context is canceled.
func Serve(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}
