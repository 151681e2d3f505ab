package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	syncRuns        *prometheus.CounterVec   // reconcile passes per interface
	syncDuration    *prometheus.HistogramVec // time to reconcile an interface
	dnsOperations   *prometheus.CounterVec   // per record outcomes
	dnsRequests     *prometheus.CounterVec   // dns provider requests
	recordInSync    *prometheus.GaugeVec     // 1 when upstream matches local
	historyRequests *prometheus.CounterVec   // badgerdb requests
}

// Public interface for metrics operations
func (m *Metrics) IncSyncRun(iface string, success bool) {
	status := boolToResult(success)
	m.syncRuns.WithLabelValues(iface, status).Inc()
}

func (m *Metrics) ObserveSyncDuration(iface string, duration time.Duration) {
	m.syncDuration.WithLabelValues(iface).Observe(duration.Seconds())
}

func (m *Metrics) IncDNSOperation(operation, zone, recordType string) {
	if !isValidOperation(operation) || !isValidRecordType(recordType) || zone == "" {
		return
	}
	m.dnsOperations.WithLabelValues(operation, zone, recordType).Inc()
}

func (m *Metrics) IncDNSRequest(operation, zone string, success bool) {
	if !isValidRequest(operation) || zone == "" {
		return
	}
	status := boolToResult(success)
	m.dnsRequests.WithLabelValues(operation, zone, status).Inc()
}

func (m *Metrics) SetRecordInSync(zone, name, recordType string, inSync bool) {
	if !isValidRecordType(recordType) {
		return
	}
	v := 0.0
	if inSync {
		v = 1
	}
	m.recordInSync.WithLabelValues(zone, name, recordType).Set(v)
}

func (m *Metrics) IncHistoryRequest(operation string, success bool) {
	if !isValidRequest(operation) {
		return
	}
	status := boolToResult(success)
	m.historyRequests.WithLabelValues(operation, status).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "lookup", "create", "update", "noop", "skip", "fail":
		return true
	}
	return false
}

func isValidRequest(op string) bool {
	switch op {
	case "create", "read", "update", "delete":
		return true
	}
	return false
}

func isValidRecordType(rt string) bool {
	switch rt {
	case "A", "AAAA":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "cfdns"

	m := &Metrics{
		registry: registry,

		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of reconcile passes",
		}, []string{"interface", "status"}),

		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of reconcile passes in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"interface"}),

		dnsOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_operations_total",
			Help:      "Total DNS record outcomes decided by reconciliation",
		}, []string{"operation", "zone", "type"}),

		dnsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_requests_total",
			Help:      "Total DNS provider requests",
		}, []string{"operation", "zone", "status"}),

		recordInSync: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "record_in_sync",
			Help:      "Whether the upstream record matches the local address",
		}, []string{"zone", "name", "type"}),

		historyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_requests_total",
			Help:      "Total history journal requests",
		}, []string{"operation", "status"}),
	}

	if register {
		registry.MustRegister(
			m.syncRuns,
			m.syncDuration,
			m.dnsOperations,
			m.dnsRequests,
			m.recordInSync,
			m.historyRequests,
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
