package procmem

import "github.com/prometheus/client_golang/prometheus"

// sessionMetrics is a per-Session Prometheus registry (SPEC_FULL.md §3/§4)
// so multiple Sessions in one process don't collide on metric names. No
// HTTP handler is started automatically — callers who want one wire
// promhttp.HandlerFor(session.Registry(), ...) themselves.
type sessionMetrics struct {
	registry *prometheus.Registry

	attaches      prometheus.Counter
	bytesRead     prometheus.Counter
	bytesWritten  prometheus.Counter
	regionsWalked prometheus.Counter
	matchesFound  prometheus.Counter
	cavesInstalled prometheus.Counter
	cavesFreed    prometheus.Counter
}

func newSessionMetrics() *sessionMetrics {
	reg := prometheus.NewRegistry()
	m := &sessionMetrics{
		registry: reg,
		attaches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmem_attaches_total",
			Help: "Number of successful Session.Attach calls.",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmem_bytes_read_total",
			Help: "Total bytes read from the foreign process.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmem_bytes_written_total",
			Help: "Total bytes written to the foreign process.",
		}),
		regionsWalked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmem_regions_walked_total",
			Help: "Total memory regions visited by the signature scanner and placement engine.",
		}),
		matchesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmem_scan_matches_total",
			Help: "Total signature matches returned by ScanMemory.",
		}),
		cavesInstalled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmem_caves_installed_total",
			Help: "Total code caves successfully installed.",
		}),
		cavesFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procmem_caves_freed_total",
			Help: "Total code caves freed.",
		}),
	}
	reg.MustRegister(
		m.attaches, m.bytesRead, m.bytesWritten,
		m.regionsWalked, m.matchesFound, m.cavesInstalled, m.cavesFreed,
	)
	return m
}

// Registry exposes the Session's Prometheus registry for callers that want
// to serve /metrics themselves.
func (s *Session) Registry() *prometheus.Registry { return s.metrics.registry }
