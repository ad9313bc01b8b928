package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dashlink"

// Priming sources.
const (
	SourceUpstream = "upstream"
	SourceCache    = "cache"
)

// Metrics holds the collectors for one engine instance.
type Metrics struct {
	// Resolver
	resolveTotal    *prometheus.CounterVec   // By filter_type and outcome
	resolveDuration *prometheus.HistogramVec // By filter_type
	remoteCalls     *prometheus.CounterVec   // By operation and outcome

	// Multiplexer
	upstreamSubscriptions prometheus.Gauge
	localSubscribers      prometheus.Gauge
	framesApplied         *prometheus.CounterVec // By scope
	primingTotal          *prometheus.CounterVec // By source (upstream/cache) and outcome

	// Channel
	channelCommands *prometheus.CounterVec // By family and action
	channelUpdates  *prometheus.CounterVec // By status (ok/error/unrouted)
	channelRedials  *prometheus.CounterVec // By outcome
}

// New creates the collectors and registers them with reg. A nil reg
// returns nil metrics, which disables recording.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of alias filter resolutions",
		}, []string{"filter_type", "outcome"}), // outcome: ok, empty, malformed, failed

		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Alias filter resolution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"filter_type"}),

		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "remote_calls_total",
			Help:      "Total number of remote service calls issued by the resolver",
		}, []string{"operation", "outcome"}),

		upstreamSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "multiplexer",
			Name:      "upstream_subscriptions",
			Help:      "Number of open upstream attribute subscriptions",
		}),

		localSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "multiplexer",
			Name:      "local_subscribers",
			Help:      "Number of local subscribers across all upstream subscriptions",
		}),

		framesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "multiplexer",
			Name:      "frames_applied_total",
			Help:      "Total number of push frames merged into value tables",
		}, []string{"scope"}),

		primingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "multiplexer",
			Name:      "priming_total",
			Help:      "Total number of priming fetches",
		}, []string{"source", "outcome"}),

		channelCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "commands_total",
			Help:      "Total number of subscription commands sent on the push channel",
		}, []string{"family", "action"}), // action: subscribe, unsubscribe

		channelUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "updates_total",
			Help:      "Total number of updates received on the push channel",
		}, []string{"status"}), // status: ok, error, unrouted

		channelRedials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "redials_total",
			Help:      "Total number of push channel redial attempts",
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		m.resolveTotal,
		m.resolveDuration,
		m.remoteCalls,
		m.upstreamSubscriptions,
		m.localSubscribers,
		m.framesApplied,
		m.primingTotal,
		m.channelCommands,
		m.channelUpdates,
		m.channelRedials,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordResolve records a completed resolution.
func (m *Metrics) RecordResolve(filterType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.resolveTotal.WithLabelValues(filterType, outcome).Inc()
	m.resolveDuration.WithLabelValues(filterType).Observe(d.Seconds())
}

// RecordRemoteCall records one remote service call.
func (m *Metrics) RecordRemoteCall(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.remoteCalls.WithLabelValues(op, outcome).Inc()
}

// UpstreamOpened increments the open upstream subscription gauge.
func (m *Metrics) UpstreamOpened() {
	if m == nil {
		return
	}
	m.upstreamSubscriptions.Inc()
}

// UpstreamClosed decrements the open upstream subscription gauge.
func (m *Metrics) UpstreamClosed() {
	if m == nil {
		return
	}
	m.upstreamSubscriptions.Dec()
}

// SubscriberAdded increments the local subscriber gauge.
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.localSubscribers.Inc()
}

// SubscriberRemoved decrements the local subscriber gauge.
func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.localSubscribers.Dec()
}

// RecordFrame records a push frame merged for scope.
func (m *Metrics) RecordFrame(scope string) {
	if m == nil {
		return
	}
	m.framesApplied.WithLabelValues(scope).Inc()
}

// RecordPriming records a priming fetch.
func (m *Metrics) RecordPriming(source string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.primingTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCommand records a push-channel command.
func (m *Metrics) RecordCommand(family string, unsubscribe bool) {
	if m == nil {
		return
	}
	action := "subscribe"
	if unsubscribe {
		action = "unsubscribe"
	}
	m.channelCommands.WithLabelValues(family, action).Inc()
}

// RecordUpdate records an update received on the push channel.
func (m *Metrics) RecordUpdate(status string) {
	if m == nil {
		return
	}
	m.channelUpdates.WithLabelValues(status).Inc()
}

// RecordRedial records one attempt to re-establish the push channel.
func (m *Metrics) RecordRedial(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.channelRedials.WithLabelValues(outcome).Inc()
}
