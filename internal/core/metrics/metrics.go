package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const namespace = "wins"

// Metrics 名称服务指标集合
type Metrics struct {
	Requests          *prometheus.CounterVec
	ChallengesPending prometheus.Gauge
	Challenges        *prometheus.CounterVec
	SweepTransitions  *prometheus.CounterVec
	SweepDuration     prometheus.Histogram
	DNSLookups        *prometheus.CounterVec
}

// New 创建指标并注册到 reg
//
// reg 为 nil 时只创建不注册，用于测试。
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Name service requests by operation and result code.",
		}, []string{"op", "result"}),
		ChallengesPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "challenges_pending",
			Help:      "Ownership challenges waiting for the previous owner.",
		}),
		Challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_total",
			Help:      "Resolved ownership challenges by verdict.",
		}, []string{"verdict"}),
		SweepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_transitions_total",
			Help:      "Record lifecycle transitions applied by the sweeper.",
		}, []string{"transition"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full sweep pass.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		DNSLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_lookups_total",
			Help:      "DNS fallback lookups by result.",
		}, []string{"result"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	for _, c := range m.collectors() {
		err = multierr.Append(err, reg.Register(c))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.ChallengesPending,
		m.Challenges,
		m.SweepTransitions,
		m.SweepDuration,
		m.DNSLookups,
	}
}

// ObserveRequest 记录一次请求结果
func (m *Metrics) ObserveRequest(op, result string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(op, result).Inc()
}

// ObserveChallenge 记录一次质询结果
func (m *Metrics) ObserveChallenge(verdict string) {
	if m == nil {
		return
	}
	m.Challenges.WithLabelValues(verdict).Inc()
}

// SetPending 设置挂起质询数
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.ChallengesPending.Set(float64(n))
}

// ObserveTransition 记录一次生命周期迁移
func (m *Metrics) ObserveTransition(transition string) {
	if m == nil {
		return
	}
	m.SweepTransitions.WithLabelValues(transition).Inc()
}

// ObserveSweep 记录一次清扫耗时（秒）
func (m *Metrics) ObserveSweep(seconds float64) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(seconds)
}

// ObserveDNS 记录一次 DNS 回退结果
func (m *Metrics) ObserveDNS(result string) {
	if m == nil {
		return
	}
	m.DNSLookups.WithLabelValues(result).Inc()
}
