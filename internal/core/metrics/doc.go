// Package metrics 提供名称服务的 Prometheus 指标
//
// 所有指标注册在独立的 prometheus.Registry 上，命名空间为 wins：
//
//	wins_requests_total{op,result}
//	wins_challenges_pending
//	wins_challenges_total{verdict}
//	wins_sweep_transitions_total{transition}
//	wins_sweep_duration_seconds
//	wins_dns_lookups_total{result}
package metrics
