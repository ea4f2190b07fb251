package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Result metrics 模块提供的结果
type Result struct {
	fx.Out

	Registry   *prometheus.Registry
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Metrics    *Metrics
}

// Module 返回 metrics Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}

// ProvideMetrics 创建独立注册表并注册全部指标
func ProvideMetrics() (Result, error) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Registry:   reg,
		Registerer: reg,
		Gatherer:   reg,
		Metrics:    m,
	}, nil
}
