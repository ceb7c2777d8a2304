// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps prometheus.Registerer with named
// counter/gauge/histogram constructors, grounded on the teacher's
// metrics/metrics.go. No other dicemesh package constructs a Registry;
// the consensus and network components register no metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is a namespaced prometheus registerer.
type Registry struct {
	namespace  string
	registerer prometheus.Registerer
}

// New wraps reg under namespace (e.g. "dicemesh_consensus",
// "dicemesh_network").
func New(namespace string, reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Registry{namespace: namespace, registerer: reg}
}

func (r *Registry) Counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      name,
		Help:      help,
	})
	_ = r.registerer.Register(c)
	return c
}

func (r *Registry) CounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	_ = r.registerer.Register(c)
	return c
}

func (r *Registry) Gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      name,
		Help:      help,
	})
	_ = r.registerer.Register(g)
	return g
}

func (r *Registry) GaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	_ = r.registerer.Register(g)
	return g
}

func (r *Registry) Histogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	_ = r.registerer.Register(h)
	return h
}
