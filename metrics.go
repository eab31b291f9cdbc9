package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RGAMetrics struct {
	Replica *ReplicaMetrics
}

type ReplicaMetrics struct {
	Inserts  metrics.Counter
	Deletes  metrics.Counter
	Updates  metrics.Counter
	Applied  metrics.Counter
	Buffered metrics.Counter
}

func NewRGAMetrics(replicaAddr string) *RGAMetrics {

	m := &RGAMetrics{}

	if replicaAddr == "" {
		m.Replica = &ReplicaMetrics{
			Inserts:  discard.NewCounter(),
			Deletes:  discard.NewCounter(),
			Updates:  discard.NewCounter(),
			Applied:  discard.NewCounter(),
			Buffered: discard.NewCounter(),
		}
	} else {
		m.Replica = &ReplicaMetrics{
			Inserts: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "rga",
				Subsystem: "replica",
				Name:      "inserts_total",
				Help:      "Number of local inserts",
			}, nil),
			Deletes: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "rga",
				Subsystem: "replica",
				Name:      "deletes_total",
				Help:      "Number of local deletes",
			}, nil),
			Updates: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "rga",
				Subsystem: "replica",
				Name:      "updates_total",
				Help:      "Number of local updates",
			}, nil),
			Applied: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "rga",
				Subsystem: "replica",
				Name:      "applied_total",
				Help:      "Number of remote operations applied on arrival",
			}, nil),
			Buffered: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "rga",
				Subsystem: "replica",
				Name:      "buffered_total",
				Help:      "Number of remote operations held back in the causal buffer",
			}, nil),
		}
	}

	return m
}

func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	http.Handle("/metrics", promhttp.Handler())

	level.Info(logger).Log("msg", "prometheus handler listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		level.Warn(logger).Log("msg", "failed to serve prometheus metrics", "err", err)
	}
}
