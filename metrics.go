package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fertiplan/nutrient"
)

type metrics struct {
	reg      *prometheus.Registry
	advice   *prometheus.CounterVec
	rejected *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		advice: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fertiplan",
			Name:      "advice_levels_total",
			Help:      "Final nutrient levels produced by the rule engine.",
		}, []string{"crop", "nutrient", "level"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fertiplan",
			Name:      "advice_rejected_total",
			Help:      "Advice requests rejected, by error kind and field.",
		}, []string{"kind", "field"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fertiplan",
			Name:      "dataset_rows_total",
			Help:      "Synthetic labeled rows generated.",
		}, []string{"crop"}),
	}
	m.reg.MustRegister(
		m.advice, m.rejected, m.rows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeAdvice(crop nutrient.Crop, lv nutrient.Levels) {
	for _, n := range nutrient.Nutrients {
		m.advice.WithLabelValues(crop.String(), n.String(), lv.Get(n).String()).Inc()
	}
}

func (m *metrics) observeRejected(kind, field string) {
	m.rejected.WithLabelValues(kind, field).Inc()
}

func (m *metrics) observeRows(crop nutrient.Crop, n int) {
	m.rows.WithLabelValues(crop.String()).Add(float64(n))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
