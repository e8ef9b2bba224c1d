// Package metrics records pipeline and dev-server metrics with Prometheus.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

const namespace = "press"

var _ ports.Metrics = (*Recorder)(nil)

// Recorder implements ports.Metrics using Prometheus collectors.
type Recorder struct {
	reg           *prom.Registry
	taskDuration  *prom.HistogramVec
	taskResults   *prom.CounterVec
	rebuilds      *prom.CounterVec
	rebuildTime   *prom.HistogramVec
	serverState   *prom.GaugeVec
	reloadClients prom.Gauge
}

// NewRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry with the Go and process collectors.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}

	r := &Recorder{
		reg: reg,
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of task bodies",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Task results by final status",
		}, []string{"task", "status"}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Watch-triggered rebuilds by rule category and outcome",
		}, []string{"category", "result"}),
		rebuildTime: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of watch-triggered rebuilds",
			Buckets:   prom.DefBuckets,
		}, []string{"category"}),
		serverState: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "server_state",
			Help:      "Current dev-server state, 1 for the active state",
		}, []string{"state"}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "reload_clients",
			Help:      "Connected live-reload clients",
		}),
	}

	reg.MustRegister(r.taskDuration, r.taskResults, r.rebuilds, r.rebuildTime, r.serverState, r.reloadClients)
	return r
}

// ObserveTask records a finished task. Statuses that are not terminal are ignored.
func (r *Recorder) ObserveTask(task string, d time.Duration, status domain.TaskStatus) {
	if !status.IsTerminal() {
		return
	}
	if status != domain.TaskStatusSkipped {
		r.taskDuration.WithLabelValues(task).Observe(d.Seconds())
	}
	r.taskResults.WithLabelValues(task, string(status)).Inc()
}

// ObserveRebuild records the rebuild run by a watch rule of the given category.
func (r *Recorder) ObserveRebuild(category domain.Category, d time.Duration, ok bool) {
	result := "failed"
	if ok {
		result = "success"
	}
	r.rebuilds.WithLabelValues(string(category), result).Inc()
	r.rebuildTime.WithLabelValues(string(category)).Observe(d.Seconds())
}

// SetServerState marks state as the active server state.
func (r *Recorder) SetServerState(state domain.ServerState) {
	for _, s := range []domain.ServerState{domain.StateIdle, domain.StateServing, domain.StateRebuilding} {
		v := 0.0
		if s == state {
			v = 1
		}
		r.serverState.WithLabelValues(s.String()).Set(v)
	}
}

// SetReloadClients records the number of connected live-reload clients.
func (r *Recorder) SetReloadClients(n int) {
	r.reloadClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
