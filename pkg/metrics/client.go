/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics defines the Client boundary compute_from_metrics()
// reads from (SPEC_FULL.md §4.E) and the Prometheus-backed implementation
// and reconcile-loop instrumentation this repo ships.
package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Client reports the current average value of a named resource metric
// across the pods selected by selector. The returned value is already the
// per-pod mean; the HPA algorithm uses it as is.
type Client interface {
	CurrentValue(ctx context.Context, metricName string, selector map[string]string) (float64, error)
}

// PrometheusClient reads gauges pushed by the node agent's per-pod
// resource reporting into an in-memory registry, per SPEC_FULL.md §4.E —
// this repo does not integrate a real cAdvisor/metrics-server, only the
// interface boundary and a sufficient concrete backend. It is
// process-local: cmd/nodeagent and cmd/controller-manager each construct
// their own instance, so the HPA's CurrentValue reads are only live when
// both controllers run in the same process (see DESIGN.md).
type PrometheusClient struct {
	mu     sync.RWMutex
	values map[string]map[string]float64 // metricName -> podName -> value
}

// NewPrometheusClient builds an empty PrometheusClient; call Report as the
// node agent's pod status updates arrive.
func NewPrometheusClient() *PrometheusClient {
	return &PrometheusClient{values: make(map[string]map[string]float64)}
}

// Report records the latest observed value of metricName for podName.
// Values are keyed by pod name only; no pod labels are stored.
func (c *PrometheusClient) Report(metricName, podName string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values[metricName] == nil {
		c.values[metricName] = make(map[string]float64)
	}
	c.values[metricName][podName] = value
}

// CurrentValue returns the mean of every reported pod value for
// metricName. selector is unused by this in-memory backend (callers
// already scope which pods report), reserved for a richer implementation.
func (c *PrometheusClient) CurrentValue(_ context.Context, metricName string, _ map[string]string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byPod, ok := c.values[metricName]
	if !ok || len(byPod) == 0 {
		return 0, fmt.Errorf("no samples reported for metric %q", metricName)
	}
	var sum float64
	for _, v := range byPod {
		sum += v
	}
	return sum / float64(len(byPod)), nil
}

// ReconcileMetrics are the per-controller counters/histograms every
// reconcile loop in this repo registers against, served by each binary's
// /metrics endpoint.
type ReconcileMetrics struct {
	Reconciles *prometheus.CounterVec
	Errors     *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewReconcileMetrics registers a ReconcileMetrics set under controller
// name against registry.
func NewReconcileMetrics(registry prometheus.Registerer, controller string) *ReconcileMetrics {
	m := &ReconcileMetrics{
		Reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minik8s",
			Subsystem: controller,
			Name:      "reconciles_total",
			Help:      "Total reconcile attempts.",
		}, nil),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minik8s",
			Subsystem: controller,
			Name:      "reconcile_errors_total",
			Help:      "Total reconcile attempts that returned an error.",
		}, nil),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "minik8s",
			Subsystem: controller,
			Name:      "reconcile_duration_seconds",
			Help:      "Reconcile latency.",
			Buckets:   prometheus.DefBuckets,
		}, nil),
	}
	registry.MustRegister(m.Reconciles, m.Errors, m.Duration)
	return m
}
