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

package nodeagent

import (
	"context"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
	"github.com/minik8s/controlplane/pkg/container"
	"github.com/minik8s/controlplane/pkg/informer"
	"github.com/minik8s/controlplane/pkg/metrics"
	"github.com/minik8s/controlplane/pkg/queue"
)

// MetricsReporter is the node agent's push side of pkg/metrics.Client; a
// *metrics.PrometheusClient satisfies it. Kept as a local interface so this
// package depends on the method it needs, not the concrete backend.
type MetricsReporter interface {
	Report(metricName, podName string, value float64)
}

// Controller reconciles every pod assigned to nodeName against runtime,
// the node agent's half of spec.md §4 (the other half, Node lease renewal,
// is runHeartbeat).
type Controller struct {
	client   *client.Client
	runtime  container.Runtime
	nodeName string
	podStore *informer.Store
	queue    queue.RateLimiting
	reporter MetricsReporter
	metrics  *metrics.ReconcileMetrics
	log      *zap.SugaredLogger
}

// NewController wires a Controller over an already-running pod informer.
// reporter may be nil, in which case resource usage is never pushed. rm may
// be nil, in which case reconciles are unobserved.
func NewController(c *client.Client, rt container.Runtime, nodeName string, podStore *informer.Store, reporter MetricsReporter, rm *metrics.ReconcileMetrics, log *zap.SugaredLogger) *Controller {
	return &Controller{
		client:   c,
		runtime:  rt,
		nodeName: nodeName,
		podStore: podStore,
		queue:    queue.NewRateLimiting("nodeagent"),
		reporter: reporter,
		metrics:  rm,
		log:      log,
	}
}

// HandlePodEvent enqueues every add/update/delete so sync can decide
// whether the pod belongs to this node and, if so, reconcile or tear it
// down; unassigned pods are cheap no-ops in sync.
func (c *Controller) HandlePodEvent(obj *v1alpha1.KubeObject) {
	if obj.Resource.Pod == nil {
		return
	}
	c.queue.Add(obj.Key())
}

// Run starts the heartbeat and n reconcile workers on their own goroutines
// and returns; they stop when ctx is cancelled.
func (c *Controller) Run(ctx context.Context, workers int) {
	go runHeartbeat(ctx, c.client, c.nodeName, c.log)
	queue.RunWorkers(ctx, c.queue, workers, c.log, c.sync)
}

func (c *Controller) sync(ctx context.Context, key string) (err error) {
	if c.metrics != nil {
		start := time.Now()
		c.metrics.Reconciles.WithLabelValues().Inc()
		defer func() {
			c.metrics.Duration.WithLabelValues().Observe(time.Since(start).Seconds())
			if err != nil {
				c.metrics.Errors.WithLabelValues().Inc()
			}
		}()
	}

	obj, ok := c.podStore.Get(key)
	if !ok || obj.Resource.Pod.Spec.NodeName != c.nodeName {
		return c.runtime.RemovePod(ctx, key)
	}

	pod := obj.Resource.Pod
	specs := make([]container.Spec, len(pod.Spec.Containers))
	for i, cont := range pod.Spec.Containers {
		specs[i] = container.Spec{Name: cont.Name, Image: cont.Image}
	}

	statuses, err := c.runtime.EnsurePod(ctx, key, specs)
	if err != nil {
		return errors.Wrapf(err, "ensuring pod %s", key)
	}

	if err := c.reportStats(ctx, key, obj.Metadata.Name); err != nil {
		c.log.Warnw("stats unavailable", "pod", key, "error", err)
	}

	return c.updateStatus(ctx, obj, pod, statuses)
}

func (c *Controller) reportStats(ctx context.Context, key, podName string) error {
	if c.reporter == nil {
		return nil
	}
	value, err := c.runtime.Stats(ctx, key)
	if err != nil {
		return err
	}
	c.reporter.Report("cpu", podName, value)
	return nil
}

func (c *Controller) updateStatus(ctx context.Context, obj *v1alpha1.KubeObject, pod *v1alpha1.Pod, statuses []container.Status) error {
	newStatus := v1alpha1.PodStatus{
		Phase:             phaseFor(statuses),
		StartTime:         pod.Status.StartTime,
		ContainerStatuses: toContainerStatuses(statuses),
	}
	if newStatus.StartTime == nil && newStatus.Phase == v1alpha1.PodRunning {
		t := metav1.NewTime(time.Now())
		newStatus.StartTime = &t
	}
	if reflect.DeepEqual(newStatus, pod.Status) {
		return nil
	}

	updated := *obj
	updatedPod := *pod
	updatedPod.Status = newStatus
	updated.Resource.Pod = &updatedPod

	if _, err := c.client.Replace(ctx, &updated); err != nil {
		return errors.Wrap(err, "updating pod status")
	}
	return nil
}

func phaseFor(statuses []container.Status) v1alpha1.PodPhase {
	if len(statuses) == 0 {
		return v1alpha1.PodPending
	}
	for _, s := range statuses {
		if !s.Ready {
			return v1alpha1.PodPending
		}
	}
	return v1alpha1.PodRunning
}

func toContainerStatuses(statuses []container.Status) []v1alpha1.ContainerStatus {
	out := make([]v1alpha1.ContainerStatus, len(statuses))
	for i, s := range statuses {
		out[i] = v1alpha1.ContainerStatus{Name: s.Name, Ready: s.Ready, RestartCount: s.RestartCount}
	}
	return out
}
