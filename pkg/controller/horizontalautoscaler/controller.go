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

// Package horizontalautoscaler implements spec.md §4.E: compute desired
// replicas from metrics, stabilize, rate-limit, write back. Driven by a
// delay queue that re-enqueues every HPA at a fixed sync period
// regardless of whether the previous reconcile scaled anything, matching
// original_source/controllers/src/podautoscaler/horizontal.rs's run loop.
package horizontalautoscaler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
	"github.com/minik8s/controlplane/pkg/controller/horizontalautoscaler/algorithm"
	"github.com/minik8s/controlplane/pkg/informer"
	"github.com/minik8s/controlplane/pkg/metrics"
	"github.com/minik8s/controlplane/pkg/queue"
)

// SyncPeriod is how often every HPA is re-reconciled even absent a spec
// change, mirroring original_source's SYNC_PERIOD constant.
const SyncPeriod = 15 * time.Second

// Controller drives every HorizontalPodAutoscaler's scale target toward
// its computed desired replica count.
type Controller struct {
	client     *client.Client
	hpaStore   *informer.Store
	calculator algorithm.ReplicaCalculator
	history    *algorithm.History
	dq         queue.Delaying
	metrics    *metrics.ReconcileMetrics
	log        *zap.SugaredLogger
}

// NewController wires a Controller over an already-running HPA informer.
// rm may be nil, in which case reconciles are unobserved.
func NewController(c *client.Client, hpaStore *informer.Store, metricsClient metrics.Client, rm *metrics.ReconcileMetrics, log *zap.SugaredLogger) *Controller {
	return &Controller{
		client:     c,
		hpaStore:   hpaStore,
		calculator: algorithm.ReplicaCalculator{Metrics: metricsClient},
		history:    algorithm.NewHistory(),
		dq:         queue.NewDelaying("horizontalautoscaler"),
		metrics:    rm,
		log:        log,
	}
}

// HandleHPAEvent enqueues name for immediate reconcile on every add/update;
// a delete is handled separately since by the time sync() dequeues a
// deleted HPA's name, hpaStore.Get will already report it missing.
func (c *Controller) HandleHPAEvent(obj *v1alpha1.KubeObject) {
	if obj.Resource.HorizontalPodAutoscaler == nil {
		return
	}
	c.dq.Add(obj.Metadata.Name)
}

// Run drains the delay queue until ctx is cancelled, reconciling each
// dequeued HPA and re-enqueuing it SyncPeriod later regardless of outcome.
func (c *Controller) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		c.dq.ShutDown()
	}()
	for {
		name, shutdown := c.dq.Get()
		if shutdown {
			return
		}
		if err := c.sync(ctx, name); err != nil {
			c.log.Warnw("hpa reconcile failed", "hpa", name, "error", err)
		}
		c.dq.Done(name)
		if ctx.Err() == nil {
			c.dq.AddAfter(name, SyncPeriod)
		}
	}
}

func (c *Controller) sync(ctx context.Context, name string) (err error) {
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

	key := v1alpha1.Key(v1alpha1.KindHorizontalPodAutoscaler, v1alpha1.ObjectMeta{Name: name})
	hpaObj, ok := c.hpaStore.Get(key)
	if !ok {
		c.log.Infow("horizontalpodautoscaler deleted", "hpa", name)
		c.history.Forget(name)
		return nil
	}
	hpa := hpaObj.Resource.HorizontalPodAutoscaler

	targetObj, err := c.client.Get(ctx, v1alpha1.Kind(hpa.Spec.ScaleTargetRef.Kind), hpa.Spec.ScaleTargetRef.Name)
	if err != nil {
		return errors.Wrapf(err, "getting scale target %s", hpa.Spec.ScaleTargetRef.Name)
	}
	rs := targetObj.Resource.ReplicaSet
	if rs == nil {
		return errors.Errorf("%s is not a scalable ReplicaSet", hpa.Spec.ScaleTargetRef.Name)
	}

	now := time.Now()
	currentReplicas := rs.Spec.Replicas
	desiredReplicas := c.computeDesiredReplicas(ctx, name, now, hpa, rs, currentReplicas)

	if currentReplicas != desiredReplicas {
		rs.Spec.Replicas = desiredReplicas
		c.history.RecordScaleEvent(name, now, hpa.Spec.Behavior, currentReplicas, desiredReplicas)
		if _, err := c.client.Replace(ctx, targetObj); err != nil {
			return errors.Wrapf(err, "scaling %s to %d", hpa.Spec.ScaleTargetRef.Name, desiredReplicas)
		}
		c.log.Infow("scaled replicaset", "replicaset", hpa.Spec.ScaleTargetRef.Name, "from", currentReplicas, "to", desiredReplicas)
	}

	return c.updateStatus(ctx, hpaObj, hpa, now, currentReplicas, desiredReplicas)
}

// computeDesiredReplicas mirrors original_source's reconcile branch
// structure exactly: disabled/out-of-bounds/zero-replica shortcuts before
// falling through to the metrics-driven path.
func (c *Controller) computeDesiredReplicas(ctx context.Context, name string, now time.Time, hpa *v1alpha1.HorizontalPodAutoscaler, rs *v1alpha1.ReplicaSet, currentReplicas uint32) uint32 {
	switch {
	case rs.Spec.Replicas == 0 && hpa.Spec.MinReplicas != 0:
		return 0
	case currentReplicas > hpa.Spec.MaxReplicas:
		return hpa.Spec.MaxReplicas
	case currentReplicas < hpa.Spec.MinReplicas:
		return hpa.Spec.MinReplicas
	case currentReplicas == 0:
		return 1
	}

	raw, err := c.calculator.ComputeRawReplicas(ctx, hpa.Spec.Metrics, currentReplicas, rs.Spec.Selector)
	if err != nil {
		c.log.Warnw("metrics unavailable, holding current replica count", "hpa", name, "error", err)
		return currentReplicas
	}

	return c.normalize(name, now, hpa, currentReplicas, raw)
}

// normalize applies stabilization then rate limiting, then clamps the
// result to [MinReplicas, MaxReplicas], per original_source's
// normalize_desired_replicas.
func (c *Controller) normalize(name string, now time.Time, hpa *v1alpha1.HorizontalPodAutoscaler, currentReplicas, rawDesired uint32) uint32 {
	stabilized := c.history.Stabilize(name, now, currentReplicas, rawDesired, hpa.Spec.Behavior)
	conformed := c.history.Conform(name, now, hpa.Spec.Behavior, currentReplicas, stabilized)
	if conformed < hpa.Spec.MinReplicas {
		return hpa.Spec.MinReplicas
	}
	if conformed > hpa.Spec.MaxReplicas {
		return hpa.Spec.MaxReplicas
	}
	return conformed
}

func (c *Controller) updateStatus(ctx context.Context, hpaObj *v1alpha1.KubeObject, hpa *v1alpha1.HorizontalPodAutoscaler, now time.Time, currentReplicas, desiredReplicas uint32) error {
	newStatus := v1alpha1.HorizontalPodAutoscalerStatus{
		CurrentReplicas: currentReplicas,
		DesiredReplicas: desiredReplicas,
		LastScaleTime:   hpa.Status.LastScaleTime,
	}
	if currentReplicas != desiredReplicas {
		t := metav1.NewTime(now)
		newStatus.LastScaleTime = &t
	}
	if newStatus == hpa.Status {
		return nil
	}

	updated := *hpaObj
	updatedHPA := *hpa
	updatedHPA.Status = newStatus
	updated.Resource.HorizontalPodAutoscaler = &updatedHPA

	if _, err := c.client.Replace(ctx, &updated); err != nil {
		return errors.Wrap(err, "updating horizontalpodautoscaler status")
	}
	return nil
}
