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

// Package replicaset implements spec.md §4.D: reconcile the set of pods
// matching a ReplicaSet's selector to cardinality spec.replicas.
package replicaset

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/labels"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
	"github.com/minik8s/controlplane/pkg/informer"
	"github.com/minik8s/controlplane/pkg/metrics"
	"github.com/minik8s/controlplane/pkg/queue"
)

// Controller reconciles ReplicaSets against the pods they own.
type Controller struct {
	client   *client.Client
	rsStore  *informer.Store
	podStore *informer.Store
	queue    queue.RateLimiting
	metrics  *metrics.ReconcileMetrics
	log      *zap.SugaredLogger
}

// NewController wires a Controller over an already-running ReplicaSet
// informer and Pod informer. rm may be nil, in which case reconciles are
// unobserved.
func NewController(c *client.Client, rsStore, podStore *informer.Store, rm *metrics.ReconcileMetrics, log *zap.SugaredLogger) *Controller {
	return &Controller{
		client:   c,
		rsStore:  rsStore,
		podStore: podStore,
		queue:    queue.NewRateLimiting("replicaset"),
		metrics:  rm,
		log:      log,
	}
}

// HandleReplicaSetEvent enqueues the ReplicaSet itself on add/update.
func (c *Controller) HandleReplicaSetEvent(obj *v1alpha1.KubeObject) {
	if obj.Resource.ReplicaSet == nil {
		return
	}
	c.queue.Add(obj.Key())
}

// HandlePodEvent enqueues the owning ReplicaSet whenever one of its pods
// changes, so status.ready_replicas stays current.
func (c *Controller) HandlePodEvent(obj *v1alpha1.KubeObject) {
	for _, rsObj := range c.rsStore.List() {
		rs := rsObj.Resource.ReplicaSet
		if rs == nil {
			continue
		}
		if labels.SelectorFromSet(rs.Spec.Selector).Matches(labels.Set(obj.Metadata.Labels)) {
			c.queue.Add(rsObj.Key())
		}
	}
}

// Run starts n reconcile workers until ctx is cancelled.
func (c *Controller) Run(ctx context.Context, workers int) {
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

	rsObj, ok := c.rsStore.Get(key)
	if !ok {
		return nil // deleted before we got to it
	}
	rs := rsObj.Resource.ReplicaSet
	if rs == nil {
		return nil
	}

	selector := labels.SelectorFromSet(rs.Spec.Selector)
	owned := c.ownedPods(selector)

	diff := int(rs.Spec.Replicas) - len(owned)
	switch {
	case diff > 0:
		if err := c.scaleUp(ctx, rsObj.Metadata, rs, diff); err != nil {
			return err
		}
	case diff < 0:
		if err := c.scaleDown(ctx, owned, -diff); err != nil {
			return err
		}
	}

	return c.updateStatus(ctx, rsObj, rs, owned)
}

// ownedPods returns every pod (paired with its name) whose labels match
// selector, re-read fresh from the pod store each reconcile — no cached
// ownership index, since the selector match is cheap and avoids a
// stale-index class of bugs.
func (c *Controller) ownedPods(selector labels.Selector) []*v1alpha1.KubeObject {
	var owned []*v1alpha1.KubeObject
	for _, obj := range c.podStore.List() {
		if obj.Resource.Pod == nil {
			continue
		}
		if selector.Matches(labels.Set(obj.Metadata.Labels)) {
			owned = append(owned, obj)
		}
	}
	return owned
}

func (c *Controller) scaleUp(ctx context.Context, rsMeta v1alpha1.ObjectMeta, rs *v1alpha1.ReplicaSet, count int) error {
	for i := 0; i < count; i++ {
		name := rsMeta.Name + "-" + uuid.New().String()[:8]
		labelSet := make(map[string]string, len(rs.Spec.Template.Metadata.Labels)+len(rs.Spec.Selector))
		for k, v := range rs.Spec.Template.Metadata.Labels {
			labelSet[k] = v
		}
		for k, v := range rs.Spec.Selector {
			labelSet[k] = v
		}
		pod := v1alpha1.KubeObject{
			Kind: v1alpha1.KindPod,
			Metadata: v1alpha1.ObjectMeta{
				Name:      name,
				Namespace: rsMeta.Namespace,
				Labels:    labelSet,
			},
			Resource: v1alpha1.Resource{Pod: &v1alpha1.Pod{Spec: rs.Spec.Template.Spec}},
		}
		if _, err := c.client.Create(ctx, &pod); err != nil {
			return errors.Wrapf(err, "creating pod %s", name)
		}
	}
	return nil
}

// scaleDown removes count pods, preferring to delete Pending pods before
// Running ones, per SPEC_FULL.md §4.D's stable deletion preference.
func (c *Controller) scaleDown(ctx context.Context, owned []*v1alpha1.KubeObject, count int) error {
	sorted := make([]*v1alpha1.KubeObject, len(owned))
	copy(sorted, owned)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := deletionRank(sorted[i].Resource.Pod), deletionRank(sorted[j].Resource.Pod)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Metadata.CreationTimestamp.After(sorted[j].Metadata.CreationTimestamp.Time)
	})
	for i := 0; i < count && i < len(sorted); i++ {
		if err := c.client.Delete(ctx, v1alpha1.KindPod, sorted[i].Metadata.Name); err != nil {
			return errors.Wrapf(err, "deleting pod %s", sorted[i].Metadata.Name)
		}
	}
	return nil
}

func deletionRank(pod *v1alpha1.Pod) int {
	switch pod.Status.Phase {
	case v1alpha1.PodPending:
		return 0
	case v1alpha1.PodFailed, v1alpha1.PodSucceeded:
		return 1
	default:
		return 2
	}
}

// updateStatus writes back status.replicas/ready_replicas only when they
// differ from what's cached, avoiding a reconcile loop against the
// controller's own status writes.
func (c *Controller) updateStatus(ctx context.Context, rsObj *v1alpha1.KubeObject, rs *v1alpha1.ReplicaSet, owned []*v1alpha1.KubeObject) error {
	var ready uint32
	for _, obj := range owned {
		if obj.Resource.Pod.Status.Phase == v1alpha1.PodRunning {
			ready++
		}
	}
	replicas := uint32(len(owned))
	if rs.Status.Replicas == replicas && rs.Status.ReadyReplicas == ready {
		return nil
	}

	updated := *rsObj
	updatedRS := *rs
	updatedRS.Status.Replicas = replicas
	updatedRS.Status.ReadyReplicas = ready
	updated.Resource.ReplicaSet = &updatedRS

	if _, err := c.client.Replace(ctx, &updated); err != nil {
		return errors.Wrap(err, "updating replicaset status")
	}
	return nil
}
