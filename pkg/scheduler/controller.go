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

package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
	"github.com/minik8s/controlplane/pkg/informer"
	"github.com/minik8s/controlplane/pkg/metrics"
	"github.com/minik8s/controlplane/pkg/queue"
)

// Controller drives unbound pods to a node assignment. It reads the stores
// of a pod informer and a node informer, per spec.md §4.C ("maintains a node cache
// via a node informer"), and POSTs the chosen binding through the client.
type Controller struct {
	client    *client.Client
	algorithm Algorithm
	log       *zap.SugaredLogger

	podStore  *informer.Store
	nodeStore *informer.Store
	nodes     *nodeCache
	queue     queue.RateLimiting
	metrics   *metrics.ReconcileMetrics
}

// NewController wires a Controller. Callers start the two informers
// (pods, nodes) and Controller.Run independently; cmd/scheduler runs each
// informer on its own goroutine. rm may be nil, in which case reconciles
// are unobserved.
func NewController(c *client.Client, algorithm Algorithm, podStore, nodeStore *informer.Store, rm *metrics.ReconcileMetrics, log *zap.SugaredLogger) *Controller {
	return &Controller{
		client:    c,
		algorithm: algorithm,
		log:       log,
		podStore:  podStore,
		nodeStore: nodeStore,
		nodes:     newNodeCache(),
		queue:     queue.NewRateLimiting("scheduler"),
		metrics:   rm,
	}
}

// HandlePodEvent is wired as the pod informer's OnAdd/OnUpdate so every
// unbound pod gets enqueued exactly once per observed change.
func (c *Controller) HandlePodEvent(obj *v1alpha1.KubeObject) {
	if obj.Resource.Pod == nil || obj.Resource.Pod.Spec.NodeName != "" {
		return
	}
	c.queue.Add(obj.Key())
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

	obj, ok := c.podStore.Get(key)
	if !ok {
		return nil // pod deleted before we got to it
	}
	pod := obj.Resource.Pod
	if pod == nil || pod.Spec.NodeName != "" {
		return nil // already bound by the time we dequeued it
	}

	nodes := c.nodes.get(c.nodeStore.List)
	podsByNode := c.boundPodsByNode()

	nodeName, err := c.algorithm.Schedule(pod, nodes, podsByNode)
	if err != nil {
		c.log.Infow("no node fits pod, will retry", "pod", obj.Metadata.Name)
		return err // requeued with backoff by queue.RunWorkers
	}

	if err := c.client.Bind(ctx, obj.Metadata.Name, nodeName); err != nil {
		if isDroppableBindError(err) {
			c.log.Infow("dropping stale bind attempt", "pod", obj.Metadata.Name, "error", err)
			return nil
		}
		return err
	}
	c.log.Infow("bound pod", "pod", obj.Metadata.Name, "node", nodeName)
	return nil
}

func (c *Controller) boundPodsByNode() map[string][]*v1alpha1.Pod {
	byNode := make(map[string][]*v1alpha1.Pod)
	for _, obj := range c.podStore.List() {
		if obj.Resource.Pod == nil || obj.Resource.Pod.Spec.NodeName == "" {
			continue
		}
		byNode[obj.Resource.Pod.Spec.NodeName] = append(byNode[obj.Resource.Pod.Spec.NodeName], obj.Resource.Pod)
	}
	return byNode
}

// isDroppableBindError reports 4xx-shaped failures that mean the pod was
// deleted or already bound out from under us; spec.md §4.C says these are
// "logged and dropped", never retried.
func isDroppableBindError(err error) bool {
	return client.IsNotFound(err) || client.IsConflict(err)
}
