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

// Package queue wraps k8s.io/client-go/util/workqueue for the two queue
// shapes this repo's control loops need: a key-collapsing rate-limited
// queue for the replica-set and scheduler reconcilers, and a delaying
// queue for the HPA driver's fixed sync-period re-enqueue. Both are typed
// over string keys (the controllers enqueue an object's storage key from
// KubeObject.Key(), or, for the HPA driver, the HPA's name), following the
// processNextWorkItem shape of other_examples' resource-state-metrics
// controller.
package queue

import (
	"time"

	"k8s.io/client-go/util/workqueue"
)

// RateLimiting is a per-key-collapsing queue with exponential-then-capped
// backoff on repeated failures of the same key, matching the teacher
// pack's NewTypedMaxOfRateLimiter(exponential, bucket) composition.
type RateLimiting = workqueue.TypedRateLimitingInterface[string]

// NewRateLimiting builds a RateLimiting queue for one controller (name is
// surfaced in the queue's metrics).
func NewRateLimiting(name string) RateLimiting {
	limiter := workqueue.NewTypedMaxOfRateLimiter(
		workqueue.NewTypedItemExponentialFailureRateLimiter[string](5*time.Millisecond, 5*time.Minute),
		&workqueue.TypedBucketRateLimiter[string]{Limiter: workqueue.DefaultControllerRateLimiter()},
	)
	return workqueue.NewTypedRateLimitingQueueWithConfig(limiter, workqueue.TypedRateLimitingQueueConfig[string]{Name: name})
}

// Delaying is a queue that supports AddAfter, used by the HPA driver to
// re-enqueue each HorizontalPodAutoscaler at now+syncPeriod regardless of
// whether the last reconcile succeeded.
type Delaying = workqueue.TypedDelayingInterface[string]

// NewDelaying builds a Delaying queue for the HPA sync-period driver.
func NewDelaying(name string) Delaying {
	return workqueue.NewTypedDelayingQueueWithConfig(workqueue.TypedDelayingQueueConfig[string]{Name: name})
}
