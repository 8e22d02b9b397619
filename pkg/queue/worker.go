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

package queue

import (
	"context"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
)

// SyncFunc reconciles one key. A non-nil error requeues the key with
// rate-limited backoff; nil forgets it.
type SyncFunc func(ctx context.Context, key string) error

// RunWorkers starts n goroutines draining q, each calling sync for every
// dequeued key, following the teacher pack's processNextWorkItem shape:
// Get, defer Done, sync, AddRateLimited-or-Forget.
func RunWorkers(ctx context.Context, q RateLimiting, n int, log *zap.SugaredLogger, sync SyncFunc) {
	for i := 0; i < n; i++ {
		go wait.UntilWithContext(ctx, func(ctx context.Context) {
			for processNextWorkItem(ctx, q, log, sync) {
			}
		}, time.Second)
	}
}

func processNextWorkItem(ctx context.Context, q RateLimiting, log *zap.SugaredLogger, sync SyncFunc) bool {
	key, shutdown := q.Get()
	if shutdown {
		return false
	}
	defer q.Done(key)

	if err := sync(ctx, key); err != nil {
		log.Warnw("reconcile failed, requeuing", "key", key, "error", err)
		q.AddRateLimited(key)
		return true
	}
	q.Forget(key)
	return true
}
