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

package queue_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minik8s/controlplane/pkg/queue"
)

func TestRunWorkersRetriesFailedKeyThenSucceeds(t *testing.T) {
	q := queue.NewRateLimiting(t.Name())
	q.Add("default/p1")

	var attempts int32
	var mu sync.Mutex
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.RunWorkers(ctx, q, 1, zap.NewNop().Sugar(), func(ctx context.Context, key string) error {
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, "default/p1", key)
		if atomic.AddInt32(&attempts, 1) == 1 {
			return assertError{}
		}
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key was never successfully reconciled")
	}
	require.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}

type assertError struct{}

func (assertError) Error() string { return "transient failure" }
