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

package informer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/informer"
)

func pod(name string) v1alpha1.KubeObject {
	return v1alpha1.KubeObject{
		Kind:     v1alpha1.KindPod,
		Metadata: v1alpha1.ObjectMeta{Name: name},
		Resource: v1alpha1.Resource{Pod: &v1alpha1.Pod{}},
	}
}

func TestRunFiresAddForInitialList(t *testing.T) {
	initial := []v1alpha1.KubeObject{pod("p1"), pod("p2")}
	events := make(chan v1alpha1.WatchEvent)

	var mu sync.Mutex
	added := map[string]bool{}

	inf, store := informer.New(
		func(ctx context.Context) ([]v1alpha1.KubeObject, int64, error) { return initial, 5, nil },
		func(ctx context.Context, fromRevision int64) (<-chan v1alpha1.WatchEvent, error) {
			require.Equal(t, int64(6), fromRevision)
			return events, nil
		},
		informer.EventHandler{
			OnAdd: func(obj *v1alpha1.KubeObject) {
				mu.Lock()
				defer mu.Unlock()
				added[obj.Metadata.Name] = true
			},
		},
		zap.NewNop().Sugar(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inf.Run(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return added["p1"] && added["p2"]
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := store.Get(pod("p1").Key())
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestDispatchPutAndDelete(t *testing.T) {
	events := make(chan v1alpha1.WatchEvent, 4)

	var mu sync.Mutex
	var adds, updates, deletes int

	inf, _ := informer.New(
		func(ctx context.Context) ([]v1alpha1.KubeObject, int64, error) { return nil, 1, nil },
		func(ctx context.Context, fromRevision int64) (<-chan v1alpha1.WatchEvent, error) { return events, nil },
		informer.EventHandler{
			OnAdd:    func(obj *v1alpha1.KubeObject) { mu.Lock(); adds++; mu.Unlock() },
			OnUpdate: func(old, new *v1alpha1.KubeObject) { mu.Lock(); updates++; mu.Unlock() },
			OnDelete: func(old *v1alpha1.KubeObject) { mu.Lock(); deletes++; mu.Unlock() },
		},
		zap.NewNop().Sugar(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inf.Run(ctx)

	p := pod("p1")
	events <- v1alpha1.WatchEvent{Type: v1alpha1.WatchPut, Key: p.Key(), Object: &p}
	events <- v1alpha1.WatchEvent{Type: v1alpha1.WatchPut, Key: p.Key(), Object: &p}
	events <- v1alpha1.WatchEvent{Type: v1alpha1.WatchDelete, Key: p.Key()}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return adds == 1 && updates == 1 && deletes == 1
	}, time.Second, 10*time.Millisecond)
}
