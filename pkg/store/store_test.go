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

package store_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/store"
)

// newTestStore dials the etcd endpoints named by ETCD_ENDPOINTS, skipping
// the test when unset. These exercise the real compare-and-set and watch
// semantics the store depends on; they are not meant to run in an
// environment with no etcd reachable.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	endpoints := os.Getenv("ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("ETCD_ENDPOINTS not set, skipping store integration test")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(endpoints, ","),
		DialTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return store.New(client, zap.NewNop().Sugar())
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	obj := &v1alpha1.KubeObject{
		Kind:     v1alpha1.KindPod,
		Metadata: v1alpha1.ObjectMeta{Name: "p1"},
		Resource: v1alpha1.Resource{Pod: &v1alpha1.Pod{
			Spec: v1alpha1.PodSpec{Containers: []v1alpha1.Container{{Name: "c", Image: "nginx"}}},
		}},
	}
	key := obj.Key()
	require.NoError(t, s.Put(ctx, key, obj))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, obj.Kind, got.Kind)
	require.Equal(t, obj.Metadata.Name, got.Metadata.Name)
	require.Equal(t, obj.Resource.Pod.Spec.Containers, got.Resource.Pod.Spec.Containers)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	require.True(t, store.IsNotFound(err))
}

func TestBindRefusesDoubleBinding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	obj := &v1alpha1.KubeObject{
		Kind:     v1alpha1.KindPod,
		Metadata: v1alpha1.ObjectMeta{Name: "p-bind"},
		Resource: v1alpha1.Resource{Pod: &v1alpha1.Pod{}},
	}
	key := obj.Key()
	require.NoError(t, s.Put(ctx, key, obj))

	require.NoError(t, s.Bind(ctx, key, "n1"))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "n1", got.Resource.Pod.Spec.NodeName)

	err = s.Bind(ctx, key, "n2")
	require.Error(t, err)
	require.True(t, store.IsConflict(err))
}

func TestListReturnsRevisionForGapFreeWatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	obj := &v1alpha1.KubeObject{
		Kind:     v1alpha1.KindNode,
		Metadata: v1alpha1.ObjectMeta{Name: "n-list"},
		Resource: v1alpha1.Resource{Node: &v1alpha1.Node{}},
	}
	require.NoError(t, s.Put(ctx, obj.Key(), obj))

	result, err := s.List(ctx, "/api/v1/nodes/")
	require.NoError(t, err)
	require.Greater(t, result.Revision, int64(0))
}
