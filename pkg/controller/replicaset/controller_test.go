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

package replicaset_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
	"github.com/minik8s/controlplane/pkg/controller/replicaset"
	"github.com/minik8s/controlplane/pkg/informer"
)

// fakeAPIServer is a minimal stand-in recording pod creates/deletes so the
// reconcile loop can be exercised without pkg/apiserver or etcd.
type fakeAPIServer struct {
	mu      sync.Mutex
	created []string
	deleted []string
}

func (f *fakeAPIServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/replicasets/rs1":
			var obj v1alpha1.KubeObject
			_ = json.NewDecoder(r.Body).Decode(&obj)
			_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "ok", Data: obj})
		case r.Method == http.MethodPost:
			var obj v1alpha1.KubeObject
			_ = json.NewDecoder(r.Body).Decode(&obj)
			f.created = append(f.created, obj.Metadata.Name)
			_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "ok", Data: obj})
		case r.Method == http.MethodDelete:
			name := r.URL.Path[len("/api/v1/pods/"):]
			f.deleted = append(f.deleted, name)
			_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "ok"})
		default:
			_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "ok"})
		}
	}
}

func TestSyncScalesUpToDesiredReplicas(t *testing.T) {
	fake := &fakeAPIServer{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()
	c := client.New(server.URL)

	rs := v1alpha1.KubeObject{
		Kind:     v1alpha1.KindReplicaSet,
		Metadata: v1alpha1.ObjectMeta{Name: "rs1"},
		Resource: v1alpha1.Resource{ReplicaSet: &v1alpha1.ReplicaSet{
			Spec: v1alpha1.ReplicaSetSpec{
				Replicas: 3,
				Selector: map[string]string{"app": "web"},
				Template: v1alpha1.PodTemplate{
					Metadata: v1alpha1.ObjectMeta{Labels: map[string]string{"app": "web"}},
				},
			},
		}},
	}

	rsInf, rsStore := informer.New(
		func(ctx context.Context) ([]v1alpha1.KubeObject, int64, error) { return []v1alpha1.KubeObject{rs}, 1, nil },
		func(ctx context.Context, fromRevision int64) (<-chan v1alpha1.WatchEvent, error) {
			return make(chan v1alpha1.WatchEvent), nil
		},
		informerHandler(nil),
		zap.NewNop().Sugar(),
	)
	podInf, podStore := informer.New(
		func(ctx context.Context) ([]v1alpha1.KubeObject, int64, error) { return nil, 1, nil },
		func(ctx context.Context, fromRevision int64) (<-chan v1alpha1.WatchEvent, error) {
			return make(chan v1alpha1.WatchEvent), nil
		},
		informerHandler(nil),
		zap.NewNop().Sugar(),
	)

	ctrl := replicaset.NewController(c, rsStore, podStore, nil, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rsInf.Run(ctx)
	go podInf.Run(ctx)
	ctrl.HandleReplicaSetEvent(&rs)
	ctrl.Run(ctx, 1)

	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.created) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func informerHandler(_ *int) informer.EventHandler {
	return informer.EventHandler{}
}
