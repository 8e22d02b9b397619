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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
)

type fakeNodeStore struct {
	mu   sync.Mutex
	node *v1alpha1.KubeObject
}

func (f *fakeNodeStore) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			if f.node == nil {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "not found"})
				return
			}
			_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "ok", Data: *f.node})
		case http.MethodPost, http.MethodPut:
			var obj v1alpha1.KubeObject
			_ = json.NewDecoder(r.Body).Decode(&obj)
			f.node = &obj
			_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "ok", Data: obj})
		}
	}
}

func TestEnsureNodeCreatesThenBeatRenewsReadyCondition(t *testing.T) {
	store := &fakeNodeStore{}
	server := httptest.NewServer(store.handler())
	defer server.Close()
	c := client.New(server.URL)

	ctx := context.Background()
	require.NoError(t, ensureNode(ctx, c, "node-1"))

	store.mu.Lock()
	require.NotNil(t, store.node)
	require.Equal(t, v1alpha1.NodePending, store.node.Resource.Node.Status.Phase)
	store.mu.Unlock()

	require.NoError(t, beat(ctx, c, "node-1"))

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, v1alpha1.NodeRunning, store.node.Resource.Node.Status.Phase)
	require.Len(t, store.node.Resource.Node.Status.Conditions, 1)
	cond := store.node.Resource.Node.Status.Conditions[0]
	require.Equal(t, v1alpha1.ConditionReady, cond.Type)
	require.Equal(t, v1alpha1.ConditionTrue, cond.Status)
	require.WithinDuration(t, time.Now(), cond.LastHeartbeat.Time, time.Second)
}
