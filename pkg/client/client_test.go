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

package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
)

func TestListRoundTrip(t *testing.T) {
	pods := []v1alpha1.KubeObject{{
		Kind:     v1alpha1.KindPod,
		Metadata: v1alpha1.ObjectMeta{Name: "p1"},
		Resource: v1alpha1.Resource{Pod: &v1alpha1.Pod{}},
	}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/pods", r.URL.Path)
		_ = json.NewEncoder(w).Encode(v1alpha1.Response{
			Msg:  "ok",
			Data: v1alpha1.ListData{Items: pods, Revision: 42},
		})
	}))
	defer server.Close()

	c := client.New(server.URL)
	got, revision, err := c.List(context.Background(), v1alpha1.KindPod)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p1", got[0].Metadata.Name)
	require.Equal(t, int64(42), revision)
}

func TestGetNotFoundClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "not found"})
	}))
	defer server.Close()

	c := client.New(server.URL)
	_, err := c.Get(context.Background(), v1alpha1.KindPod, "missing")
	require.Error(t, err)
	require.True(t, client.IsNotFound(err))
}

func TestDeleteIsIdempotentOnNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "not found"})
	}))
	defer server.Close()

	c := client.New(server.URL)
	require.NoError(t, c.Delete(context.Background(), v1alpha1.KindPod, "missing"))
}
