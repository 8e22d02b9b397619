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

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
)

func fakeServer(t *testing.T, handler http.HandlerFunc) func() *client.Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return func() *client.Client { return client.New(server.URL) }
}

func TestGetCmdListsAllOfAKind(t *testing.T) {
	clientFor := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/pods", r.URL.Path)
		pods := []v1alpha1.KubeObject{{
			Kind:     v1alpha1.KindPod,
			Metadata: v1alpha1.ObjectMeta{Name: "web-1"},
			Resource: v1alpha1.Resource{Pod: &v1alpha1.Pod{Status: v1alpha1.PodStatus{Phase: v1alpha1.PodRunning}}},
		}}
		_ = json.NewEncoder(w).Encode(v1alpha1.Response{Data: v1alpha1.ListData{Items: pods, Revision: 1}})
	})

	cmd := newGetCmd(clientFor)
	cmd.SetArgs([]string{"pods"})
	require.NoError(t, cmd.Execute())
}

func TestGetCmdFetchesByName(t *testing.T) {
	clientFor := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/pods/web-1", r.URL.Path)
		obj := v1alpha1.KubeObject{
			Kind:     v1alpha1.KindPod,
			Metadata: v1alpha1.ObjectMeta{Name: "web-1"},
			Resource: v1alpha1.Resource{Pod: &v1alpha1.Pod{}},
		}
		_ = json.NewEncoder(w).Encode(v1alpha1.Response{Data: obj})
	})

	cmd := newGetCmd(clientFor)
	cmd.SetArgs([]string{"po", "web-1"})
	require.NoError(t, cmd.Execute())
}

func TestGetCmdRejectsUnknownKind(t *testing.T) {
	cmd := newGetCmd(func() *client.Client { return client.New("http://unused") })
	cmd.SetArgs([]string{"frobnicator"})
	require.Error(t, cmd.Execute())
}

func TestDeleteCmdDeletesByName(t *testing.T) {
	called := false
	clientFor := fakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/v1/pods/web-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "deleted"})
	})

	cmd := newDeleteCmd(clientFor)
	cmd.SetArgs([]string{"pod", "web-1"})
	require.NoError(t, cmd.Execute())
	require.True(t, called)
}
