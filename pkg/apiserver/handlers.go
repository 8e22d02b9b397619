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

package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/store"
)

func (s *Server) handleList(kind v1alpha1.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := "/api/v1/" + kind.Plural() + "/"
		result, err := s.store.List(r.Context(), prefix)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeData(w, http.StatusOK, v1alpha1.ListData{Items: result.Items, Revision: result.Revision})
	}
}

func (s *Server) handleGet(kind v1alpha1.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := objectKey(r, kind)
		obj, err := s.store.Get(r.Context(), key)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeData(w, http.StatusOK, obj)
	}
}

func (s *Server) handleCreate(kind v1alpha1.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.handleWrite(kind, w, r)
	}
}

func (s *Server) handleReplace(kind v1alpha1.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.handleWrite(kind, w, r)
	}
}

func (s *Server) handleWrite(kind v1alpha1.Kind, w http.ResponseWriter, r *http.Request) {
	var obj v1alpha1.KubeObject
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		writeErrMsg(w, http.StatusBadRequest, "decoding request body", err.Error())
		return
	}
	obj.Kind = kind
	if name := chi.URLParam(r, "name"); name != "" {
		obj.Metadata.Name = name
	}
	if err := s.store.Put(r.Context(), obj.Key(), &obj); err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, &obj)
}

func (s *Server) handleDelete(kind v1alpha1.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := objectKey(r, kind)
		if err := s.store.Delete(r.Context(), key); err != nil {
			writeErr(w, err)
			return
		}
		writeData(w, http.StatusOK, nil)
	}
}

type bindRequest struct {
	NodeName string `json:"nodeName"`
}

func (s *Server) handleBind(w http.ResponseWriter, r *http.Request) {
	podName := chi.URLParam(r, "name")
	var req bindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrMsg(w, http.StatusBadRequest, "decoding request body", err.Error())
		return
	}
	podKey := v1alpha1.Key(v1alpha1.KindPod, v1alpha1.ObjectMeta{Name: podName, Namespace: r.URL.Query().Get("namespace")})
	if err := s.store.Bind(r.Context(), podKey, req.NodeName); err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}

func objectKey(r *http.Request, kind v1alpha1.Kind) string {
	name := chi.URLParam(r, "name")
	namespace := r.URL.Query().Get("namespace")
	return v1alpha1.Key(kind, v1alpha1.ObjectMeta{Name: name, Namespace: namespace})
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: "ok", Data: data})
}

func writeErrMsg(w http.ResponseWriter, status int, msg, cause string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v1alpha1.Response{Msg: msg, Cause: cause})
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	if store.IsNotFound(err) {
		status = http.StatusNotFound
		msg = "not found"
	} else if store.IsConflict(err) {
		status = http.StatusConflict
		msg = "conflict"
	}
	writeErrMsg(w, status, msg, err.Error())
}
