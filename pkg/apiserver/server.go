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

// Package apiserver exposes the REST + WebSocket-watch surface described in
// SPEC_FULL.md §6 over a pkg/store.Store, using go-chi/chi as the router —
// promoted here from the teacher's indirect dependency into a direct one.
package apiserver

import (
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/store"
)

// Server is the HTTP surface over one Store and its watch Hub.
type Server struct {
	store *store.Store
	hub   *store.Hub
	log   *zap.SugaredLogger
}

var kinds = []v1alpha1.Kind{
	v1alpha1.KindPod,
	v1alpha1.KindReplicaSet,
	v1alpha1.KindService,
	v1alpha1.KindIngress,
	v1alpha1.KindNode,
	v1alpha1.KindHorizontalPodAutoscaler,
}

// New builds a Server over store/hub.
func New(s *store.Store, hub *store.Hub, log *zap.SugaredLogger) *Server {
	return &Server{store: s, hub: hub, log: log}
}

// Router builds the full chi.Router for this server, including /healthz
// and /metrics per SPEC_FULL.md §6.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/debug/pprof", pprofMux())

	r.Route("/api/v1", func(r chi.Router) {
		for _, kind := range kinds {
			s.mountKind(r, kind)
		}
		r.Post("/bindings/{name}", s.handleBind)
		for _, kind := range kinds {
			r.Get("/watch/"+kind.Plural(), s.handleWatchFor(kind))
		}
	})
	return r
}

func (s *Server) mountKind(r chi.Router, kind v1alpha1.Kind) {
	plural := kind.Plural()
	r.Get("/"+plural, s.handleList(kind))
	r.Route("/"+plural+"/{name}", func(r chi.Router) {
		r.Post("/", s.handleCreate(kind))
		r.Get("/", s.handleGet(kind))
		r.Put("/", s.handleReplace(kind))
		r.Delete("/", s.handleDelete(kind))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debugw("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func pprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	return mux
}
