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
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minik8s/controlplane/internal/env"
	"github.com/minik8s/controlplane/internal/logging"
	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
	"github.com/minik8s/controlplane/pkg/informer"
	"github.com/minik8s/controlplane/pkg/metrics"
	"github.com/minik8s/controlplane/pkg/scheduler"
)

func main() {
	var (
		apiServerURL = flag.String("api-server-url", env.WithDefaultString("API_SERVER_URL", "http://127.0.0.1:8080"), "Base URL of the API server")
		metricsAddr  = flag.String("metrics-addr", env.WithDefaultString("METRICS_ADDR", ":8082"), "Address the /healthz and /metrics endpoints bind to")
		workers      = flag.Int("workers", env.WithDefaultInt("WORKERS", 2), "Number of scheduling reconcile workers")
		debug        = flag.Bool("debug", env.WithDefaultBool("DEBUG", false), "Enable human-readable development logging")
	)
	flag.Parse()

	logger := logging.New("scheduler", *debug)
	defer logger.Sync()
	log := logger.Sugar()

	c := client.New(*apiServerURL)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var ctrl *scheduler.Controller
	podInformer, podStore := informer.New(
		listerFor(c, v1alpha1.KindPod),
		watcherFor(c, v1alpha1.KindPod),
		informer.EventHandler{
			OnAdd:    func(obj *v1alpha1.KubeObject) { ctrl.HandlePodEvent(obj) },
			OnUpdate: func(_, new *v1alpha1.KubeObject) { ctrl.HandlePodEvent(new) },
		},
		log,
	)
	nodeInformer, nodeStore := informer.New(
		listerFor(c, v1alpha1.KindNode),
		watcherFor(c, v1alpha1.KindNode),
		informer.EventHandler{},
		log,
	)
	registry := prometheus.NewRegistry()
	schedulerMetrics := metrics.NewReconcileMetrics(registry, "scheduler")
	ctrl = scheduler.NewController(c, scheduler.Default(), podStore, nodeStore, schedulerMetrics, log)

	go podInformer.Run(ctx)
	go nodeInformer.Run(ctx)
	ctrl.Run(ctx, *workers)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Infow("scheduler started", "apiServer", *apiServerURL, "metricsAddr", *metricsAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("scheduler exited", "error", err)
	}
}

func listerFor(c *client.Client, kind v1alpha1.Kind) informer.Lister {
	return func(ctx context.Context) ([]v1alpha1.KubeObject, int64, error) { return c.List(ctx, kind) }
}

func watcherFor(c *client.Client, kind v1alpha1.Kind) informer.Watcher {
	return func(ctx context.Context, fromRevision int64) (<-chan v1alpha1.WatchEvent, error) {
		return c.Watch(ctx, kind, fromRevision)
	}
}
