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

// cmd/nodeagent is the per-node binary: it renews the Node's lease and
// reconciles every pod bound to this node against a container.Runtime,
// mirroring original_source/rkubelet/src/main.rs's single-process shape.
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
	"github.com/minik8s/controlplane/pkg/container"
	"github.com/minik8s/controlplane/pkg/informer"
	"github.com/minik8s/controlplane/pkg/metrics"
	"github.com/minik8s/controlplane/pkg/nodeagent"
)

func main() {
	var (
		apiServerURL = flag.String("api-server-url", env.WithDefaultString("API_SERVER_URL", "http://127.0.0.1:8080"), "Base URL of the API server")
		nodeName     = flag.String("node-name", env.WithDefaultString("NODE_NAME", ""), "Name this agent registers its Node object under")
		metricsAddr  = flag.String("metrics-addr", env.WithDefaultString("METRICS_ADDR", ":8084"), "Address the /healthz and /metrics endpoints bind to")
		workers      = flag.Int("workers", env.WithDefaultInt("WORKERS", 2), "Number of pod reconcile workers")
		debug        = flag.Bool("debug", env.WithDefaultBool("DEBUG", false), "Enable human-readable development logging")
	)
	flag.Parse()

	logger := logging.New("nodeagent", *debug)
	defer logger.Sync()
	log := logger.Sugar()

	if *nodeName == "" {
		log.Fatalw("node-name is required", "flag", "-node-name", "env", "NODE_NAME")
	}

	c := client.New(*apiServerURL)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	nodeAgentMetrics := metrics.NewReconcileMetrics(registry, "nodeagent")
	metricsClient := metrics.NewPrometheusClient()

	var ctrl *nodeagent.Controller
	podInformer, podStore := informer.New(
		listerFor(c, v1alpha1.KindPod),
		watcherFor(c, v1alpha1.KindPod),
		informer.EventHandler{
			OnAdd:    func(obj *v1alpha1.KubeObject) { ctrl.HandlePodEvent(obj) },
			OnUpdate: func(_, new *v1alpha1.KubeObject) { ctrl.HandlePodEvent(new) },
			OnDelete: func(old *v1alpha1.KubeObject) { ctrl.HandlePodEvent(old) },
		},
		log,
	)
	ctrl = nodeagent.NewController(c, container.NewFake(), *nodeName, podStore, metricsClient, nodeAgentMetrics, log)

	go podInformer.Run(ctx)
	ctrl.Run(ctx, *workers)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Infow("nodeagent started", "node", *nodeName, "apiServer", *apiServerURL, "metricsAddr", *metricsAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("nodeagent exited", "error", err)
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
