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

// cmd/controller-manager hosts every control loop that isn't the
// scheduler or the node agent: the replica-set controller and the
// horizontal pod autoscaler controller, mirroring the teacher's
// cmd/controller binary hosting multiple controllers behind one manager.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/minik8s/controlplane/internal/env"
	"github.com/minik8s/controlplane/internal/logging"
	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
	"github.com/minik8s/controlplane/pkg/controller/horizontalautoscaler"
	"github.com/minik8s/controlplane/pkg/controller/replicaset"
	"github.com/minik8s/controlplane/pkg/informer"
	"github.com/minik8s/controlplane/pkg/metrics"
)

// managerConfig is the YAML shape loaded by viper when -config is given,
// matching original_source/api_server/src/main.rs's config::Config pattern
// of a flag-overridable struct rather than flags alone.
type managerConfig struct {
	APIServerURL string `mapstructure:"apiServerURL"`
	MetricsAddr  string `mapstructure:"metricsAddr"`
	Workers      int    `mapstructure:"workers"`
	Debug        bool   `mapstructure:"debug"`
}

func loadConfig() managerConfig {
	cfg := managerConfig{
		APIServerURL: env.WithDefaultString("API_SERVER_URL", "http://127.0.0.1:8080"),
		MetricsAddr:  env.WithDefaultString("METRICS_ADDR", ":8083"),
		Workers:      env.WithDefaultInt("WORKERS", 2),
		Debug:        env.WithDefaultBool("DEBUG", false),
	}

	configPath := flag.String("config", "", "Optional YAML config file overriding the flags/env defaults below")
	flag.StringVar(&cfg.APIServerURL, "api-server-url", cfg.APIServerURL, "Base URL of the API server")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Address the /healthz and /metrics endpoints bind to")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of reconcile workers per controller")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable human-readable development logging")
	flag.Parse()

	if *configPath != "" {
		v := viper.New()
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err == nil {
			_ = v.Unmarshal(&cfg)
		}
	}
	return cfg
}

func main() {
	cfg := loadConfig()

	logger := logging.New("controller-manager", cfg.Debug)
	defer logger.Sync()
	log := logger.Sugar()

	c := client.New(cfg.APIServerURL)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	rsMetrics := metrics.NewReconcileMetrics(registry, "replicaset")
	hpaMetrics := metrics.NewReconcileMetrics(registry, "horizontalautoscaler")
	metricsClient := metrics.NewPrometheusClient()

	var rsCtrl *replicaset.Controller
	podInformer, podStore := informer.New(
		listerFor(c, v1alpha1.KindPod),
		watcherFor(c, v1alpha1.KindPod),
		informer.EventHandler{
			OnAdd:    func(obj *v1alpha1.KubeObject) { rsCtrl.HandlePodEvent(obj) },
			OnUpdate: func(_, new *v1alpha1.KubeObject) { rsCtrl.HandlePodEvent(new) },
			OnDelete: func(old *v1alpha1.KubeObject) { rsCtrl.HandlePodEvent(old) },
		},
		log,
	)
	var rsInformer *informer.Informer
	var rsStore *informer.Store
	rsInformer, rsStore = informer.New(
		listerFor(c, v1alpha1.KindReplicaSet),
		watcherFor(c, v1alpha1.KindReplicaSet),
		informer.EventHandler{
			OnAdd:    func(obj *v1alpha1.KubeObject) { rsCtrl.HandleReplicaSetEvent(obj) },
			OnUpdate: func(_, new *v1alpha1.KubeObject) { rsCtrl.HandleReplicaSetEvent(new) },
		},
		log,
	)
	rsCtrl = replicaset.NewController(c, rsStore, podStore, rsMetrics, log)

	var hpaCtrl *horizontalautoscaler.Controller
	hpaInformer, hpaStore := informer.New(
		listerFor(c, v1alpha1.KindHorizontalPodAutoscaler),
		watcherFor(c, v1alpha1.KindHorizontalPodAutoscaler),
		informer.EventHandler{
			OnAdd:    func(obj *v1alpha1.KubeObject) { hpaCtrl.HandleHPAEvent(obj) },
			OnUpdate: func(_, new *v1alpha1.KubeObject) { hpaCtrl.HandleHPAEvent(new) },
		},
		log,
	)
	hpaCtrl = horizontalautoscaler.NewController(c, hpaStore, metricsClient, hpaMetrics, log)

	go podInformer.Run(ctx)
	go rsInformer.Run(ctx)
	go hpaInformer.Run(ctx)
	rsCtrl.Run(ctx, cfg.Workers)
	go hpaCtrl.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Infow("controller-manager started", "apiServer", cfg.APIServerURL, "metricsAddr", cfg.MetricsAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("controller-manager exited", "error", err)
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
