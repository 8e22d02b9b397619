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
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/minik8s/controlplane/internal/env"
	"github.com/minik8s/controlplane/internal/logging"
	"github.com/minik8s/controlplane/pkg/apiserver"
	"github.com/minik8s/controlplane/pkg/store"
)

func main() {
	var (
		etcdEndpoints = flag.String("etcd-endpoints", env.WithDefaultString("ETCD_ENDPOINTS", "127.0.0.1:2379"), "Comma-separated etcd endpoints")
		listenAddr    = flag.String("listen-addr", env.WithDefaultString("LISTEN_ADDR", ":8080"), "Address the REST + watch API binds to")
		debug         = flag.Bool("debug", env.WithDefaultBool("DEBUG", false), "Enable human-readable development logging")
	)
	flag.Parse()

	logger := logging.New("apiserver", *debug)
	defer logger.Sync()
	log := logger.Sugar()

	etcdClient, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(*etcdEndpoints, ","),
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		log.Fatalw("failed to connect to etcd", "error", err)
	}
	defer etcdClient.Close()

	s := store.New(etcdClient, log)
	hub := store.NewHub(etcdClient, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := apiserver.New(s, hub, log)
	httpServer := &http.Server{Addr: *listenAddr, Handler: server.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Infow("apiserver listening", "addr", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("apiserver exited", "error", err)
	}
	fmt.Println("apiserver shut down cleanly")
}
