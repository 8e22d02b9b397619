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

package store

import (
	"context"
	"encoding/json"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Hub multiplexes etcd's native watch into any number of subscriber
// channels, holding exactly one upstream watch per active prefix
// regardless of subscriber count.
type Hub struct {
	client *clientv3.Client
	log    *zap.SugaredLogger

	mu       sync.Mutex
	prefixes map[string]*prefixWatch
}

type prefixWatch struct {
	cancel context.CancelFunc
	mu     sync.Mutex
	sinks  map[chan v1alpha1.WatchEvent]struct{}
	closed bool
}

// NewHub constructs a watch hub over client.
func NewHub(client *clientv3.Client, log *zap.SugaredLogger) *Hub {
	return &Hub{client: client, log: log, prefixes: map[string]*prefixWatch{}}
}

// Subscribe returns a channel that receives every Put/Delete event under
// prefix from fromRevision onward, and an unsubscribe func the caller must
// invoke when done. Channel is sized 16 per the spec's default backpressure
// budget; a slow subscriber blocks further delivery until it drains,
// which also stalls delivery to every other subscriber of the same
// prefix, since broadcast holds the prefix's lock across the send to
// each sink.
func (h *Hub) Subscribe(ctx context.Context, prefix string, fromRevision int64) (<-chan v1alpha1.WatchEvent, func()) {
	h.mu.Lock()
	pw, ok := h.prefixes[prefix]
	if !ok {
		watchCtx, cancel := context.WithCancel(context.Background())
		pw = &prefixWatch{cancel: cancel, sinks: map[chan v1alpha1.WatchEvent]struct{}{}}
		h.prefixes[prefix] = pw
		go h.pump(watchCtx, prefix, pw, fromRevision)
	}
	h.mu.Unlock()

	pw.mu.Lock()
	if pw.closed {
		// pw's pump already hit a watch error and tore it down; its
		// entry in h.prefixes is being (or has been) removed by pump,
		// so retry to attach to, or create, a live one instead of
		// subscribing to a pump-less prefixWatch that will never
		// deliver anything.
		pw.mu.Unlock()
		h.mu.Lock()
		if h.prefixes[prefix] == pw {
			delete(h.prefixes, prefix)
		}
		h.mu.Unlock()
		return h.Subscribe(ctx, prefix, fromRevision)
	}
	sink := make(chan v1alpha1.WatchEvent, 16)
	pw.sinks[sink] = struct{}{}
	pw.mu.Unlock()

	unsubscribe := func() {
		pw.mu.Lock()
		delete(pw.sinks, sink)
		empty := len(pw.sinks) == 0
		pw.mu.Unlock()
		if empty {
			h.mu.Lock()
			if h.prefixes[prefix] == pw {
				delete(h.prefixes, prefix)
			}
			h.mu.Unlock()
			pw.cancel()
		}
	}
	return sink, unsubscribe
}

func (h *Hub) pump(ctx context.Context, prefix string, pw *prefixWatch, fromRevision int64) {
	opts := []clientv3.OpOption{clientv3.WithPrefix()}
	if fromRevision > 0 {
		opts = append(opts, clientv3.WithRev(fromRevision))
	}
	watchChan := h.client.Watch(ctx, prefix, opts...)
	for resp := range watchChan {
		if err := resp.Err(); err != nil {
			h.log.Warnw("watch stream error, subscribers must relist", "prefix", prefix, "error", err)
			h.broadcastClose(pw)
			h.removePrefix(prefix, pw)
			return
		}
		for _, ev := range resp.Events {
			h.broadcast(pw, toWatchEvent(ev))
		}
	}
}

func toWatchEvent(ev *clientv3.Event) v1alpha1.WatchEvent {
	key := string(ev.Kv.Key)
	if ev.Type == clientv3.EventTypeDelete {
		return v1alpha1.WatchEvent{Type: v1alpha1.WatchDelete, Key: key}
	}
	var obj v1alpha1.KubeObject
	if err := json.Unmarshal(ev.Kv.Value, &obj); err != nil {
		return v1alpha1.WatchEvent{Type: v1alpha1.WatchDelete, Key: key}
	}
	obj.Metadata.ResourceVersion = revisionString(ev.Kv.ModRevision)
	return v1alpha1.WatchEvent{Type: v1alpha1.WatchPut, Key: key, Object: &obj}
}

func (h *Hub) broadcast(pw *prefixWatch, event v1alpha1.WatchEvent) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	for sink := range pw.sinks {
		sink <- event
	}
}

func (h *Hub) broadcastClose(pw *prefixWatch) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.closed = true
	for sink := range pw.sinks {
		close(sink)
	}
	pw.sinks = map[chan v1alpha1.WatchEvent]struct{}{}
}

// removePrefix drops pw from h.prefixes if it is still the active watch
// for prefix, so a Subscribe racing in after the pump has torn pw down
// creates a fresh pump instead of attaching to a dead one.
func (h *Hub) removePrefix(prefix string, pw *prefixWatch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.prefixes[prefix] == pw {
		delete(h.prefixes, prefix)
	}
}
