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

// Package informer gives a controller a strongly-consistent, continuously
// updated local view of one resource kind, plus typed add/update/delete
// callbacks, per SPEC_FULL.md §4.B. It is this repo's analogue of
// k8s.io/client-go's tools/cache.NewInformer, grounded in the shape shown
// by other_examples' client-go informer samples: a Lister/Watcher pair and
// a ResourceEventHandlerFuncs-style callback bundle.
package informer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Lister performs the initial list for a resource kind, returning both the
// items and the store revision they were observed at.
type Lister func(ctx context.Context) ([]v1alpha1.KubeObject, int64, error)

// Watcher opens the long-lived change stream starting just after
// fromRevision. The returned channel is expected to close when the
// underlying connection drops.
type Watcher func(ctx context.Context, fromRevision int64) (<-chan v1alpha1.WatchEvent, error)

// EventHandler mirrors client-go's cache.ResourceEventHandlerFuncs: a
// single-argument AddFunc/DeleteFunc and a two-argument UpdateFunc, all
// invoked sequentially on the informer's own dispatch goroutine.
type EventHandler struct {
	OnAdd    func(obj *v1alpha1.KubeObject)
	OnUpdate func(old, new *v1alpha1.KubeObject)
	OnDelete func(old *v1alpha1.KubeObject)
}

func (h EventHandler) add(obj *v1alpha1.KubeObject) {
	if h.OnAdd != nil {
		h.OnAdd(obj)
	}
}

func (h EventHandler) update(old, new *v1alpha1.KubeObject) {
	if h.OnUpdate != nil {
		h.OnUpdate(old, new)
	}
}

func (h EventHandler) delete(old *v1alpha1.KubeObject) {
	if h.OnDelete != nil {
		h.OnDelete(old)
	}
}

// relistBackoff governs how aggressively a relist retries failed list
// calls, per spec.md §4.B step 3's "simple backoff acceptable".
var relistBackoff = wait.Backoff{
	Duration: 200 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
	Steps:    6,
	Cap:      10 * time.Second,
}

// Informer drives one Store to convergence with the server and fires
// EventHandler callbacks as it goes.
type Informer struct {
	lister  Lister
	watcher Watcher
	handler EventHandler
	store   *Store
	log     *zap.SugaredLogger
}

// New builds an Informer. The Store it returns is safe to read from any
// goroutine once Run has been started.
func New(lister Lister, watcher Watcher, handler EventHandler, log *zap.SugaredLogger) (*Informer, *Store) {
	store := newStore()
	return &Informer{
		lister:  lister,
		watcher: watcher,
		handler: handler,
		store:   store,
		log:     log,
	}, store
}

// Run executes the list-then-watch protocol until ctx is cancelled. When
// the watch stream ends or fails to open it relists at once and reopens
// the stream; only failed list calls are retried with relistBackoff's
// capped exponential backoff, per spec.md §4.B.
func (inf *Informer) Run(ctx context.Context) error {
	for {
		if err := inf.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			inf.log.Warnw("informer stream ended, relisting", "error", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// runOnce performs one list+watch cycle. It returns when the watch stream
// closes (error or server-initiated) or ctx is done.
func (inf *Informer) runOnce(ctx context.Context) error {
	var revision int64
	backoff := relistBackoff
	err := wait.ExponentialBackoff(backoff, func() (bool, error) {
		items, rev, listErr := inf.lister(ctx)
		if listErr != nil {
			inf.log.Warnw("informer list failed, retrying", "error", listErr)
			return false, nil
		}
		inf.store.replace(items)
		for i := range items {
			inf.handler.add(&items[i])
		}
		revision = rev
		return true, nil
	})
	if err != nil {
		return errors.Wrap(err, "informer list retries exhausted")
	}

	events, err := inf.watcher(ctx, revision+1)
	if err != nil {
		return errors.Wrap(err, "opening watch stream")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return errors.New("watch stream closed")
			}
			inf.dispatch(event)
		}
	}
}

func (inf *Informer) dispatch(event v1alpha1.WatchEvent) {
	switch event.Type {
	case v1alpha1.WatchPut:
		old, existed := inf.store.put(event.Key, event.Object)
		if existed {
			inf.handler.update(old, event.Object)
		} else {
			inf.handler.add(event.Object)
		}
	case v1alpha1.WatchDelete:
		if old, existed := inf.store.delete(event.Key); existed {
			inf.handler.delete(old)
		}
	}
}
