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

// Package store persists KubeObjects in etcd, keyed by their canonical API
// path, and multiplexes etcd's native watch into a fan-out hub so many
// informers can share one upstream watch per prefix.
package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Store is the authoritative, linearizable object store. Every other
// component in this repository holds a derived cache that may lag but
// must converge to what Store reports.
type Store struct {
	client *clientv3.Client
	log    *zap.SugaredLogger
}

// New wraps an already-connected etcd client.
func New(client *clientv3.Client, log *zap.SugaredLogger) *Store {
	return &Store{client: client, log: log}
}

// ListResult is the outcome of a prefix list, paired with the etcd
// revision it was observed at so a caller can open a gap-free watch from
// revision+1.
type ListResult struct {
	Items    []v1alpha1.KubeObject
	Revision int64
}

// List returns every object whose key begins with prefix.
func (s *Store) List(ctx context.Context, prefix string) (*ListResult, error) {
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, newError(KindTransport, prefix, err)
	}
	items := make([]v1alpha1.KubeObject, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var obj v1alpha1.KubeObject
		if err := json.Unmarshal(kv.Value, &obj); err != nil {
			s.log.Warnw("dropping malformed object", "key", string(kv.Key), "error", err)
			continue
		}
		obj.Metadata.ResourceVersion = revisionString(kv.ModRevision)
		items = append(items, obj)
	}
	return &ListResult{Items: items, Revision: resp.Header.Revision}, nil
}

// Get returns the object stored at key.
func (s *Store) Get(ctx context.Context, key string) (*v1alpha1.KubeObject, error) {
	resp, err := s.client.Get(ctx, key)
	if err != nil {
		return nil, newError(KindTransport, key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, newError(KindNotFound, key, nil)
	}
	var obj v1alpha1.KubeObject
	if err := json.Unmarshal(resp.Kvs[0].Value, &obj); err != nil {
		return nil, newError(KindMalformed, key, err)
	}
	obj.Metadata.ResourceVersion = revisionString(resp.Kvs[0].ModRevision)
	return &obj, nil
}

// Put creates or replaces the object at key. The write is whole: a
// concurrent Get never observes a half-serialized value, since etcd's
// Put is a single linearized transaction over the fully-marshaled bytes.
func (s *Store) Put(ctx context.Context, key string, obj *v1alpha1.KubeObject) error {
	body, err := json.Marshal(obj)
	if err != nil {
		return newError(KindMalformed, key, err)
	}
	if _, err := s.client.Put(ctx, key, string(body)); err != nil {
		return newError(KindTransport, key, err)
	}
	return nil
}

// Delete removes key. Idempotent: deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Delete(ctx, key); err != nil {
		return newError(KindTransport, key, err)
	}
	return nil
}

// Bind applies a Binding as a compare-and-set against the target pod: it
// refuses with Conflict if spec.nodeName is already set, otherwise sets it
// and writes back inside one etcd transaction. This linearizes bindings
// per the recommendation in SPEC_FULL.md §4.A, closing the race the
// original source left open.
func (s *Store) Bind(ctx context.Context, podKey, nodeName string) error {
	current, err := s.Get(ctx, podKey)
	if err != nil {
		return err
	}
	if current.Resource.Pod == nil {
		return newError(KindMalformed, podKey, errors.New("binding target is not a Pod"))
	}
	if current.Resource.Pod.Spec.NodeName != "" {
		return newError(KindConflict, podKey, errors.Errorf("pod already bound to %s", current.Resource.Pod.Spec.NodeName))
	}

	modRevision, err := modRevisionOf(current.Metadata.ResourceVersion)
	if err != nil {
		return newError(KindMalformed, podKey, err)
	}

	updated := *current
	updated.Resource.Pod.Spec.NodeName = nodeName
	body, err := json.Marshal(&updated)
	if err != nil {
		return newError(KindMalformed, podKey, err)
	}

	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(podKey), "=", modRevision)).
		Then(clientv3.OpPut(podKey, string(body))).
		Commit()
	if err != nil {
		return newError(KindTransport, podKey, err)
	}
	if !resp.Succeeded {
		return newError(KindConflict, podKey, errors.New("pod was modified concurrently"))
	}
	return nil
}
