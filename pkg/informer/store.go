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

package informer

import (
	"sync"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Store is the informer's read-only (to callers) local cache: single
// writer (the informer's own dispatch goroutine), many concurrent readers,
// per spec.md §4.B's reader/writer discipline.
type Store struct {
	mu    sync.RWMutex
	items map[string]*v1alpha1.KubeObject
}

func newStore() *Store {
	return &Store{items: make(map[string]*v1alpha1.KubeObject)}
}

// List returns a snapshot slice of every cached object. Callers must not
// mutate the returned objects.
func (s *Store) List() []*v1alpha1.KubeObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*v1alpha1.KubeObject, 0, len(s.items))
	for _, obj := range s.items {
		out = append(out, obj)
	}
	return out
}

// Get returns the cached object at key, if any.
func (s *Store) Get(key string) (*v1alpha1.KubeObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.items[key]
	return obj, ok
}

func (s *Store) replace(items []v1alpha1.KubeObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*v1alpha1.KubeObject, len(items))
	for i := range items {
		obj := items[i]
		s.items[obj.Key()] = &obj
	}
}

func (s *Store) put(key string, obj *v1alpha1.KubeObject) (old *v1alpha1.KubeObject, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, existed = s.items[key]
	s.items[key] = obj
	return old, existed
}

func (s *Store) delete(key string) (old *v1alpha1.KubeObject, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, existed = s.items[key]
	delete(s.items, key)
	return old, existed
}
