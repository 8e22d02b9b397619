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

package scheduler

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// nodeCacheTTL bounds how stale the scheduler's view of "which nodes
// exist" may be between node-informer resyncs; it is intentionally much
// shorter than NodeLeaseTTL so readiness itself is always computed fresh
// from the cached Node object's own heartbeat, not from cache age.
const nodeCacheTTL = 2 * time.Second

// nodeCache memoizes the node informer's current snapshot so a burst of
// schedule attempts (many pending pods) does not each walk and
// re-validate the full informer store, following the teacher's
// pkg/cache/validation.go use of patrickmn/go-cache for a similarly
// short-lived derived value.
type nodeCache struct {
	cache *gocache.Cache
}

const nodesKey = "nodes"

func newNodeCache() *nodeCache {
	return &nodeCache{cache: gocache.New(nodeCacheTTL, nodeCacheTTL*2)}
}

func (c *nodeCache) get(load func() []*v1alpha1.KubeObject) []*v1alpha1.KubeObject {
	if cached, ok := c.cache.Get(nodesKey); ok {
		return cached.([]*v1alpha1.KubeObject)
	}
	nodes := load()
	c.cache.SetDefault(nodesKey, nodes)
	return nodes
}
