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

// Package scheduler implements spec.md §4.C: assign each pod with an empty
// spec.node_name to a node, via a pluggable predicate/priority pipeline
// mirroring the teacher's separation of
// pkg/controllers/provisioning/scheduling (the policy) from
// pkg/controllers/provisioning (the loop).
package scheduler

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// ErrNoFit is returned when no node passes every predicate.
var ErrNoFit = errors.New("no node fits pod")

// Priority ranks predicate-passing nodes and picks one. The default is
// uniform-random selection, spec.md's documented default.
type Priority func(candidates []*v1alpha1.KubeObject) *v1alpha1.KubeObject

// RandomPriority picks uniformly at random among candidates.
func RandomPriority(candidates []*v1alpha1.KubeObject) *v1alpha1.KubeObject {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}

// Algorithm is the pluggable schedule(pod, []node) function spec.md §4.C
// calls for.
type Algorithm struct {
	Predicates []Predicate
	Priority   Priority
}

// Default is the pipeline shipped by SPEC_FULL.md §4.C: NodeIsReady +
// PodFitsPorts predicates, uniform-random priority.
func Default() Algorithm {
	return Algorithm{
		Predicates: DefaultPredicates(time.Now),
		Priority:   RandomPriority,
	}
}

// Schedule filters nodes by every predicate, then asks Priority to pick
// one of the survivors. podsByNode supplies each node's currently-bound
// pods so port-collision predicates can be evaluated.
func (a Algorithm) Schedule(pod *v1alpha1.Pod, nodes []*v1alpha1.KubeObject, podsByNode map[string][]*v1alpha1.Pod) (string, error) {
	var candidates []*v1alpha1.KubeObject
	for _, node := range nodes {
		if node.Resource.Node == nil {
			continue
		}
		bound := podsByNode[node.Metadata.Name]
		fits := true
		for _, predicate := range a.Predicates {
			if !predicate(pod, node, bound) {
				fits = false
				break
			}
		}
		if fits {
			candidates = append(candidates, node)
		}
	}
	chosen := a.Priority(candidates)
	if chosen == nil {
		return "", ErrNoFit
	}
	return chosen.Metadata.Name, nil
}
