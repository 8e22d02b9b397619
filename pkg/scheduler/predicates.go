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

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Predicate excludes infeasible nodes from consideration for pod.
type Predicate func(pod *v1alpha1.Pod, node *v1alpha1.KubeObject, boundPods []*v1alpha1.Pod) bool

// NodeIsReady admits nodes whose computed status is Ready, per
// SPEC_FULL.md §3's Node.IsReady definition.
func NodeIsReady(now func() time.Time) Predicate {
	return func(_ *v1alpha1.Pod, node *v1alpha1.KubeObject, _ []*v1alpha1.Pod) bool {
		if node.Resource.Node == nil {
			return false
		}
		return node.Resource.Node.IsReady(now())
	}
}

// PodFitsPorts admits a node only if none of its already-bound pods
// declare a container port that collides with one declared by pod.
func PodFitsPorts(pod *v1alpha1.Pod, _ *v1alpha1.KubeObject, boundPods []*v1alpha1.Pod) bool {
	wanted := containerPorts(pod)
	if len(wanted) == 0 {
		return true
	}
	for _, bound := range boundPods {
		for port := range containerPorts(bound) {
			if wanted[port] {
				return false
			}
		}
	}
	return true
}

func containerPorts(pod *v1alpha1.Pod) map[uint16]bool {
	ports := make(map[uint16]bool)
	for _, c := range pod.Spec.Containers {
		for _, p := range c.Ports {
			ports[p.ContainerPort] = true
		}
	}
	return ports
}

// DefaultPredicates is the pipeline spec.md §4.C ships by default.
func DefaultPredicates(now func() time.Time) []Predicate {
	return []Predicate{NodeIsReady(now), PodFitsPorts}
}
