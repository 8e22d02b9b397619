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

package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/scheduler"
)

func readyNode(name string) *v1alpha1.KubeObject {
	return &v1alpha1.KubeObject{
		Kind:     v1alpha1.KindNode,
		Metadata: v1alpha1.ObjectMeta{Name: name},
		Resource: v1alpha1.Resource{Node: &v1alpha1.Node{
			Status: v1alpha1.NodeStatus{
				Phase: v1alpha1.NodeRunning,
				Conditions: []v1alpha1.NodeCondition{{
					Type:          v1alpha1.ConditionReady,
					Status:        v1alpha1.ConditionTrue,
					LastHeartbeat: metav1.Time{Time: time.Now()},
				}},
			},
		}},
	}
}

func notReadyNode(name string) *v1alpha1.KubeObject {
	node := readyNode(name)
	node.Resource.Node.Status.Conditions[0].Status = v1alpha1.ConditionFalse
	return node
}

func podWithPort(name string, port uint16) *v1alpha1.Pod {
	return &v1alpha1.Pod{
		Spec: v1alpha1.PodSpec{
			Containers: []v1alpha1.Container{{
				Name:  "c",
				Image: "image",
				Ports: []v1alpha1.ContainerPort{{ContainerPort: port}},
			}},
		},
	}
}

func TestScheduleSkipsNotReadyNodes(t *testing.T) {
	algo := scheduler.Algorithm{
		Predicates: scheduler.DefaultPredicates(time.Now),
		Priority:   scheduler.RandomPriority,
	}
	nodes := []*v1alpha1.KubeObject{notReadyNode("n1"), readyNode("n2")}
	pod := podWithPort("p1", 8080)

	name, err := algo.Schedule(pod, nodes, nil)
	require.NoError(t, err)
	require.Equal(t, "n2", name)
}

func TestScheduleExcludesPortCollision(t *testing.T) {
	algo := scheduler.Default()
	nodes := []*v1alpha1.KubeObject{readyNode("n1")}
	pod := podWithPort("p1", 8080)
	bound := map[string][]*v1alpha1.Pod{"n1": {podWithPort("existing", 8080)}}

	_, err := algo.Schedule(pod, nodes, bound)
	require.ErrorIs(t, err, scheduler.ErrNoFit)
}

func TestScheduleReturnsNoFitWithNoNodes(t *testing.T) {
	algo := scheduler.Default()
	pod := podWithPort("p1", 8080)

	_, err := algo.Schedule(pod, nil, nil)
	require.ErrorIs(t, err, scheduler.ErrNoFit)
}
