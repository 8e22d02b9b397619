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

package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

// PodPhase is the coarse lifecycle phase of a Pod.
type PodPhase string

const (
	PodPending   PodPhase = "Pending"
	PodRunning   PodPhase = "Running"
	PodSucceeded PodPhase = "Succeeded"
	PodFailed    PodPhase = "Failed"
)

// Pod is the unit of scheduling and execution.
type Pod struct {
	Spec   PodSpec   `json:"spec"`
	Status PodStatus `json:"status,omitempty"`
}

// PodSpec describes the desired state of a Pod. Cannot be updated after
// creation except for NodeName, which the store sets via a Binding.
type PodSpec struct {
	Containers []Container `json:"containers"`
	// NodeName is empty until the scheduler binds the pod.
	NodeName string `json:"nodeName,omitempty"`
}

// Container is a single container belonging to a Pod.
type Container struct {
	Name  string          `json:"name"`
	Image string          `json:"image"`
	Ports []ContainerPort `json:"ports,omitempty"`
}

// ContainerPort is a single port exposed from a container.
type ContainerPort struct {
	ContainerPort uint16 `json:"containerPort"`
}

// PodStatus is mutated by the node agent, never by the user directly.
type PodStatus struct {
	Phase             PodPhase           `json:"phase,omitempty"`
	StartTime         *metav1.Time       `json:"startTime,omitempty"`
	ContainerStatuses []ContainerStatus  `json:"containerStatuses,omitempty"`
}

// ContainerStatus reports the node agent's observation of one container.
type ContainerStatus struct {
	Name         string `json:"name"`
	RestartCount int32  `json:"restartCount"`
	Ready        bool   `json:"ready"`
}

// PodTemplate is the shape a ReplicaSet stamps out new Pods from.
type PodTemplate struct {
	Metadata ObjectMeta `json:"metadata"`
	Spec     PodSpec    `json:"spec"`
}
