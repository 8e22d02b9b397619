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

// ReplicaSet drives the observed pod count matching Selector to Spec.Replicas.
type ReplicaSet struct {
	Spec   ReplicaSetSpec   `json:"spec"`
	Status ReplicaSetStatus `json:"status,omitempty"`
}

// ReplicaSetSpec is the declared state of a ReplicaSet.
type ReplicaSetSpec struct {
	Replicas uint32            `json:"replicas"`
	Selector map[string]string `json:"selector"`
	Template PodTemplate       `json:"template"`
}

// ReplicaSetStatus is the observed state, written back by the controller.
type ReplicaSetStatus struct {
	Replicas      uint32 `json:"replicas"`
	ReadyReplicas uint32 `json:"readyReplicas"`
}
