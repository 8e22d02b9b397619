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

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// NodeLeaseTTL is how long a Node's last heartbeat may age before the
// computed Ready condition is considered stale, mirroring kubelet's
// node-lease renewal window.
const NodeLeaseTTL = 40 * time.Second

// NodePhase is the coarse lifecycle phase of a Node.
type NodePhase string

const (
	NodePending    NodePhase = "Pending"
	NodeRunning    NodePhase = "Running"
	NodeTerminated NodePhase = "Terminated"
)

// ConditionStatus is the tri-state value of a NodeCondition.
type ConditionStatus string

const (
	ConditionTrue    ConditionStatus = "True"
	ConditionFalse   ConditionStatus = "False"
	ConditionUnknown ConditionStatus = "Unknown"
)

// ConditionType names a dimension of node health. Ready is the only
// condition type the scheduler's predicates consult.
type ConditionType string

const ConditionReady ConditionType = "Ready"

// Node is a schedulable host, created by the node agent on first heartbeat.
type Node struct {
	Spec   NodeSpec   `json:"spec"`
	Status NodeStatus `json:"status,omitempty"`
}

// NodeSpec is the declared state of a Node.
type NodeSpec struct {
	Unschedulable bool `json:"unschedulable,omitempty"`
}

// NodeStatus is the node agent's self-reported state.
type NodeStatus struct {
	Phase      NodePhase       `json:"phase,omitempty"`
	Conditions []NodeCondition `json:"conditions,omitempty"`
}

// NodeCondition is one observed health dimension of a Node.
type NodeCondition struct {
	Type            ConditionType   `json:"type"`
	Status          ConditionStatus `json:"status"`
	LastHeartbeat   metav1.Time     `json:"lastHeartbeat"`
}

// IsReady reports whether n has a fresh Ready=True condition, per
// NodeLeaseTTL. The scheduler's NodeIsReady predicate calls this rather
// than trusting NodeStatus.Phase directly, since phase can lag a dead
// node agent.
func (n *Node) IsReady(now time.Time) bool {
	if n.Spec.Unschedulable {
		return false
	}
	for _, c := range n.Status.Conditions {
		if c.Type != ConditionReady {
			continue
		}
		if c.Status != ConditionTrue {
			return false
		}
		return now.Sub(c.LastHeartbeat.Time) < NodeLeaseTTL
	}
	return false
}
