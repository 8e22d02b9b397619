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

// Package v1alpha1 defines the KubeObject envelope and every resource kind
// this control plane persists: Pod, ReplicaSet, Service, Ingress, Node,
// Binding, HorizontalPodAutoscaler.
package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Kind discriminates the tagged variant carried by a KubeObject's Resource field.
type Kind string

const (
	KindPod                     Kind = "Pod"
	KindReplicaSet              Kind = "ReplicaSet"
	KindService                 Kind = "Service"
	KindIngress                 Kind = "Ingress"
	KindNode                    Kind = "Node"
	KindBinding                 Kind = "Binding"
	KindHorizontalPodAutoscaler Kind = "HorizontalPodAutoscaler"
)

// Plural returns the lowercase plural form used in storage keys and REST paths.
func (k Kind) Plural() string {
	switch k {
	case KindPod:
		return "pods"
	case KindReplicaSet:
		return "replicasets"
	case KindService:
		return "services"
	case KindIngress:
		return "ingresses"
	case KindNode:
		return "nodes"
	case KindBinding:
		return "bindings"
	case KindHorizontalPodAutoscaler:
		return "horizontalpodautoscalers"
	default:
		return ""
	}
}

// Namespaced reports whether objects of this kind are addressed within a namespace.
func (k Kind) Namespaced() bool {
	switch k {
	case KindNode, KindBinding:
		return false
	default:
		return true
	}
}

// ObjectMeta is the universal metadata every KubeObject carries.
type ObjectMeta struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace,omitempty"`
	UID               string            `json:"uid,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
	// ResourceVersion mirrors the etcd ModRevision that produced this value,
	// used by the store to linearize compare-and-set writes (Bindings).
	ResourceVersion   string            `json:"resourceVersion,omitempty"`
	CreationTimestamp metav1.Time       `json:"creationTimestamp,omitempty"`
}

// Key returns the canonical storage key for this kind/metadata pair.
func Key(kind Kind, meta ObjectMeta) string {
	if kind.Namespaced() && meta.Namespace != "" {
		return "/api/v1/" + kind.Plural() + "/" + meta.Namespace + "/" + meta.Name
	}
	return "/api/v1/" + kind.Plural() + "/" + meta.Name
}

// KubeObject is the universal envelope persisted by the object store.
type KubeObject struct {
	Kind     Kind       `json:"kind"`
	Metadata ObjectMeta `json:"metadata"`
	Resource Resource   `json:"resource"`
}

// Key returns this object's canonical storage key.
func (o *KubeObject) Key() string {
	return Key(o.Kind, o.Metadata)
}

// Resource is the closed sum of resource variants a KubeObject can carry.
// Exactly one field is populated, selected by the enclosing KubeObject.Kind;
// JSON encoding is externally tagged by field name, matching
// original_source's serde(tag) KubeResource enum.
type Resource struct {
	Pod                     *Pod                     `json:"Pod,omitempty"`
	ReplicaSet              *ReplicaSet              `json:"ReplicaSet,omitempty"`
	Service                 *Service                 `json:"Service,omitempty"`
	Ingress                 *Ingress                 `json:"Ingress,omitempty"`
	Node                    *Node                    `json:"Node,omitempty"`
	Binding                 *Binding                 `json:"Binding,omitempty"`
	HorizontalPodAutoscaler *HorizontalPodAutoscaler `json:"HorizontalPodAutoscaler,omitempty"`
}
