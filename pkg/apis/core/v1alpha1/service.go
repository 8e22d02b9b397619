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

// Service is stored, listed, and watched by this control plane; no
// in-scope control loop reconciles it, the proxy data plane is the
// documented external consumer.
type Service struct {
	Spec ServiceSpec `json:"spec"`
}

// ServiceSpec selects the pods a Service load-balances across.
type ServiceSpec struct {
	Selector  map[string]string `json:"selector"`
	Ports     []ServicePort     `json:"ports"`
	ClusterIP string            `json:"clusterIP,omitempty"`
}

// ServicePort maps an external port to a pod's container port.
type ServicePort struct {
	Port       uint16 `json:"port"`
	TargetPort uint16 `json:"targetPort"`
	Protocol   string `json:"protocol,omitempty"`
}

// Ingress is stored, listed, and watched; routing it to Services is the
// external proxy data plane's job.
type Ingress struct {
	Spec IngressSpec `json:"spec"`
}

// IngressSpec is a set of host/path routing rules.
type IngressSpec struct {
	Rules []IngressRule `json:"rules"`
}

// IngressRule routes one host's paths to backends.
type IngressRule struct {
	Host  string        `json:"host"`
	Paths []IngressPath `json:"paths"`
}

// IngressPath routes one path to a Service port.
type IngressPath struct {
	Path    string  `json:"path"`
	Backend Backend `json:"backend"`
}

// Backend names the Service and port an IngressPath forwards to.
type Backend struct {
	ServiceName string `json:"serviceName"`
	ServicePort uint16 `json:"servicePort"`
}
