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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// HorizontalPodAutoscaler computes a target ReplicaSet's desired replica
// count from resource metrics, stabilizes it against recent history, and
// rate-limits the change before writing it back.
type HorizontalPodAutoscaler struct {
	Spec   HorizontalPodAutoscalerSpec   `json:"spec"`
	Status HorizontalPodAutoscalerStatus `json:"status,omitempty"`
}

// CrossVersionObjectReference names the target of a scaling decision.
type CrossVersionObjectReference struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// ResourceMetricSource is the single metric source this control plane
// supports: average utilization or average value of a named resource
// across the target's owned pods.
type ResourceMetricSource struct {
	Name         string           `json:"name"`
	TargetType   MetricTargetType `json:"targetType"`
	TargetValue  float64          `json:"targetValue"`
}

// MetricTargetType distinguishes how TargetValue is interpreted.
type MetricTargetType string

const (
	// AverageUtilization interprets TargetValue as a percentage.
	AverageUtilization MetricTargetType = "AverageUtilization"
	// AverageValue interprets TargetValue as an absolute per-pod value.
	AverageValue MetricTargetType = "AverageValue"
)

// HorizontalPodAutoscalerSpec is the declared autoscaling policy.
type HorizontalPodAutoscalerSpec struct {
	ScaleTargetRef CrossVersionObjectReference `json:"scaleTargetRef"`
	MinReplicas    uint32                      `json:"minReplicas"`
	MaxReplicas    uint32                      `json:"maxReplicas"`
	Metrics        ResourceMetricSource        `json:"metrics"`
	Behavior       Behavior                    `json:"behavior,omitempty"`
}

// Behavior configures scale-up and scale-down rate limiting independently.
type Behavior struct {
	ScaleUp   Rules `json:"scaleUp,omitempty"`
	ScaleDown Rules `json:"scaleDown,omitempty"`
}

// SelectPolicy picks among multiple scaling policies' computed limits.
type SelectPolicy string

const (
	SelectMin      SelectPolicy = "Min"
	SelectMax      SelectPolicy = "Max"
	SelectDisabled SelectPolicy = "Disabled"
)

// PolicyType is the unit a ScalingPolicy's Value is expressed in.
type PolicyType string

const (
	PolicyPods    PolicyType = "Pods"
	PolicyPercent PolicyType = "Percent"
)

// ScalingPolicy bounds the magnitude of change permitted over PeriodSeconds.
type ScalingPolicy struct {
	Type          PolicyType `json:"type"`
	Value         int32      `json:"value"`
	PeriodSeconds int32      `json:"periodSeconds"`
}

// Rules is the stabilization window plus rate-limit policies for one
// scaling direction.
type Rules struct {
	StabilizationWindowSeconds int32          `json:"stabilizationWindowSeconds"`
	SelectPolicy               SelectPolicy   `json:"selectPolicy,omitempty"`
	Policies                   []ScalingPolicy `json:"policies,omitempty"`
}

// HorizontalPodAutoscalerStatus is the observed state, written back after
// every reconcile that changes it.
type HorizontalPodAutoscalerStatus struct {
	CurrentReplicas uint32       `json:"currentReplicas"`
	DesiredReplicas uint32       `json:"desiredReplicas"`
	LastScaleTime   *metav1.Time `json:"lastScaleTime,omitempty"`
}
