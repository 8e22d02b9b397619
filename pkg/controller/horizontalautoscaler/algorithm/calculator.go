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

// Package algorithm implements spec.md §4.E's HPA math: computing a raw
// replica recommendation from metrics, then stabilizing and rate-limiting
// it against recorded history. Grounded on
// original_source/controllers/src/podautoscaler/horizontal.rs's
// ReplicaCalculator and PodAutoscaler methods of the same names.
package algorithm

import (
	"context"
	"math"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/metrics"
)

// ReplicaCalculator computes a raw (pre-stabilization) replica
// recommendation from one ResourceMetricSource reading.
type ReplicaCalculator struct {
	Metrics metrics.Client
}

// ComputeRawReplicas dispatches on the metric's target type, per
// original_source's compute_resource_replicas.
func (rc ReplicaCalculator) ComputeRawReplicas(ctx context.Context, metric v1alpha1.ResourceMetricSource, currentReplicas uint32, selector map[string]string) (uint32, error) {
	current, err := rc.Metrics.CurrentValue(ctx, metric.Name, selector)
	if err != nil {
		return 0, err
	}
	switch metric.TargetType {
	case v1alpha1.AverageUtilization, v1alpha1.AverageValue:
		return calcReplicas(currentReplicas, current, metric.TargetValue), nil
	default:
		return currentReplicas, nil
	}
}

// calcReplicas is the textbook HPA ratio: desired = ceil(current *
// observed/target). Both utilization and average-value targets reduce to
// the same ratio once "observed" is in the metric's own unit.
func calcReplicas(currentReplicas uint32, observed, target float64) uint32 {
	if target <= 0 {
		return currentReplicas
	}
	ratio := observed / target
	desired := math.Ceil(float64(currentReplicas) * ratio)
	if desired < 0 {
		desired = 0
	}
	return uint32(desired)
}
