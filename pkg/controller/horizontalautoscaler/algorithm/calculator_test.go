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

package algorithm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/controller/horizontalautoscaler/algorithm"
)

type fakeMetricsClient struct{ value float64 }

func (f fakeMetricsClient) CurrentValue(context.Context, string, map[string]string) (float64, error) {
	return f.value, nil
}

func TestComputeRawReplicasScalesProportionally(t *testing.T) {
	rc := algorithm.ReplicaCalculator{Metrics: fakeMetricsClient{value: 80}}
	metric := v1alpha1.ResourceMetricSource{Name: "cpu", TargetType: v1alpha1.AverageUtilization, TargetValue: 50}

	desired, err := rc.ComputeRawReplicas(context.Background(), metric, 2, nil)
	require.NoError(t, err)
	// current 2 * (80/50) = 3.2, rounded up to 4.
	require.Equal(t, uint32(4), desired)
}

func TestComputeRawReplicasHoldsWhenAtTarget(t *testing.T) {
	rc := algorithm.ReplicaCalculator{Metrics: fakeMetricsClient{value: 50}}
	metric := v1alpha1.ResourceMetricSource{Name: "cpu", TargetType: v1alpha1.AverageUtilization, TargetValue: 50}

	desired, err := rc.ComputeRawReplicas(context.Background(), metric, 3, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(3), desired)
}
