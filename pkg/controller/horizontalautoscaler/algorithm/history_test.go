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

package algorithm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// TestStabilizeHoldsWithinScaleDownWindow reproduces spec.md §8 scenario 5:
// a scale-down stabilization window that forces the raw recommendation of
// 3 back up to 5, given recent recommendations of 5 and 4.
func TestStabilizeHoldsWithinScaleDownWindow(t *testing.T) {
	h := NewHistory()
	now := time.Now()
	h.recommendations["r1"] = []recommendation{
		{replicas: 5, at: now.Add(-200 * time.Second)},
		{replicas: 4, at: now.Add(-100 * time.Second)},
	}
	behavior := v1alpha1.Behavior{
		ScaleUp:   v1alpha1.Rules{StabilizationWindowSeconds: 0},
		ScaleDown: v1alpha1.Rules{StabilizationWindowSeconds: 300},
	}

	stabilized := h.Stabilize("r1", now, 5, 3, behavior)
	require.Equal(t, uint32(5), stabilized)
}

// TestStabilizeSeedsCurrentCountOnFirstSight reproduces the maintainer's
// reported regression: a freshly-created HPA (no recommendation history
// yet) with a 300s scale-down stabilization window must hold at the
// current replica count on its first metrics-driven reconcile, not jump
// straight to the raw recommendation.
func TestStabilizeSeedsCurrentCountOnFirstSight(t *testing.T) {
	h := NewHistory()
	behavior := v1alpha1.Behavior{
		ScaleDown: v1alpha1.Rules{StabilizationWindowSeconds: 300},
	}

	stabilized := h.Stabilize("r1", time.Now(), 5, 3, behavior)
	require.Equal(t, uint32(5), stabilized)
}

// TestConformAppliesPercentRateLimit reproduces spec.md §8 scenario 6: a
// 100%-per-60s scale-up policy limits a stabilized recommendation of 20
// down to 8 when current replicas is 4 and there are no prior events.
func TestConformAppliesPercentRateLimit(t *testing.T) {
	h := NewHistory()
	behavior := v1alpha1.Behavior{
		ScaleUp: v1alpha1.Rules{
			SelectPolicy: v1alpha1.SelectMax,
			Policies: []v1alpha1.ScalingPolicy{
				{Type: v1alpha1.PolicyPercent, Value: 100, PeriodSeconds: 60},
			},
		},
	}

	limited := h.Conform("r1", time.Now(), behavior, 4, 20)
	require.Equal(t, uint32(8), limited)
}

func TestConformPodsPolicyNeverUnderflowsOnScaleDown(t *testing.T) {
	h := NewHistory()
	behavior := v1alpha1.Behavior{
		ScaleDown: v1alpha1.Rules{
			SelectPolicy: v1alpha1.SelectMax,
			Policies: []v1alpha1.ScalingPolicy{
				{Type: v1alpha1.PolicyPods, Value: 10, PeriodSeconds: 60},
			},
		},
	}

	limited := h.Conform("r1", time.Now(), behavior, 2, 0)
	require.Equal(t, uint32(0), limited)
}

// TestConformWithNoPoliciesDoesNotCapScaleUp reproduces the maintainer's
// reported divergence: SelectPolicy: Min with an empty Policies list must
// not cap scale-up at the current replica count, matching the original's
// guard on Disabled alone.
func TestConformWithNoPoliciesDoesNotCapScaleUp(t *testing.T) {
	h := NewHistory()
	behavior := v1alpha1.Behavior{
		ScaleUp: v1alpha1.Rules{SelectPolicy: v1alpha1.SelectMin},
	}

	limited := h.Conform("r1", time.Now(), behavior, 5, 20)
	require.Equal(t, uint32(20), limited)
}

func TestRecordScaleEventDiscardsOutdatedEvents(t *testing.T) {
	h := NewHistory()
	now := time.Now()
	behavior := v1alpha1.Behavior{
		ScaleUp: v1alpha1.Rules{Policies: []v1alpha1.ScalingPolicy{{PeriodSeconds: 60}}},
	}
	h.scaleUpEvents["r1"] = []scaleEvent{{change: 2, at: now.Add(-120 * time.Second)}}

	h.RecordScaleEvent("r1", now, behavior, 4, 6)

	events := h.scaleUpEventsFor("r1")
	require.Len(t, events, 1)
	require.Equal(t, uint32(2), events[0].change)
}
