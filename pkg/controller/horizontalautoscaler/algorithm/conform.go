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
	"math"
	"time"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Conform rate-limits a stabilized recommendation against the configured
// scale-up/scale-down Policies, per original_source's
// conform_with_behavior. It never widens desiredReplicas past min/max —
// that clamp happens separately in the controller after Conform returns.
func (h *History) Conform(name string, now time.Time, behavior v1alpha1.Behavior, currentReplicas, desiredReplicas uint32) uint32 {
	switch {
	case desiredReplicas > currentReplicas:
		limit := h.calcScaleUpLimit(name, now, currentReplicas, behavior.ScaleUp)
		if limit < currentReplicas {
			limit = currentReplicas
		}
		if desiredReplicas > limit {
			return limit
		}
		return desiredReplicas
	case desiredReplicas < currentReplicas:
		limit := h.calcScaleDownLimit(name, now, currentReplicas, behavior.ScaleDown)
		if limit > currentReplicas {
			limit = currentReplicas
		}
		if desiredReplicas < limit {
			return limit
		}
		return desiredReplicas
	default:
		return desiredReplicas
	}
}

func (h *History) calcScaleUpLimit(name string, now time.Time, currentReplicas uint32, rules v1alpha1.Rules) uint32 {
	if rules.SelectPolicy == v1alpha1.SelectDisabled {
		return currentReplicas
	}
	events := h.scaleUpEventsFor(name)

	var result uint32
	selectMax := rules.SelectPolicy == v1alpha1.SelectMax
	if selectMax {
		result = 0
	} else {
		result = math.MaxUint32
	}

	for _, policy := range rules.Policies {
		addedInPeriod := h.changeInPeriod(events, now, policy.PeriodSeconds)
		periodStart := currentReplicas - minUint32(addedInPeriod, currentReplicas)

		var periodLimit uint32
		switch policy.Type {
		case v1alpha1.PolicyPods:
			periodLimit = periodStart + uint32(policy.Value)
		case v1alpha1.PolicyPercent:
			periodLimit = uint32(math.Ceil(float64(periodStart) * (1 + float64(policy.Value)/100)))
		}

		if selectMax {
			result = maxUint32(result, periodLimit)
		} else {
			result = minUint32(result, periodLimit)
		}
	}
	return result
}

func (h *History) calcScaleDownLimit(name string, now time.Time, currentReplicas uint32, rules v1alpha1.Rules) uint32 {
	if rules.SelectPolicy == v1alpha1.SelectDisabled {
		return currentReplicas
	}
	events := h.scaleDownEventsFor(name)

	// Minimum change yields the maximum resulting value and vice versa,
	// the same inversion original_source's calc_scale_down_limit applies.
	var result uint32
	selectMax := rules.SelectPolicy == v1alpha1.SelectMax
	if selectMax {
		result = math.MaxUint32
	} else {
		result = 0
	}

	for _, policy := range rules.Policies {
		removedInPeriod := h.changeInPeriod(events, now, policy.PeriodSeconds)
		periodStart := currentReplicas + removedInPeriod

		var periodLimit uint32
		switch policy.Type {
		case v1alpha1.PolicyPods:
			periodLimit = 0
			if periodStart >= uint32(policy.Value) {
				periodLimit = periodStart - uint32(policy.Value)
			}
		case v1alpha1.PolicyPercent:
			periodLimit = uint32(math.Ceil(float64(periodStart) * (1 - float64(policy.Value)/100)))
		}

		if selectMax {
			result = minUint32(result, periodLimit)
		} else {
			result = maxUint32(result, periodLimit)
		}
	}
	return result
}

func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxUint32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
