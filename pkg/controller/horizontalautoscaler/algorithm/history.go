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
	"sync"
	"time"

	"github.com/samber/lo"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// recommendation is one unstabilized desired-replicas value, timestamped
// for the stabilization window scan.
type recommendation struct {
	replicas uint32
	at       time.Time
}

// scaleEvent is one applied scale, timestamped for the rate-limit window
// scan. change is always positive; direction is implied by which map it's
// stored in (scaleUpEvents vs scaleDownEvents).
type scaleEvent struct {
	change uint32
	at     time.Time
}

// History holds the per-HPA recommendation and scale-event memory the
// stabilization window and rate-limit policies read from. Per
// spec.md §5, this state is owned exclusively by the HPA reconciler —
// History guards its maps with a mutex so its methods are safe to call
// from more than one goroutine; the HPA controller's single Run loop is
// its only caller in this repo.
type History struct {
	mu              sync.Mutex
	recommendations map[string][]recommendation
	scaleUpEvents   map[string][]scaleEvent
	scaleDownEvents map[string][]scaleEvent
}

// NewHistory builds an empty History.
func NewHistory() *History {
	return &History{
		recommendations: make(map[string][]recommendation),
		scaleUpEvents:   make(map[string][]scaleEvent),
		scaleDownEvents: make(map[string][]scaleEvent),
	}
}

// Forget drops all memory for name, called when its HPA is deleted.
func (h *History) Forget(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.recommendations, name)
	delete(h.scaleUpEvents, name)
	delete(h.scaleDownEvents, name)
}

// Stabilize clamps a raw recommendation against the scale-up and
// scale-down stabilization windows, per original_source's
// stabilize_recommendation: the returned value never exceeds the maximum
// recommendation seen within the scale-down window, and never falls below
// the minimum recommendation seen within the scale-up window.
func (h *History) Stabilize(name string, now time.Time, currentReplicas, desiredReplicas uint32, behavior v1alpha1.Behavior) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	upCutoff := now.Add(-time.Duration(behavior.ScaleUp.StabilizationWindowSeconds) * time.Second)
	downCutoff := now.Add(-time.Duration(behavior.ScaleDown.StabilizationWindowSeconds) * time.Second)

	recs, seen := h.recommendations[name]
	if !seen {
		// original_source's reconcile seeds recommendations[name] with the
		// current count on first sight, so a freshly-created HPA's first
		// metrics-driven reconcile holds at the current count for the
		// scale-down stabilization window instead of jumping straight to
		// the raw recommendation.
		recs = []recommendation{{replicas: currentReplicas, at: now}}
	}
	recs = lo.Filter(recs, func(r recommendation, _ int) bool {
		return r.at.After(upCutoff) || r.at.After(downCutoff)
	})

	upRecommendation := desiredReplicas
	downRecommendation := desiredReplicas
	for _, r := range recs {
		if r.at.After(upCutoff) && r.replicas < upRecommendation {
			upRecommendation = r.replicas
		}
		if r.at.After(downCutoff) && r.replicas > downRecommendation {
			downRecommendation = r.replicas
		}
	}

	stabilized := currentReplicas
	if upRecommendation > stabilized {
		stabilized = upRecommendation
	}
	if downRecommendation < stabilized {
		stabilized = downRecommendation
	}

	recs = append(recs, recommendation{replicas: desiredReplicas, at: now})
	h.recommendations[name] = recs

	return stabilized
}

// RecordScaleEvent appends a scale-up or scale-down event for name and
// discards events older than the longest configured period for that
// direction, per original_source's record_scale_event/
// discard_outdated_scale_events.
func (h *History) RecordScaleEvent(name string, now time.Time, behavior v1alpha1.Behavior, prevReplicas, newReplicas uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case newReplicas > prevReplicas:
		events := discardOutdated(h.scaleUpEvents[name], now, longestPeriod(behavior.ScaleUp))
		h.scaleUpEvents[name] = append(events, scaleEvent{change: newReplicas - prevReplicas, at: now})
	case newReplicas < prevReplicas:
		events := discardOutdated(h.scaleDownEvents[name], now, longestPeriod(behavior.ScaleDown))
		h.scaleDownEvents[name] = append(events, scaleEvent{change: prevReplicas - newReplicas, at: now})
	}
}

func discardOutdated(events []scaleEvent, now time.Time, period int32) []scaleEvent {
	cutoff := now.Add(-time.Duration(period) * time.Second)
	return lo.Filter(events, func(e scaleEvent, _ int) bool { return e.at.After(cutoff) })
}

func longestPeriod(rules v1alpha1.Rules) int32 {
	var longest int32
	for _, p := range rules.Policies {
		if p.PeriodSeconds > longest {
			longest = p.PeriodSeconds
		}
	}
	return longest
}

func (h *History) changeInPeriod(events []scaleEvent, now time.Time, periodSeconds int32) uint32 {
	cutoff := now.Add(-time.Duration(periodSeconds) * time.Second)
	matching := lo.Filter(events, func(e scaleEvent, _ int) bool { return e.at.After(cutoff) })
	return uint32(lo.SumBy(matching, func(e scaleEvent) int { return int(e.change) }))
}

// scaleUpEventsFor and scaleDownEventsFor give Conform read access without
// exposing History's locking internals.
func (h *History) scaleUpEventsFor(name string) []scaleEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]scaleEvent(nil), h.scaleUpEvents[name]...)
}

func (h *History) scaleDownEventsFor(name string) []scaleEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]scaleEvent(nil), h.scaleDownEvents[name]...)
}
