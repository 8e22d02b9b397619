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

package container

import (
	"context"
	"sync"
)

// Fake is an in-memory Runtime: every EnsurePod call immediately reports
// every container Ready, with no actual process ever started. It exists so
// pkg/nodeagent and its tests can exercise the full reconcile path without
// a real container engine, per SPEC_FULL.md §1.
type Fake struct {
	mu    sync.Mutex
	pods  map[string][]Status
	stats map[string]float64
}

// NewFake builds an empty Fake runtime.
func NewFake() *Fake {
	return &Fake{
		pods:  make(map[string][]Status),
		stats: make(map[string]float64),
	}
}

// EnsurePod records podKey's containers as running and ready.
func (f *Fake) EnsurePod(_ context.Context, podKey string, containers []Spec) ([]Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing := map[string]Status{}
	for _, s := range f.pods[podKey] {
		existing[s.Name] = s
	}

	statuses := make([]Status, 0, len(containers))
	for _, c := range containers {
		s := existing[c.Name]
		s.Name = c.Name
		s.Ready = true
		statuses = append(statuses, s)
	}
	f.pods[podKey] = statuses
	return statuses, nil
}

// RemovePod forgets podKey.
func (f *Fake) RemovePod(_ context.Context, podKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pods, podKey)
	delete(f.stats, podKey)
	return nil
}

// Stats returns the value last set by SetStats for podKey, or 0.
func (f *Fake) Stats(_ context.Context, podKey string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats[podKey], nil
}

// SetStats lets tests and the fake's own driver script set a podKey's
// reported CPU utilization.
func (f *Fake) SetStats(podKey string, cpuUtilizationPercent float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[podKey] = cpuUtilizationPercent
}

// Pods returns a snapshot of every podKey currently tracked, for tests.
func (f *Fake) Pods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.pods))
	for k := range f.pods {
		keys = append(keys, k)
	}
	return keys
}
