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

// Package container is the node agent's boundary to an actual container
// runtime. Per SPEC_FULL.md §1's Non-goal, this repo never talks to a real
// Docker/OCI daemon; Runtime is the pluggable interface the node agent
// reconciles against, with Fake as the only implementation in this tree.
package container

import "context"

// Status reports one container's observed state within a pod.
type Status struct {
	Name         string
	Ready        bool
	RestartCount int32
}

// Runtime is the node agent's dependency on an actual container engine.
// podKey is the owning pod's storage key, used to group containers that
// belong to the same pod without the runtime needing to know about
// KubeObjects.
type Runtime interface {
	// EnsurePod brings podKey's containers to the running state,
	// creating or restarting as needed, and reports their status.
	EnsurePod(ctx context.Context, podKey string, containers []Spec) ([]Status, error)
	// RemovePod tears down every container belonging to podKey. Removing
	// an already-absent pod is not an error.
	RemovePod(ctx context.Context, podKey string) error
	// Stats returns a synthetic CPU utilization percentage for podKey,
	// the node agent's only source of the resource data the HPA's
	// PrometheusClient consumes in this repo.
	Stats(ctx context.Context, podKey string) (cpuUtilizationPercent float64, err error)
}

// Spec is the runtime-facing projection of v1alpha1.Container, kept free
// of the API types so Runtime implementations don't import pkg/apis.
type Spec struct {
	Name  string
	Image string
}
