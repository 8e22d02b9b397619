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

// Package nodeagent is the reference node agent: it binds a nodeName to the
// pods the scheduler assigns it, drives them through a pluggable
// container.Runtime, and renews the Node's lease so the scheduler's
// NodeIsReady predicate keeps treating the host as schedulable.
// Grounded on original_source/rkubelet/src/main.rs and
// original_source/resources/src/config/kubelet.rs.
package nodeagent

import (
	"context"
	"time"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
)

// HeartbeatInterval is how often the agent renews its Node's Ready
// condition. Kept well under v1alpha1.NodeLeaseTTL (40s) so a single missed
// PUT never flips the node unschedulable, mirroring
// KubeletConfig.node_status_update_frequency (10s) from the original.
const HeartbeatInterval = 10 * time.Second

// runHeartbeat registers nodeName's Node if absent, then renews its Ready
// condition every HeartbeatInterval until ctx is cancelled.
func runHeartbeat(ctx context.Context, c *client.Client, nodeName string, log *zap.SugaredLogger) {
	if err := ensureNode(ctx, c, nodeName); err != nil {
		log.Errorw("failed to register node", "node", nodeName, "error", err)
	}
	wait.UntilWithContext(ctx, func(ctx context.Context) {
		if err := beat(ctx, c, nodeName); err != nil {
			log.Warnw("heartbeat failed", "node", nodeName, "error", err)
		}
	}, HeartbeatInterval)
}

func ensureNode(ctx context.Context, c *client.Client, nodeName string) error {
	if _, err := c.Get(ctx, v1alpha1.KindNode, nodeName); err == nil {
		return nil
	} else if !client.IsNotFound(err) {
		return err
	}
	obj := &v1alpha1.KubeObject{
		Kind:     v1alpha1.KindNode,
		Metadata: v1alpha1.ObjectMeta{Name: nodeName},
		Resource: v1alpha1.Resource{Node: &v1alpha1.Node{Status: v1alpha1.NodeStatus{Phase: v1alpha1.NodePending}}},
	}
	_, err := c.Create(ctx, obj)
	return err
}

func beat(ctx context.Context, c *client.Client, nodeName string) error {
	obj, err := c.Get(ctx, v1alpha1.KindNode, nodeName)
	if err != nil {
		return err
	}
	node := obj.Resource.Node
	node.Status.Phase = v1alpha1.NodeRunning
	node.Status.Conditions = []v1alpha1.NodeCondition{{
		Type:          v1alpha1.ConditionReady,
		Status:        v1alpha1.ConditionTrue,
		LastHeartbeat: metav1.NewTime(time.Now()),
	}}
	_, err = c.Replace(ctx, obj)
	return err
}
