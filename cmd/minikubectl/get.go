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

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
)

// kindAliases accepts both the singular and kubectl-style plural/short
// spelling of every resource this control plane serves, per
// original_source/rkubectl/src/get.rs's ResourceKind enum.
var kindAliases = map[string]v1alpha1.Kind{
	"pod": v1alpha1.KindPod, "pods": v1alpha1.KindPod, "po": v1alpha1.KindPod,
	"replicaset": v1alpha1.KindReplicaSet, "replicasets": v1alpha1.KindReplicaSet, "rs": v1alpha1.KindReplicaSet,
	"service": v1alpha1.KindService, "services": v1alpha1.KindService, "svc": v1alpha1.KindService,
	"ingress": v1alpha1.KindIngress, "ingresses": v1alpha1.KindIngress, "ing": v1alpha1.KindIngress,
	"node": v1alpha1.KindNode, "nodes": v1alpha1.KindNode, "no": v1alpha1.KindNode,
	"horizontalpodautoscaler": v1alpha1.KindHorizontalPodAutoscaler, "horizontalpodautoscalers": v1alpha1.KindHorizontalPodAutoscaler, "hpa": v1alpha1.KindHorizontalPodAutoscaler,
}

func newGetCmd(clientFor func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get KIND [NAME]",
		Short: "List resources of a kind, or show one by name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := kindAliases[strings.ToLower(args[0])]
			if !ok {
				return errors.Errorf("unknown resource kind %q", args[0])
			}

			c := clientFor()
			ctx := context.Background()
			var objs []v1alpha1.KubeObject
			if len(args) == 2 {
				obj, err := c.Get(ctx, kind, args[1])
				if err != nil {
					return errors.Wrapf(err, "getting %s/%s", kind, args[1])
				}
				objs = []v1alpha1.KubeObject{*obj}
			} else {
				var err error
				objs, _, err = c.List(ctx, kind)
				if err != nil {
					return errors.Wrapf(err, "listing %s", kind.Plural())
				}
			}

			printTable(kind, objs)
			return nil
		},
	}
}

func printTable(kind v1alpha1.Kind, objs []v1alpha1.KubeObject) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch kind {
	case v1alpha1.KindPod:
		fmt.Fprintln(w, "NAME\tSTATUS\tRESTARTS\tAGE")
		for _, obj := range objs {
			pod := obj.Resource.Pod
			if pod == nil {
				continue
			}
			var restarts int32
			for _, cs := range pod.Status.ContainerStatuses {
				restarts += cs.RestartCount
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", obj.Metadata.Name, pod.Status.Phase, restarts, age(pod.Status.StartTime))
		}
	case v1alpha1.KindReplicaSet:
		fmt.Fprintln(w, "NAME\tDESIRED\tCURRENT\tREADY")
		for _, obj := range objs {
			rs := obj.Resource.ReplicaSet
			if rs == nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", obj.Metadata.Name, rs.Spec.Replicas, rs.Status.Replicas, rs.Status.ReadyReplicas)
		}
	case v1alpha1.KindService:
		fmt.Fprintln(w, "NAME\tCLUSTER-IP\tPORTS")
		for _, obj := range objs {
			svc := obj.Resource.Service
			if svc == nil {
				continue
			}
			var ports []string
			for _, p := range svc.Spec.Ports {
				if p.Port == p.TargetPort {
					ports = append(ports, strconv.Itoa(int(p.Port)))
				} else {
					ports = append(ports, fmt.Sprintf("%d:%d", p.Port, p.TargetPort))
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", obj.Metadata.Name, svc.Spec.ClusterIP, strings.Join(ports, ","))
		}
	case v1alpha1.KindIngress:
		fmt.Fprintln(w, "NAME\tHOST\tPATH:SERVICE:PORT")
		for _, obj := range objs {
			ing := obj.Resource.Ingress
			if ing == nil {
				continue
			}
			for _, rule := range ing.Spec.Rules {
				var paths []string
				for _, p := range rule.Paths {
					paths = append(paths, fmt.Sprintf("%s:%s:%d", p.Path, p.Backend.ServiceName, p.Backend.ServicePort))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", obj.Metadata.Name, rule.Host, strings.Join(paths, ","))
			}
		}
	case v1alpha1.KindNode:
		fmt.Fprintln(w, "NAME\tSTATUS\tREADY")
		for _, obj := range objs {
			node := obj.Resource.Node
			if node == nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%t\n", obj.Metadata.Name, node.Status.Phase, node.IsReady(time.Now()))
		}
	case v1alpha1.KindHorizontalPodAutoscaler:
		fmt.Fprintln(w, "NAME\tREFERENCE\tMIN\tMAX\tCURRENT\tDESIRED")
		for _, obj := range objs {
			hpa := obj.Resource.HorizontalPodAutoscaler
			if hpa == nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", obj.Metadata.Name, hpa.Spec.ScaleTargetRef.Name, hpa.Spec.MinReplicas, hpa.Spec.MaxReplicas, hpa.Status.CurrentReplicas, hpa.Status.DesiredReplicas)
		}
	}
}

func age(start *metav1.Time) string {
	if start == nil {
		return "<unknown>"
	}
	return time.Since(start.Time).Round(time.Second).String()
}
