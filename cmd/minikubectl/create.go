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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
	"github.com/minik8s/controlplane/pkg/client"
)

func newCreateCmd(clientFor func() *client.Client) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create -f FILE",
		Short: "Create a resource from a YAML manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("-f is required")
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrapf(err, "reading %s", file)
			}
			var obj v1alpha1.KubeObject
			if err := yaml.Unmarshal(raw, &obj); err != nil {
				return errors.Wrapf(err, "parsing %s", file)
			}
			if obj.Kind == "" {
				return errors.Errorf("%s is missing a kind", file)
			}

			created, err := clientFor().Create(context.Background(), &obj)
			if err != nil {
				return errors.Wrapf(err, "creating %s/%s", obj.Kind, obj.Metadata.Name)
			}
			fmt.Printf("%s/%s created\n", created.Kind, created.Metadata.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a YAML manifest")
	return cmd
}
