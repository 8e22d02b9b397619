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
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/minik8s/controlplane/pkg/client"
)

func newDeleteCmd(clientFor func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KIND NAME",
		Short: "Delete a resource by name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := kindAliases[strings.ToLower(args[0])]
			if !ok {
				return errors.Errorf("unknown resource kind %q", args[0])
			}
			if err := clientFor().Delete(context.Background(), kind, args[1]); err != nil {
				return errors.Wrapf(err, "deleting %s/%s", kind, args[1])
			}
			fmt.Printf("%s/%s deleted\n", kind, args[1])
			return nil
		},
	}
}
