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

// cmd/minikubectl is the operator CLI against pkg/apiserver, mirroring
// original_source/rkubectl/src/main.rs's create/get/delete subcommand
// split, built on cobra rather than clap.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minik8s/controlplane/internal/env"
	"github.com/minik8s/controlplane/pkg/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var apiServerURL string

	root := &cobra.Command{
		Use:           "minikubectl",
		Short:         "Command-line client for the minik8s control plane",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&apiServerURL, "api-server-url", env.WithDefaultString("API_SERVER_URL", "http://127.0.0.1:8080"), "Base URL of the API server")

	clientFor := func() *client.Client { return client.New(apiServerURL) }

	root.AddCommand(newCreateCmd(clientFor))
	root.AddCommand(newGetCmd(clientFor))
	root.AddCommand(newDeleteCmd(clientFor))
	return root
}
