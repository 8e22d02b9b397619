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

package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minik8s/controlplane/internal/logging"
)

func TestFromContextReturnsNopWhenNoLoggerSet(t *testing.T) {
	logger := logging.FromContext(context.Background())
	require.NotNil(t, logger)
}

func TestWithLoggerRoundTrips(t *testing.T) {
	base := logging.New("test", true)
	ctx := logging.WithLogger(context.Background(), base)

	got := logging.FromContext(ctx)
	require.NotNil(t, got)
	require.Equal(t, base.Sugar().Desugar().Name(), got.Desugar().Name())
}

func TestNewNamesTheLoggerAfterComponent(t *testing.T) {
	logger := logging.New("apiserver", true)
	require.Equal(t, "apiserver", logger.Name())
}

func TestZaprBridgesToLogr(t *testing.T) {
	base := logging.New("test", true)
	bridged := logging.Zapr(base)
	bridged.Info("hello")
}
