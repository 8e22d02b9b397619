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

package env_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minik8s/controlplane/internal/env"
)

func TestWithDefaultStringUsesEnvWhenSet(t *testing.T) {
	t.Setenv("MINIK8S_TEST_STRING", "from-env")
	require.Equal(t, "from-env", env.WithDefaultString("MINIK8S_TEST_STRING", "fallback"))
}

func TestWithDefaultStringFallsBackWhenUnset(t *testing.T) {
	require.Equal(t, "fallback", env.WithDefaultString("MINIK8S_TEST_STRING_UNSET", "fallback"))
}

func TestWithDefaultInt(t *testing.T) {
	t.Setenv("MINIK8S_TEST_INT", "7")
	require.Equal(t, 7, env.WithDefaultInt("MINIK8S_TEST_INT", 3))
	require.Equal(t, 3, env.WithDefaultInt("MINIK8S_TEST_INT_UNSET", 3))

	t.Setenv("MINIK8S_TEST_INT_BAD", "not-a-number")
	require.Equal(t, 3, env.WithDefaultInt("MINIK8S_TEST_INT_BAD", 3))
}

func TestWithDefaultBool(t *testing.T) {
	t.Setenv("MINIK8S_TEST_BOOL", "true")
	require.True(t, env.WithDefaultBool("MINIK8S_TEST_BOOL", false))
	require.False(t, env.WithDefaultBool("MINIK8S_TEST_BOOL_UNSET", false))

	t.Setenv("MINIK8S_TEST_BOOL_BAD", "nope")
	require.False(t, env.WithDefaultBool("MINIK8S_TEST_BOOL_BAD", false))
}

func TestWithDefaultDuration(t *testing.T) {
	t.Setenv("MINIK8S_TEST_DURATION", "30s")
	require.Equal(t, 30*time.Second, env.WithDefaultDuration("MINIK8S_TEST_DURATION", time.Minute))
	require.Equal(t, time.Minute, env.WithDefaultDuration("MINIK8S_TEST_DURATION_UNSET", time.Minute))

	t.Setenv("MINIK8S_TEST_DURATION_BAD", "not-a-duration")
	require.Equal(t, time.Minute, env.WithDefaultDuration("MINIK8S_TEST_DURATION_BAD", time.Minute))
}
