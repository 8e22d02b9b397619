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

package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Watch opens the long-lived WebSocket stream for kind and returns a
// channel of WatchEvents. The channel closes when the connection drops;
// callers (informers) are expected to relist and reopen per SPEC_FULL.md
// §4.A failure semantics.
func (c *Client) Watch(ctx context.Context, kind v1alpha1.Kind, fromRevision int64) (<-chan v1alpha1.WatchEvent, error) {
	wsURL, err := toWebsocketURL(c.baseURL, "/api/v1/watch/"+kind.Plural(), fromRevision)
	if err != nil {
		return nil, newError(KindTransport, err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, newError(KindTransport, err)
	}

	events := make(chan v1alpha1.WatchEvent, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var event v1alpha1.WatchEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func toWebsocketURL(baseURL, path string, fromRevision int64) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported base URL scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + path
	if fromRevision > 0 {
		q := parsed.Query()
		q.Set("resourceVersion", strconv.FormatInt(fromRevision-1, 10))
		parsed.RawQuery = q.Encode()
	}
	return parsed.String(), nil
}
