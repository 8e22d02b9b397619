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

// Package client is the REST + WebSocket client every controller and the
// CLI use to reach pkg/apiserver. Controllers never touch pkg/store
// directly, per SPEC_FULL.md §6's controller-to-API contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/pkg/errors"

	v1alpha1 "github.com/minik8s/controlplane/pkg/apis/core/v1alpha1"
)

// Client is a thin REST client over one API server base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against baseURL (e.g. "http://127.0.0.1:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// List returns every object of kind, plus the store revision it was
// observed at, so a caller can open a gap-free Watch from revision+1.
func (c *Client) List(ctx context.Context, kind v1alpha1.Kind) ([]v1alpha1.KubeObject, int64, error) {
	var data v1alpha1.ListData
	err := c.do(ctx, http.MethodGet, "/api/v1/"+kind.Plural(), nil, &data)
	return data.Items, data.Revision, err
}

// Get fetches a single object by name.
func (c *Client) Get(ctx context.Context, kind v1alpha1.Kind, name string) (*v1alpha1.KubeObject, error) {
	var obj v1alpha1.KubeObject
	err := c.do(ctx, http.MethodGet, "/api/v1/"+kind.Plural()+"/"+name, nil, &obj)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// Create POSTs a new object.
func (c *Client) Create(ctx context.Context, obj *v1alpha1.KubeObject) (*v1alpha1.KubeObject, error) {
	var out v1alpha1.KubeObject
	path := "/api/v1/" + obj.Kind.Plural() + "/" + obj.Metadata.Name
	err := c.do(ctx, http.MethodPost, path, obj, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Replace PUTs an existing object.
func (c *Client) Replace(ctx context.Context, obj *v1alpha1.KubeObject) (*v1alpha1.KubeObject, error) {
	var out v1alpha1.KubeObject
	path := "/api/v1/" + obj.Kind.Plural() + "/" + obj.Metadata.Name
	err := c.do(ctx, http.MethodPut, path, obj, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an object by name. Idempotent from the caller's
// perspective: a 404 is treated as success.
func (c *Client) Delete(ctx context.Context, kind v1alpha1.Kind, name string) error {
	err := c.do(ctx, http.MethodDelete, "/api/v1/"+kind.Plural()+"/"+name, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// Bind POSTs a Binding, causing the store to compare-and-set the target
// pod's spec.nodeName.
func (c *Client) Bind(ctx context.Context, podName, nodeName string) error {
	body := struct {
		NodeName string `json:"nodeName"`
	}{NodeName: nodeName}
	return c.do(ctx, http.MethodPost, "/api/v1/bindings/"+podName, &body, nil)
}

// do issues one HTTP call, retrying transient (network/5xx) failures with
// avast/retry-go's default exponential backoff; 4xx responses are
// returned immediately as classified errors and never retried.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return retry.Do(
		func() error { return c.doOnce(ctx, method, path, body, out) },
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			apiErr, ok := err.(*Error)
			return !ok || apiErr.Kind == KindTransport
		}),
	)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return newError(KindTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return newError(KindTransport, err)
	}
	defer resp.Body.Close()

	var envelope v1alpha1.Response
	if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil && decodeErr != io.EOF {
		return newError(KindMalformed, decodeErr)
	}

	if resp.StatusCode >= 400 {
		return classifyStatus(resp.StatusCode, envelope)
	}
	if out == nil || envelope.Data == nil {
		return nil
	}
	// Data was decoded into interface{}; round-trip through JSON to
	// populate the caller's concrete type.
	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		return newError(KindMalformed, err)
	}
	return json.Unmarshal(raw, out)
}

func classifyStatus(status int, envelope v1alpha1.Response) error {
	switch status {
	case http.StatusNotFound:
		return newError(KindNotFound, fmt.Errorf("%s: %s", envelope.Msg, envelope.Cause))
	case http.StatusConflict:
		return newError(KindConflict, fmt.Errorf("%s: %s", envelope.Msg, envelope.Cause))
	case http.StatusBadRequest:
		return newError(KindMalformed, fmt.Errorf("%s: %s", envelope.Msg, envelope.Cause))
	default:
		if status < 500 {
			return newError(KindMalformed, fmt.Errorf("status %d: %s: %s", status, envelope.Msg, envelope.Cause))
		}
		return newError(KindTransport, fmt.Errorf("status %d: %s: %s", status, envelope.Msg, envelope.Cause))
	}
}
