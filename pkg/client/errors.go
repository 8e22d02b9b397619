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

import "fmt"

// Kind classifies a client-observed failure per the error taxonomy in
// SPEC_FULL.md §7.
type Kind string

const (
	KindTransport Kind = "Transport"
	KindNotFound  Kind = "NotFound"
	KindConflict  Kind = "Conflict"
	KindMalformed Kind = "Malformed"
)

// Error is a classified client failure.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string  { return fmt.Sprintf("%s: %v", e.Kind, e.cause) }
func (e *Error) Unwrap() error  { return e.cause }

func newError(kind Kind, cause error) *Error { return &Error{Kind: kind, cause: cause} }

// IsNotFound reports whether err is a NotFound client error.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindNotFound
}

// IsConflict reports whether err is a Conflict client error.
func IsConflict(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindConflict
}
