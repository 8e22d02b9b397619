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

package store

import "fmt"

// Kind classifies a store error per the error handling taxonomy: Transport,
// NotFound, Conflict, Malformed, and the remaining cases are Fatal at
// startup and never returned from a running store.
type Kind string

const (
	KindTransport Kind = "Transport"
	KindNotFound  Kind = "NotFound"
	KindConflict  Kind = "Conflict"
	KindMalformed Kind = "Malformed"
)

// Error is a classified store failure. Callers switch on Kind, not on the
// wrapped cause, to decide retry/log/drop behavior per §7 of the spec.
type Error struct {
	Kind  Kind
	Key   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Key, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, key string, cause error) *Error {
	return &Error{Kind: kind, Key: key, cause: cause}
}

// IsNotFound reports whether err is a NotFound store error.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindNotFound
}

// IsConflict reports whether err is a Conflict store error.
func IsConflict(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindConflict
}
