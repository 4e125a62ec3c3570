// Copyright 2025 The Orbit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orbit

import (
	"context"
	"fmt"
)

// HandlerID is an opaque, monotonically issued identifier for one
// registration. Ids are never reused, even after the route they name
// is removed.
type HandlerID uint64

// handlerKind tags which arm of Handler is populated.
type handlerKind uint8

const (
	syncHandler handlerKind = iota
	asyncHandler
)

// SyncHandlerFunc is a handler that produces its Response immediately,
// without suspending.
type SyncHandlerFunc func(*Request) *Response

// AsyncHandlerFunc is a handler that may suspend (e.g. on I/O) before
// producing a Response or failing.
type AsyncHandlerFunc func(context.Context, *Request) (*Response, error)

// Handler is a tagged union of a synchronous or asynchronous handler
// body, replacing the inheritance-based handler/backend wrapper
// hierarchy a non-Go implementation would reach for with a single flat
// value and one dispatch operation (invoke), avoiding virtual dispatch
// on the hot path.
type Handler struct {
	kind  handlerKind
	sync  SyncHandlerFunc
	async AsyncHandlerFunc
}

// Sync wraps a synchronous handler function.
func Sync(fn SyncHandlerFunc) Handler {
	return Handler{kind: syncHandler, sync: fn}
}

// Async wraps an asynchronous handler function.
func Async(fn AsyncHandlerFunc) Handler {
	return Handler{kind: asyncHandler, async: fn}
}

// IsAsync reports whether the handler was registered via Async.
func (h Handler) IsAsync() bool {
	return h.kind == asyncHandler
}

// invoke runs the handler, adapting a Sync handler to the same
// (Response, error) shape an Async handler returns so callers never
// need to branch on kind.
func (h Handler) invoke(ctx context.Context, req *Request) (*Response, error) {
	switch h.kind {
	case asyncHandler:
		return h.async(ctx, req)
	case syncHandler:
		return h.sync(req), nil
	default:
		return nil, fmt.Errorf("%w: handler has no registered body", ErrHandlerFailed)
	}
}
