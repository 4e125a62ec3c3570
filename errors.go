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

import "errors"

var (
	// ErrInvalidPattern is returned from Register/RegisterAll when the
	// route pattern fails to parse.
	ErrInvalidPattern = errors.New("orbit: invalid route pattern")
	// ErrMountPrefixInvalid is returned from Mount when the prefix
	// contains a dynamic segment.
	ErrMountPrefixInvalid = errors.New("orbit: mount prefix must be static")
	// ErrCapacityExceeded names a middleware chain longer than its
	// configured max depth. Dispatch reports that case as a 500 Response
	// (middleware.Chain.Run itself returns middleware.ErrChainTooDeep);
	// no function in this package returns ErrCapacityExceeded.
	ErrCapacityExceeded = errors.New("orbit: middleware chain exceeds max depth")
	// ErrInvalidRequest names a request path that cannot be
	// canonicalized. Dispatch reports it as a 400 Response and does not
	// return this value.
	ErrInvalidRequest = errors.New("orbit: invalid request")
	// ErrNotFound names the no-matching-route case. Dispatch reports it
	// as a 404/405 Response and does not return this value.
	ErrNotFound = errors.New("orbit: no matching route")
	// ErrHandlerFailed is returned, wrapped, when the zero Handler value
	// (one built by neither Sync nor Async) is invoked. An Async
	// handler's own error is passed through unwrapped.
	ErrHandlerFailed = errors.New("orbit: handler failed")
	// ErrCancelled names ambient cancellation. Dispatch reports it as a
	// Response carrying the configured cancellation status and does not
	// return this value.
	ErrCancelled = errors.New("orbit: request cancelled")

	// ErrMaxChainDepthInvalid, ErrCacheCapacityInvalid, and
	// ErrSmallChildThresholdInvalid are construction-time configuration
	// errors returned by New when an Option sets an out-of-range value.
	ErrMaxChainDepthInvalid       = errors.New("orbit: max chain depth must be positive")
	ErrCacheCapacityInvalid       = errors.New("orbit: cache capacity must not be negative")
	ErrSmallChildThresholdInvalid = errors.New("orbit: small children threshold must be positive")
)
