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

package middleware

import "errors"

var (
	// ErrChainTooDeep is returned when a Chain has more middlewares
	// registered than its configured max depth permits.
	ErrChainTooDeep = errors.New("middleware: chain exceeds max depth")
	// ErrCanceled is returned when Run observes a canceled context at
	// one of its checkpoints: between middlewares, before the handler,
	// or between post-hooks.
	ErrCanceled = errors.New("middleware: chain canceled")
)
