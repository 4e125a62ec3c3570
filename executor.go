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

import "context"

// Executor abstracts the async runtime the Dispatcher relies on to run
// handler bodies. The core never spawns goroutines of its own beyond
// what Executor.Schedule does - concrete event-loop backends (the
// epoll/io_uring/libuv-equivalent collaborators) live entirely outside
// this module and are reached through this interface.
type Executor interface {
	// Schedule runs task to completion before returning. Implementations
	// may run task on the calling goroutine or hand it to a worker pool
	// and block until it finishes; the Dispatcher always treats Schedule
	// as synchronous and reads the handler's result only after it
	// returns. A non-nil error means task never ran (e.g. the pool
	// rejected it) - the Dispatcher turns that into a 500, never a
	// partial response.
	Schedule(ctx context.Context, task func(ctx context.Context)) error
	// CancellationToken derives a context from ctx whose Done channel
	// fires when the executor considers the request cancelled. The
	// default implementation returns ctx unchanged.
	CancellationToken(ctx context.Context) context.Context
}

// GoroutineExecutor is the default Executor. It runs every scheduled
// task inline, on the calling goroutine: an HTTP server already hands
// the dispatcher a goroutine per request (see orbitnethttp), so there
// is nothing to gain from spawning a second one here, and inlining
// keeps a cancelled request's stack trace meaningful.
type GoroutineExecutor struct{}

// Schedule implements Executor.
func (GoroutineExecutor) Schedule(ctx context.Context, task func(ctx context.Context)) error {
	task(ctx)
	return nil
}

// CancellationToken implements Executor.
func (GoroutineExecutor) CancellationToken(ctx context.Context) context.Context {
	return ctx
}

var _ Executor = GoroutineExecutor{}
