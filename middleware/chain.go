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

// Package middleware runs a chain of pre/post hooks around a handler as
// an explicit, iterative state machine: Pre(0) -> Pre(1) -> ... ->
// Pre(N-1) -> Handler -> Post(N-1) -> ... -> Post(0). A middleware
// registers its post-hook, if it has one, while its Pre runs; post-hooks
// fire in the reverse (LIFO) order they were registered, mirroring the
// nesting a recursive "call next(), then run cleanup" chain would give,
// without ever growing the Go call stack - Run is a single for-loop, not
// a chain of nested calls.
package middleware

import "context"

// Outcome is returned by a PreFunc to tell Run whether to continue to
// the next middleware (or the handler, if this was the last one) or to
// abort the chain before the handler runs.
type Outcome uint8

const (
	// Continue proceeds to the next Pre stage, or the handler.
	Continue Outcome = iota
	// Abort stops the chain before the handler runs. Post-hooks already
	// registered by this and earlier middlewares still run.
	Abort
)

// PostFunc is a cleanup/finalization hook a middleware registers during
// its Pre call. It is invoked once, during the Post phase.
type PostFunc[C any] func(ctx C)

// PreFunc is one middleware's entry point. It may register a PostFunc
// by returning one (nil for none) and signals whether the chain should
// continue or abort via its Outcome.
type PreFunc[C any] func(ctx C) (PostFunc[C], Outcome)

// DefaultMaxDepth is the default bound on the number of middlewares a
// Chain accepts, guarding against runaway registration.
const DefaultMaxDepth = 100

// Chain is an ordered, bounded-depth sequence of middlewares run around
// a handler for a single request context C.
type Chain[C any] struct {
	pre      []PreFunc[C]
	maxDepth int
}

// New creates a Chain with the given middlewares, applied in order. A
// maxDepth of 0 uses DefaultMaxDepth.
func New[C any](maxDepth int, pre ...PreFunc[C]) *Chain[C] {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Chain[C]{pre: pre, maxDepth: maxDepth}
}

// Len reports the number of registered middlewares.
func (c *Chain[C]) Len() int {
	return len(c.pre)
}

// Append returns a new Chain with additional middlewares appended,
// leaving the receiver unmodified. Used by Dispatcher.Use to extend a
// Dispatcher's chain without mutating the original.
func (c *Chain[C]) Append(pre ...PreFunc[C]) *Chain[C] {
	combined := make([]PreFunc[C], 0, len(c.pre)+len(pre))
	combined = append(combined, c.pre...)
	combined = append(combined, pre...)
	return &Chain[C]{pre: combined, maxDepth: c.maxDepth}
}

// Run executes the chain around handler. It returns a non-nil error if
// the chain exceeds its configured max depth, or if stdctx is canceled
// at one of the checkpoints between middlewares, before the handler, or
// between post-hooks - in every cancellation case, post-hooks already
// registered still run in LIFO order before Run returns, so middlewares
// that acquired a resource in Pre get a chance to release it in Post.
func (c *Chain[C]) Run(stdctx context.Context, ctx C, handler func(C)) error {
	if len(c.pre) > c.maxDepth {
		return ErrChainTooDeep
	}

	posts := make([]PostFunc[C], 0, len(c.pre))
	aborted := false
	canceled := false

	for i := 0; i < len(c.pre); i++ {
		if stdctx.Err() != nil {
			canceled = true
			break
		}

		post, outcome := c.pre[i](ctx)
		if post != nil {
			posts = append(posts, post)
		}
		if outcome == Abort {
			aborted = true
			break
		}
	}

	if !aborted && !canceled {
		if stdctx.Err() != nil {
			canceled = true
		} else {
			handler(ctx)
		}
	}

	// Post-hooks are cleanup/finalization for state a middleware already
	// acquired in Pre, so a canceled stdctx does not skip hooks already
	// queued - cancellation only stops the chain from making further
	// forward progress (no more Pre stages, no handler).
	for i := len(posts) - 1; i >= 0; i-- {
		if i < len(posts)-1 && stdctx.Err() != nil {
			canceled = true
		}
		posts[i](ctx)
	}

	if canceled {
		return ErrCanceled
	}
	return nil
}
