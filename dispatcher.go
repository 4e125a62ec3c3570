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
	"errors"
	"strings"
	"time"

	"github.com/orbit-framework/orbit/middleware"
	"github.com/orbit-framework/orbit/pattern"
)

// DispatchContext is the per-request value threaded through the
// middleware chain. A middleware reads/writes Request and may set
// Response itself (e.g. to short-circuit with Abort); the Dispatcher
// only ever fills in Response when the chain reaches the handler.
type DispatchContext struct {
	Request  *Request
	Response *Response
}

// Dispatcher owns a Router and the single middleware chain run, once,
// around every request before the route tree is ever consulted -
// there is no per-route or per-mount chain to compose.
type Dispatcher struct {
	router *Router
	chain  *middleware.Chain[*DispatchContext]
}

// NewDispatcher builds a Dispatcher over router with pre installed as
// its initial middleware chain, bounded by the Router's configured
// max chain depth.
func NewDispatcher(router *Router, pre ...middleware.PreFunc[*DispatchContext]) *Dispatcher {
	return &Dispatcher{
		router: router,
		chain:  middleware.New[*DispatchContext](router.maxChainDepth, pre...),
	}
}

// Use returns a new Dispatcher sharing this one's Router with pre
// appended to the chain, leaving the receiver's chain unmodified.
func (d *Dispatcher) Use(pre ...middleware.PreFunc[*DispatchContext]) *Dispatcher {
	return &Dispatcher{router: d.router, chain: d.chain.Append(pre...)}
}

// Router returns the Dispatcher's underlying Router.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// Dispatch runs the end-to-end request lifecycle: canonicalize the
// path, handle a WebSocket upgrade, run the middleware chain, resolve
// a route, invoke its handler, and record metrics - always returning a
// non-nil Response, even on failure.
func (d *Dispatcher) Dispatch(stdctx context.Context, req *Request) *Response {
	start := time.Now()
	resp := d.dispatchOnce(stdctx, req)
	d.router.metrics.RecordDispatch(time.Since(start).Seconds(), resp.Status < 400)
	return resp
}

func (d *Dispatcher) dispatchOnce(stdctx context.Context, req *Request) *Response {
	path, err := pattern.CanonicalizePath(req.Path)
	if err != nil {
		resp := NewResponse(400)
		resp.JSONError(400, "invalid request path")
		return resp
	}

	method := strings.ToUpper(req.Method)

	var handshake *Response
	if req.IsWebSocketUpgrade() {
		hs, ok := upgradeWebSocket(req)
		if !ok {
			return hs
		}
		handshake = hs
		method = MethodWebSocket
	}

	cancelCtx := d.router.executor.CancellationToken(stdctx)
	dctx := &DispatchContext{Request: req}

	runErr := d.chain.Run(cancelCtx, dctx, func(c *DispatchContext) {
		d.invokeRoute(cancelCtx, c, method, path, handshake)
	})

	if runErr != nil && dctx.Response == nil {
		status, kind := d.router.cancellationStatus, "request cancelled"
		if errors.Is(runErr, middleware.ErrChainTooDeep) {
			status, kind = 500, "middleware chain exceeds max depth"
		}
		resp := NewResponse(status)
		resp.JSONError(status, kind)
		dctx.Response = resp
	}
	if dctx.Response == nil {
		resp := NewResponse(500)
		resp.JSONError(500, "no response produced")
		dctx.Response = resp
	}

	return dctx.Response
}

// invokeRoute is the handler func the middleware chain runs once it
// reaches the end of Pre: resolve the route, invoke its handler (or
// produce 404/405), and stash the result on c.Response.
func (d *Dispatcher) invokeRoute(stdctx context.Context, c *DispatchContext, method, path string, handshake *Response) {
	res, ok := d.router.resolveRoute(method, path)
	if !ok {
		c.Response = d.notFoundResponse(stdctx, c, method, path)
		return
	}

	request := c.Request.WithParams(res.params)

	var resp *Response
	var invokeErr error
	scheduleErr := d.router.executor.Schedule(stdctx, func(taskCtx context.Context) {
		resp, invokeErr = res.handler.invoke(taskCtx, request)
	})

	err := invokeErr
	if scheduleErr != nil {
		resp = NewResponse(500)
		resp.JSONError(500, "executor failed to schedule handler")
		err = scheduleErr
	} else if invokeErr != nil {
		resp = NewResponse(500)
		resp.JSONError(500, "handler failed")
	}

	if handshake != nil {
		// The wire response for a successful upgrade is always the
		// handshake itself (status 101 plus its three headers): once
		// that response is written the connection leaves HTTP
		// semantics entirely, so a WebSocket handler's own response
		// only gates whether the upgrade is honored, never replaces it.
		if err != nil {
			c.Response = resp
			return
		}
		c.Response = handshake
		return
	}

	c.Response = resp
}

func (d *Dispatcher) notFoundResponse(stdctx context.Context, c *DispatchContext, method, path string) *Response {
	if h, ok := d.router.MountNotFound(path); ok {
		resp, err := h.invoke(stdctx, c.Request)
		if err != nil {
			resp = NewResponse(500)
			resp.JSONError(500, "handler failed")
		}
		return resp
	}

	if allowed := d.router.AllowedMethods(path); len(allowed) > 0 {
		resp := NewResponse(405)
		resp.SetHeader("allow", strings.Join(allowed, ", "))
		resp.JSONError(405, "method not allowed")
		return resp
	}

	resp := NewResponse(404)
	resp.JSONError(404, "not found")
	return resp
}
