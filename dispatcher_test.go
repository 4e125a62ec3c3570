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

package orbit_test

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-framework/orbit"
	"github.com/orbit-framework/orbit/middleware"
)

func okHandler(body string) orbit.Handler {
	return orbit.Sync(func(req *orbit.Request) *orbit.Response {
		resp := orbit.NewResponse(200)
		resp.SetBody([]byte(body))
		return resp
	})
}

// Scenario A - static hit.
func TestDispatchStaticHit(t *testing.T) {
	router := orbit.MustNew()
	_, err := router.Register("GET", "/health", okHandler("healthy"))
	require.NoError(t, err)

	dispatcher := orbit.NewDispatcher(router)
	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/health"))

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "healthy", string(resp.Body))
	assert.Equal(t, uint64(1), router.Metrics().Snapshot().StaticHits)
}

// Scenario B - dynamic capture.
func TestDispatchDynamicCapture(t *testing.T) {
	router := orbit.MustNew()
	var gotID, gotPID string
	handler := orbit.Sync(func(req *orbit.Request) *orbit.Response {
		gotID = req.PathParams["id"]
		gotPID = req.PathParams["pid"]
		return orbit.NewResponse(200)
	})
	_, err := router.Register("GET", "/users/:id/posts/:pid", handler)
	require.NoError(t, err)

	dispatcher := orbit.NewDispatcher(router)
	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/users/42/posts/7"))

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "42", gotID)
	assert.Equal(t, "7", gotPID)
	assert.Equal(t, uint64(1), router.Metrics().Snapshot().DynamicHits)
}

// Scenario C - static beats param tie-break.
func TestDispatchStaticBeatsParamTieBreak(t *testing.T) {
	router := orbit.MustNew()
	_, err := router.Register("GET", "/users/profile", okHandler("profile"))
	require.NoError(t, err)
	_, err = router.Register("GET", "/users/:id", okHandler("dynamic"))
	require.NoError(t, err)

	dispatcher := orbit.NewDispatcher(router)

	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/users/profile"))
	assert.Equal(t, "profile", string(resp.Body))

	resp = dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/users/42"))
	assert.Equal(t, "dynamic", string(resp.Body))
}

// Scenario D - method mismatch.
func TestDispatchMethodMismatchReturns405(t *testing.T) {
	router := orbit.MustNew()
	_, err := router.Register("GET", "/x", okHandler("x"))
	require.NoError(t, err)

	dispatcher := orbit.NewDispatcher(router)
	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("POST", "/x"))

	assert.Equal(t, 405, resp.Status)
	assert.Equal(t, "GET", resp.Header("allow"))
}

func TestDispatchUnknownPathReturns404(t *testing.T) {
	router := orbit.MustNew()
	dispatcher := orbit.NewDispatcher(router)
	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/nope"))
	assert.Equal(t, 404, resp.Status)
}

// Scenario E - WebSocket handshake, bit-exact against the RFC 6455 test
// vector from section 1.3.
func TestDispatchWebSocketHandshakeExactVector(t *testing.T) {
	router := orbit.MustNew()
	_, err := router.Register(orbit.MethodWebSocket, "/chat", okHandler(""))
	require.NoError(t, err)

	dispatcher := orbit.NewDispatcher(router)

	req := orbit.NewRequest("GET", "/chat")
	req.SetHeader("upgrade", "websocket")
	req.SetHeader("sec-websocket-key", "dGhlIHNhbXBsZSBub25jZQ==")

	resp := dispatcher.Dispatch(context.Background(), req)

	assert.Equal(t, 101, resp.Status)
	assert.Equal(t, "websocket", resp.Header("upgrade"))
	assert.Equal(t, "upgrade", resp.Header("connection"))
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", resp.Header("sec-websocket-accept"))
}

func TestDispatchWebSocketMalformedKeyReturns400(t *testing.T) {
	router := orbit.MustNew()
	dispatcher := orbit.NewDispatcher(router)

	req := orbit.NewRequest("GET", "/chat")
	req.SetHeader("upgrade", "websocket")
	req.SetHeader("sec-websocket-key", "not-valid-base64!!")

	resp := dispatcher.Dispatch(context.Background(), req)
	assert.Equal(t, 400, resp.Status)
}

// Scenario F - middleware short-circuit: an aborting middleware's
// response is returned without the handler ever running.
func TestDispatchMiddlewareAbortShortCircuits(t *testing.T) {
	router := orbit.MustNew()
	handlerRan := false
	_, err := router.Register("GET", "/guarded", orbit.Sync(func(req *orbit.Request) *orbit.Response {
		handlerRan = true
		return orbit.NewResponse(200)
	}))
	require.NoError(t, err)

	deny := func(ctx *orbit.DispatchContext) (middleware.PostFunc[*orbit.DispatchContext], middleware.Outcome) {
		ctx.Response = orbit.NewResponse(403)
		ctx.Response.JSONError(403, "forbidden")
		return nil, middleware.Abort
	}

	dispatcher := orbit.NewDispatcher(router, deny)
	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/guarded"))

	assert.Equal(t, 403, resp.Status)
	assert.False(t, handlerRan)
}

func TestDispatchMiddlewarePostHookRunsAfterHandler(t *testing.T) {
	router := orbit.MustNew()
	_, err := router.Register("GET", "/ping", okHandler("pong"))
	require.NoError(t, err)

	var postRan bool
	instrument := func(ctx *orbit.DispatchContext) (middleware.PostFunc[*orbit.DispatchContext], middleware.Outcome) {
		return func(ctx *orbit.DispatchContext) {
			postRan = true
		}, middleware.Continue
	}

	dispatcher := orbit.NewDispatcher(router, instrument)
	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/ping"))

	assert.Equal(t, 200, resp.Status)
	assert.True(t, postRan)
}

func TestDispatchRequestCancellationUsesConfiguredStatus(t *testing.T) {
	router := orbit.MustNew(orbit.WithCancellationStatus(499))
	_, err := router.Register("GET", "/slow", okHandler("slow"))
	require.NoError(t, err)

	dispatcher := orbit.NewDispatcher(router)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := dispatcher.Dispatch(ctx, orbit.NewRequest("GET", "/slow"))
	assert.Equal(t, 499, resp.Status)
}

// A mounted sub-router's HandlerID is only meaningful against its own
// handler table; Dispatch must resolve it against that table, not the
// parent's, even though both routers assign ids from their own counter
// starting at 1.
func TestDispatchInvokesMountedSubRouterHandler(t *testing.T) {
	parent := orbit.MustNew()
	sub := orbit.MustNew()

	_, err := parent.Register("GET", "/widgets", okHandler("parent-widgets"))
	require.NoError(t, err)
	_, err = sub.Register("GET", "/widgets", okHandler("sub-widgets"))
	require.NoError(t, err)

	require.NoError(t, parent.Mount("/api", sub))

	dispatcher := orbit.NewDispatcher(parent)

	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/api/widgets"))
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "sub-widgets", string(resp.Body))

	resp = dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/widgets"))
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "parent-widgets", string(resp.Body))
}

type countingExecutor struct {
	scheduled int
}

func (c *countingExecutor) Schedule(ctx context.Context, task func(ctx context.Context)) error {
	c.scheduled++
	task(ctx)
	return nil
}

func (c *countingExecutor) CancellationToken(ctx context.Context) context.Context {
	return ctx
}

func TestDispatchRunsHandlerThroughConfiguredExecutor(t *testing.T) {
	exec := &countingExecutor{}
	router := orbit.MustNew(orbit.WithExecutor(exec))
	_, err := router.Register("GET", "/ping", okHandler("pong"))
	require.NoError(t, err)

	dispatcher := orbit.NewDispatcher(router)
	resp := dispatcher.Dispatch(context.Background(), orbit.NewRequest("GET", "/ping"))

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "pong", string(resp.Body))
	assert.Equal(t, 1, exec.scheduled)
}

func websocketAcceptForTest(key string) string {
	sum := sha1.Sum([]byte(key + "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func TestWebSocketAcceptVectorMatchesRFCExample(t *testing.T) {
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", websocketAcceptForTest("dGhlIHNhbXBsZSBub25jZQ=="))
}
