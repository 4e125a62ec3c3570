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

// Package orbitnethttp adapts an *orbit.Dispatcher to net/http, the
// concrete collaborator the dispatch core's abstract Executor and
// Request/Response types assume but never depend on directly.
package orbitnethttp

import (
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/orbit-framework/orbit"
)

// Handler adapts *orbit.Dispatcher to http.Handler: every incoming
// *http.Request is translated to an *orbit.Request, dispatched, and
// the resulting *orbit.Response is written back out.
type Handler struct {
	dispatcher *orbit.Dispatcher
	enableH2C  bool
}

// New creates an http.Handler-compatible adapter around dispatcher.
func New(dispatcher *orbit.Dispatcher, opts ...Option) *Handler {
	h := &Handler{dispatcher: dispatcher}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Option configures a Handler at construction time.
type Option func(*Handler)

// WithH2C enables plaintext HTTP/2 (h2c) for the handler returned from
// New when it is later wrapped by Serve. Intended for development or
// deployments that terminate TLS at a trusted load balancer upstream.
func WithH2C(enabled bool) Option {
	return func(h *Handler) {
		h.enableH2C = enabled
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	orbitReq, err := fromHTTPRequest(req)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp := h.dispatcher.Dispatch(req.Context(), orbitReq)
	writeResponse(w, resp)
}

// fromHTTPRequest translates an *http.Request into an *orbit.Request,
// lower-casing header names and reading the body eagerly - the core
// treats Body as an opaque, already-available byte sequence.
func fromHTTPRequest(req *http.Request) (*orbit.Request, error) {
	out := orbit.NewRequest(req.Method, req.URL.Path)
	out.RawQuery = req.URL.RawQuery

	for name, values := range req.Header {
		key := strings.ToLower(name)
		out.Headers[key] = append(out.Headers[key], values...)
	}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		out.Body = body
	}

	return out, nil
}

// writeResponse writes an *orbit.Response to an http.ResponseWriter:
// headers and Set-Cookie directives first, then status, then body.
func writeResponse(w http.ResponseWriter, resp *orbit.Response) {
	header := w.Header()
	for name, values := range resp.Headers {
		for _, v := range values {
			header.Add(name, v)
		}
	}
	for _, c := range resp.SetCookies {
		header.Add("set-cookie", c.String())
	}

	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

// Serve starts an HTTP server on addr serving h, blocking until the
// server exits. Production-safe timeouts guard against slowloris-style
// resource exhaustion; h2c is layered on when enabled via WithH2C.
func (h *Handler) Serve(addr string) error {
	var handler http.Handler = h
	if h.enableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return srv.ListenAndServe()
}

// ServeTLS starts an HTTPS server on addr serving h, blocking until the
// server exits. HTTP/2 is negotiated automatically via ALPN.
func (h *Handler) ServeTLS(addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return srv.ListenAndServeTLS(certFile, keyFile)
}

var _ http.Handler = (*Handler)(nil)
