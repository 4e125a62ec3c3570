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
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	promclientmetrics "github.com/orbit-framework/orbit/metrics"
	"github.com/orbit-framework/orbit/lookupcache"
	"github.com/orbit-framework/orbit/pattern"
	"github.com/orbit-framework/orbit/patricia"
	"github.com/orbit-framework/orbit/statictrie"
)

// Defaults for the configuration surface, overridable via Option.
const (
	DefaultMaxChainDepth       = 100
	DefaultCacheCapacity       = 1000
	DefaultSmallChildThreshold = patricia.DefaultSmallChildThreshold
	DefaultCancellationStatus  = 499
)

// RouteMatch is the result of a successful Router.Match: the handler id
// to invoke, the parameters captured from the path, and the pattern
// that matched (for observability; never consulted for matching
// itself). Handler is scoped to whichever Router (this one, or a
// mounted sub-router reached through it) actually owns the route - it
// is meaningful as an opaque identifier, not as a key into this
// Router's own handler table when a mount was crossed.
type RouteMatch struct {
	Handler HandlerID
	Params  map[string]string
	Pattern string
}

// resolvedRoute is resolveRoute's result: unlike RouteMatch, it carries
// the Handler value itself, resolved against whichever Router (this
// one, or a mounted sub-router) actually owns the route - so a caller
// never needs to know which Router's handler table a HandlerID belongs
// to in order to invoke it. This is what Dispatcher consumes; Match
// derives its own RouteMatch view from the same resolution.
type resolvedRoute struct {
	id      HandlerID
	handler Handler
	params  map[string]string
	pattern string
}

func cloneResolved(r resolvedRoute) resolvedRoute {
	params := make(map[string]string, len(r.params))
	for k, v := range r.params {
		params[k] = v
	}
	return resolvedRoute{id: r.id, handler: r.handler, params: params, pattern: r.pattern}
}

type cacheKey struct {
	method string
	path   string
}

type registeredRoute struct {
	method  string
	pattern pattern.Pattern
	handler Handler
}

type mountEntry struct {
	prefix     string
	segments   []string
	router     *Router
	namePrefix string
	notFound   *Handler
}

// Router owns the static trie, the Patricia matcher, the lookup cache,
// the handler table, and any mounted sub-routers. Registration takes
// the writer side of mu; Match takes the reader side - the cache has
// its own independent mutex and is flushed before the writer lock is
// released on every mutating call.
type Router struct {
	mu sync.RWMutex

	static  *statictrie.Trie
	dynamic *patricia.Matcher
	cache   *lookupcache.Cache[cacheKey, resolvedRoute]

	handlers map[HandlerID]registeredRoute
	nextID   uint64

	mounts []mountEntry

	maxChainDepth       int
	cacheCapacity       int
	smallChildThreshold int
	allowedMethods      []string
	cancellationStatus  int

	logger   *slog.Logger
	executor Executor
	metrics  *promclientmetrics.Metrics
}

// New constructs a Router, applying opts in order and eagerly
// validating every one - a misconfigured Option returns an error here,
// never at first request.
func New(opts ...Option) (*Router, error) {
	r := &Router{
		maxChainDepth:       DefaultMaxChainDepth,
		cacheCapacity:       DefaultCacheCapacity,
		smallChildThreshold: DefaultSmallChildThreshold,
		allowedMethods:      append([]string(nil), StandardMethods...),
		cancellationStatus:  DefaultCancellationStatus,
		logger:              noopLogger(),
		executor:            GoroutineExecutor{},
		metrics:             promclientmetrics.New(),
		handlers:            make(map[HandlerID]registeredRoute),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.static = statictrie.New()
	r.dynamic = patricia.New(r.smallChildThreshold)
	r.cache = lookupcache.New[cacheKey, resolvedRoute](r.cacheCapacity)

	return r, nil
}

// MustNew is New, panicking on a configuration error. Intended for
// package-level construction where a bad Option is a programmer error,
// not a runtime condition.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Metrics returns the Router's Metrics instance (shared via
// WithMetrics, or privately owned otherwise) for registration with a
// Prometheus registry.
func (r *Router) Metrics() *promclientmetrics.Metrics {
	return r.metrics
}

// Logger returns the Router's configured logger.
func (r *Router) Logger() *slog.Logger {
	return r.logger
}

// MaxChainDepth returns the configured middleware chain depth bound.
func (r *Router) MaxChainDepth() int {
	return r.maxChainDepth
}

// CancellationStatus returns the status code used for a cancelled
// dispatch.
func (r *Router) CancellationStatus() int {
	return r.cancellationStatus
}

// Register parses rawPattern, assigns a fresh HandlerID, installs the
// route in the static trie (if every segment is Static) or the
// Patricia matcher otherwise, records the (id -> handler) mapping, and
// flushes the lookup cache. method is upper-cased before storage.
func (r *Router) Register(method, rawPattern string, handler Handler) (HandlerID, error) {
	method = strings.ToUpper(method)

	p, err := pattern.Parse(rawPattern)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := HandlerID(r.nextID)

	if p.IsStatic() {
		r.static.Insert(method, pattern.Segments(p.Raw), statictrie.HandlerID(id))
	} else {
		r.dynamic.Insert(method, p.Segments, patricia.HandlerID(id))
	}

	r.handlers[id] = registeredRoute{method: method, pattern: p, handler: handler}
	r.cache.Flush()

	return id, nil
}

// RegisterAll registers handler under every method in the Router's
// allowed-methods set, returning each assigned id keyed by method. It
// stops and returns the error from the first failing Register call,
// leaving any routes already registered by earlier methods in place.
func (r *Router) RegisterAll(rawPattern string, handler Handler) (map[string]HandlerID, error) {
	ids := make(map[string]HandlerID, len(r.allowedMethods))
	for _, method := range r.allowedMethods {
		id, err := r.Register(method, rawPattern, handler)
		if err != nil {
			return ids, err
		}
		ids[method] = id
	}
	return ids, nil
}

// Unregister removes the route id previously returned by Register, if
// it still exists, and flushes the lookup cache. It reports whether a
// route was actually removed.
func (r *Router) Unregister(id HandlerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.handlers[id]
	if !ok {
		return false
	}

	if route.pattern.IsStatic() {
		r.static.Remove(route.method, pattern.Segments(route.pattern.Raw))
	} else {
		r.dynamic.Remove(route.method, route.pattern.Segments)
	}
	delete(r.handlers, id)
	r.cache.Flush()

	return true
}

// Mount installs sub as a sub-router reachable under prefix: any
// request whose path has prefix as a segment-aligned prefix is
// delegated to sub with that prefix stripped, once no route of the
// parent itself matches. Mount captures a strong reference to sub - a
// later mutation of sub is visible to the parent's next Match, unlike
// copying sub's routes in at Mount time.
func (r *Router) Mount(prefix string, sub *Router, opts ...MountOption) error {
	p, err := pattern.Parse(prefix)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMountPrefixInvalid, err)
	}
	if !p.IsStatic() {
		return fmt.Errorf("%w: %q contains a dynamic segment", ErrMountPrefixInvalid, prefix)
	}

	cfg := &mountConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.mounts = append(r.mounts, mountEntry{
		prefix:     p.Raw,
		segments:   pattern.Segments(p.Raw),
		router:     sub,
		namePrefix: cfg.namePrefix,
		notFound:   cfg.notFound,
	})
	r.cache.Flush()

	return nil
}

// Match resolves (method, path) to a RouteMatch, trying in order: the
// lookup cache, the static trie, the Patricia matcher, then mounted
// sub-routers whose prefix segment-aligns with path. path must already
// be canonical (see pattern.CanonicalizePath) - Match does not
// canonicalize it itself. Match is an introspection view over
// resolveRoute: Handler is a valid key into the owning Router's handler
// table (this Router's own, or a mounted sub-router's), which may not
// be this Router, so callers that need to actually invoke the handler
// should use resolveRoute (or, from outside the package, Dispatcher)
// rather than feeding match.Handler back into this Router.
func (r *Router) Match(method, path string) (RouteMatch, bool) {
	res, ok := r.resolveRoute(method, path)
	if !ok {
		return RouteMatch{}, false
	}
	return RouteMatch{Handler: res.id, Params: res.params, Pattern: res.pattern}, true
}

// resolveRoute is Match's underlying resolution: it returns the actual
// Handler value to invoke, resolved against whichever Router - this one,
// or a mounted sub-router reached by delegation - owns the matching
// route. This is what the Dispatcher calls, so it never has to resolve
// a HandlerID against the wrong Router's handler table after crossing a
// Mount boundary.
func (r *Router) resolveRoute(method, path string) (resolvedRoute, bool) {
	key := cacheKey{method: method, path: path}
	if cached, ok := r.cache.Get(key); ok {
		r.metrics.RecordCacheHit()
		return cloneResolved(cached), true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	segments := pattern.Segments(path)

	staticStart := time.Now()
	id, staticOK := r.static.Lookup(method, segments)
	r.metrics.RecordStaticLookupLatency(time.Since(staticStart).Seconds())
	if staticOK {
		r.metrics.RecordTrieLookup(true, true)
		route := r.handlers[HandlerID(id)]
		res := resolvedRoute{id: HandlerID(id), handler: route.handler, params: map[string]string{}, pattern: path}
		r.cache.Put(key, cloneResolved(res))
		return res, true
	}

	dynamicStart := time.Now()
	m, dynamicOK := r.dynamic.Match(method, segments)
	r.metrics.RecordDynamicLookupLatency(time.Since(dynamicStart).Seconds())
	if dynamicOK {
		r.metrics.RecordTrieLookup(false, true)
		route := r.handlers[HandlerID(m.Handler)]
		res := resolvedRoute{id: HandlerID(m.Handler), handler: route.handler, params: m.Params, pattern: route.pattern.Raw}
		r.cache.Put(key, cloneResolved(res))
		return res, true
	}

	for _, mount := range r.mounts {
		if !segmentsHavePrefix(segments, mount.segments) {
			continue
		}
		remaining := segments[len(mount.segments):]
		subPath := "/" + strings.Join(remaining, "/")
		if len(remaining) == 0 {
			subPath = "/"
		}
		// Deliberately not cached under key in r.cache: the sub-router
		// already memoizes this lookup in its own cache, keyed on
		// subPath, and Register/Unregister/Mount on the sub-router only
		// flush that cache - there is no parent back-reference to flush
		// a parent-level entry through, so caching here would let a
		// route removed on the sub-router keep resolving as a stale hit
		// at the parent.
		if res, ok := mount.router.resolveRoute(method, subPath); ok {
			return res, true
		}
	}

	r.metrics.RecordTrieLookup(false, false)
	return resolvedRoute{}, false
}

// MountNotFound reports the fallback Handler installed via WithNotFound
// for the most specific mount whose prefix segment-aligns with path,
// if any. The Dispatcher consults this after Match fails, so a mount's
// own not-found handling takes priority over the parent's default 404.
func (r *Router) MountNotFound(path string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	segments := pattern.Segments(path)
	var best *mountEntry
	for i := range r.mounts {
		m := &r.mounts[i]
		if !segmentsHavePrefix(segments, m.segments) {
			continue
		}
		if best == nil || len(m.segments) > len(best.segments) {
			best = m
		}
	}
	if best == nil || best.notFound == nil {
		return Handler{}, false
	}
	return *best.notFound, true
}

// AllowedMethods reports every method registered for path across this
// Router's own routes (not descending into mounted sub-routers beyond
// what Match itself would reach), used to build a 405 response's Allow
// header.
func (r *Router) AllowedMethods(path string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	segments := pattern.Segments(path)
	seen := make(map[string]bool)

	for _, route := range r.handlers {
		if !route.pattern.IsStatic() {
			if _, ok := r.dynamic.Match(route.method, segments); ok {
				seen[route.method] = true
			}
			continue
		}
		if _, ok := r.static.Lookup(route.method, segments); ok {
			seen[route.method] = true
		}
	}

	for _, mount := range r.mounts {
		if !segmentsHavePrefix(segments, mount.segments) {
			continue
		}
		remaining := segments[len(mount.segments):]
		subPath := "/" + strings.Join(remaining, "/")
		if len(remaining) == 0 {
			subPath = "/"
		}
		for _, m := range mount.router.AllowedMethods(subPath) {
			seen[m] = true
		}
	}

	methods := make([]string, 0, len(seen))
	for m := range seen {
		methods = append(methods, m)
	}
	return methods
}

// HasRoute reports whether (method, path) resolves to a handler.
func (r *Router) HasRoute(method, path string) bool {
	_, ok := r.Match(method, path)
	return ok
}

// RouteInfo is one entry of ListRoutes. Name is empty for a route
// registered directly on the Router that ListRoutes was called on; a
// route reached by descending into a mounted sub-router carries that
// mount's NamePrefix (see Mount), joined with any name already
// accumulated from a mount nested further down, dot-separated.
type RouteInfo struct {
	Method  string
	Pattern string
	Handler HandlerID
	Name    string
}

// ListRoutes returns every route registered directly on this Router
// plus, recursively, every route reachable through a mounted
// sub-router - with Pattern rewritten to the full path as seen from
// this Router, and Name carrying the accumulated NamePrefix chain.
// Intended for observability only.
func (r *Router) ListRoutes() []RouteInfo {
	r.mu.RLock()
	routes := make([]RouteInfo, 0, len(r.handlers))
	for id, route := range r.handlers {
		routes = append(routes, RouteInfo{Method: route.method, Pattern: route.pattern.Raw, Handler: id})
	}
	mounts := append([]mountEntry(nil), r.mounts...)
	r.mu.RUnlock()

	for _, mount := range mounts {
		for _, sub := range mount.router.ListRoutes() {
			routes = append(routes, RouteInfo{
				Method:  sub.Method,
				Pattern: joinMountPattern(mount.prefix, sub.Pattern),
				Handler: sub.Handler,
				Name:    joinMountName(mount.namePrefix, sub.Name),
			})
		}
	}
	return routes
}

func joinMountPattern(prefix, sub string) string {
	if sub == "/" {
		return prefix
	}
	return prefix + sub
}

func joinMountName(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "." + name
	}
}

// RouteCount reports the number of routes registered directly on this
// Router.
func (r *Router) RouteCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func segmentsHavePrefix(segments, prefix []string) bool {
	if len(prefix) > len(segments) {
		return false
	}
	for i, seg := range prefix {
		if segments[i] != seg {
			return false
		}
	}
	return true
}
