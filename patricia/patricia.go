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

// Package patricia implements a backtracking radix matcher for dynamic
// route patterns (those containing at least one param, wildcard, or
// catch-all segment). Unlike statictrie, matching is a full depth-first
// search: a node tries its static child first, then its param child,
// then its wildcard child, then its catch-all child, backtracking to
// the next alternative whenever a deeper subtree fails to yield a
// handler. That priority order is also the tie-break used whenever more
// than one kind of edge could, in isolation, match the next segment.
package patricia

import (
	"sync"
	"sync/atomic"

	"github.com/orbit-framework/orbit/pattern"
)

// HandlerID is an opaque identifier for a registered handler, owned by
// the caller (the router). patricia never interprets it.
type HandlerID uint64

// DefaultSmallChildThreshold is the number of static children a node
// holds in a plain slice before migrating to a map, used when New is
// given a non-positive threshold. The migration is one-way: a node that
// has grown a map never shrinks back to a slice, even if children are
// later removed, since route tables only grow in the common case and
// the added bookkeeping of demotion is not worth it.
const DefaultSmallChildThreshold = 4

// Match is the result of a successful lookup.
type Match struct {
	Handler HandlerID
	Params  map[string]string
}

// Matcher is a backtracking radix matcher over dynamic route patterns.
//
// Thread safety follows statictrie: Insert/Remove hold mu and rebuild a
// compiled tree, published with a single atomic pointer store; Match
// reads the last published tree lock-free.
type Matcher struct {
	mu             sync.Mutex
	working        *rawNode
	compiled       atomic.Pointer[compiledNode]
	smallThreshold int
}

// rawNode is the mutable registration-time tree.
type rawNode struct {
	static    map[string]*rawNode
	everMap   bool // high-water mark: true once static has ever exceeded the threshold
	param     *rawNode
	paramName string
	wildcard  *rawNode
	wildName  string
	catchAll  *rawNode
	catchName string
	handlers  map[string]HandlerID
}

func newRawNode() *rawNode {
	return &rawNode{static: make(map[string]*rawNode)}
}

// compiledNode is the immutable tree published after every mutation.
type compiledNode struct {
	// staticSlice and staticMap are mutually exclusive; at most one is
	// non-nil (neither, when the node has no static children), chosen by
	// how many static children this node has ever held at once. staticSlice is linearly scanned (cheap for <=4
	// entries); staticMap is used once a node's fan-out exceeds that.
	staticSlice []staticEdge
	staticMap   map[string]*compiledNode

	param     *compiledNode
	paramName string

	wildcard *compiledNode
	wildName string

	catchAll  *compiledNode
	catchName string

	handlers map[string]HandlerID
}

type staticEdge struct {
	label string
	node  *compiledNode
}

func (n *compiledNode) staticChild(label string) *compiledNode {
	if n.staticMap != nil {
		return n.staticMap[label]
	}
	for _, e := range n.staticSlice {
		if e.label == label {
			return e.node
		}
	}
	return nil
}

// New creates an empty matcher. A non-positive threshold uses
// DefaultSmallChildThreshold.
func New(threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSmallChildThreshold
	}
	m := &Matcher{working: newRawNode(), smallThreshold: threshold}
	m.compiled.Store(compile(m.working, m.smallThreshold))
	return m
}

// Insert registers segments (as parsed by the pattern package; at least
// one non-Static segment is expected, though a matcher holding only
// static patterns is harmless) under method with id. A duplicate
// (method, pattern) registration replaces the prior handler id. A
// second, differently-named param or wildcard registered at a position
// an earlier pattern already bound keeps the first name, matching the
// common router convention that a path position has one parameter
// identity regardless of which route registered it first.
func (m *Matcher) Insert(method string, segments []pattern.Segment, id HandlerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.working
	for _, seg := range segments {
		switch seg.Kind {
		case pattern.Static:
			child, ok := n.static[seg.Text]
			if !ok {
				child = newRawNode()
				n.static[seg.Text] = child
			}
			n = child

		case pattern.Param:
			if n.param == nil {
				n.param = newRawNode()
				n.paramName = seg.Text
			}
			n = n.param

		case pattern.Wildcard:
			if n.wildcard == nil {
				n.wildcard = newRawNode()
				n.wildName = seg.Text
			}
			n = n.wildcard

		case pattern.CatchAll:
			if n.catchAll == nil {
				n.catchAll = newRawNode()
				n.catchName = seg.Text
			}
			n = n.catchAll
		}
	}

	if n.handlers == nil {
		n.handlers = make(map[string]HandlerID, 1)
	}
	n.handlers[method] = id

	m.compiled.Store(compile(m.working, m.smallThreshold))
}

// Remove deletes the (method, pattern) registration, if present.
func (m *Matcher) Remove(method string, segments []pattern.Segment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.working
	for _, seg := range segments {
		switch seg.Kind {
		case pattern.Static:
			child, ok := n.static[seg.Text]
			if !ok {
				return
			}
			n = child
		case pattern.Param:
			if n.param == nil {
				return
			}
			n = n.param
		case pattern.Wildcard:
			if n.wildcard == nil {
				return
			}
			n = n.wildcard
		case pattern.CatchAll:
			if n.catchAll == nil {
				return
			}
			n = n.catchAll
		}
	}
	delete(n.handlers, method)

	m.compiled.Store(compile(m.working, m.smallThreshold))
}

// Match finds the best handler for (method, segments) using backtracking
// DFS with static > param > wildcard > catch-all priority at every node.
func (m *Matcher) Match(method string, segments []string) (Match, bool) {
	root := m.compiled.Load()
	params := make(map[string]string)
	id, ok := match(root, method, segments, 0, params)
	if !ok {
		return Match{}, false
	}
	return Match{Handler: id, Params: params}, true
}

func match(n *compiledNode, method string, segments []string, idx int, params map[string]string) (HandlerID, bool) {
	if idx == len(segments) {
		id, ok := n.handlers[method]
		return id, ok
	}
	seg := segments[idx]

	if child := n.staticChild(seg); child != nil {
		if id, ok := match(child, method, segments, idx+1, params); ok {
			return id, true
		}
	}

	if n.param != nil {
		prior, had := params[n.paramName]
		params[n.paramName] = seg
		if id, ok := match(n.param, method, segments, idx+1, params); ok {
			return id, true
		}
		if had {
			params[n.paramName] = prior
		} else {
			delete(params, n.paramName)
		}
	}

	if n.wildcard != nil {
		prior, had := params[n.wildName]
		params[n.wildName] = seg
		if id, ok := match(n.wildcard, method, segments, idx+1, params); ok {
			return id, true
		}
		if had {
			params[n.wildName] = prior
		} else {
			delete(params, n.wildName)
		}
	}

	if n.catchAll != nil {
		id, ok := n.catchAll.handlers[method]
		if ok {
			params[n.catchName] = joinSegments(segments[idx:])
			return id, true
		}
	}

	return 0, false
}

func joinSegments(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	total := len(segments) - 1
	for _, s := range segments {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for i, s := range segments {
		if i > 0 {
			buf = append(buf, '/')
		}
		buf = append(buf, s...)
	}
	return string(buf)
}

// compile builds an immutable compiled tree from the mutable
// registration tree, choosing the slice or map representation for each
// node's static children based on whether it has ever exceeded
// threshold. A node's everMap flag is a high-water mark, not a snapshot
// of its current child count: once set it is never cleared, so a
// migration to staticMap is one-way even across a later Remove that
// drops the child count back below threshold.
func compile(n *rawNode, threshold int) *compiledNode {
	out := &compiledNode{
		handlers:  n.handlers,
		paramName: n.paramName,
		wildName:  n.wildName,
		catchName: n.catchName,
	}

	if len(n.static) > threshold {
		n.everMap = true
	}

	if len(n.static) > 0 {
		if !n.everMap {
			out.staticSlice = make([]staticEdge, 0, len(n.static))
			for label, child := range n.static {
				out.staticSlice = append(out.staticSlice, staticEdge{label: label, node: compile(child, threshold)})
			}
		} else {
			out.staticMap = make(map[string]*compiledNode, len(n.static))
			for label, child := range n.static {
				out.staticMap[label] = compile(child, threshold)
			}
		}
	}

	if n.param != nil {
		out.param = compile(n.param, threshold)
	}
	if n.wildcard != nil {
		out.wildcard = compile(n.wildcard, threshold)
	}
	if n.catchAll != nil {
		out.catchAll = compile(n.catchAll, threshold)
	}

	return out
}
