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

// mountConfig accumulates the options passed to Mount before a
// mountEntry is built.
type mountConfig struct {
	namePrefix string
	notFound   *Handler
}

// MountOption configures a single Mount call. Unlike the teacher's
// mount options, there is no per-mount middleware vocabulary here: the
// dispatch model runs exactly one middleware chain, owned by the
// Dispatcher, once per request before the route tree (mounted
// sub-routers included) is ever consulted - a mounted sub-router has
// no independent chain of its own to inherit or extend.
type MountOption func(*mountConfig)

// NamePrefix records a human-readable prefix attached to route names
// reported by ListRoutes for routes reached through this mount, purely
// for observability.
func NamePrefix(prefix string) MountOption {
	return func(c *mountConfig) {
		c.namePrefix = prefix
	}
}

// WithNotFound installs a fallback Handler invoked when a request
// segment-aligns with the mount's prefix but resolves to no route in
// the sub-router, instead of falling through to the parent's own
// not-found handling.
func WithNotFound(h Handler) MountOption {
	return func(c *mountConfig) {
		c.notFound = &h
	}
}
