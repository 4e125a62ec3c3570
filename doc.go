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

// Package orbit is a transport-agnostic HTTP request dispatch core: a
// Router holding a compressed static trie and a backtracking Patricia
// matcher behind a bounded LRU lookup cache, a Dispatcher running a
// single iterative middleware chain around route resolution and
// handler invocation, and a WebSocket upgrade handshake - all built on
// a caller-supplied Executor so the core itself never spawns a
// goroutine of its own. See package orbitnethttp for the net/http
// adapter.
package orbit
