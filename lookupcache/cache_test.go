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

package lookupcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key struct {
	method string
	path   string
}

func TestCacheGetPutRoundTrip(t *testing.T) {
	c := New[key, int](4)
	c.Put(key{"GET", "/a"}, 1)

	v, ok := c.Get(key{"GET", "/a"})
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get(key{"GET", "/missing"})
	assert.False(t, ok)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[key, int](2)
	c.Put(key{"GET", "/a"}, 1)
	c.Put(key{"GET", "/b"}, 2)

	// Touch /a so /b becomes the least recently used.
	_, _ = c.Get(key{"GET", "/a"})
	c.Put(key{"GET", "/c"}, 3)

	_, ok := c.Get(key{"GET", "/b"})
	assert.False(t, ok, "/b should have been evicted")

	v, ok := c.Get(key{"GET", "/a"})
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = c.Get(key{"GET", "/c"})
	require.True(t, ok)
	assert.Equal(t, 3, v)

	assert.Equal(t, 2, c.Len())
}

func TestCacheUpdateExistingKeyDoesNotGrow(t *testing.T) {
	c := New[key, int](2)
	c.Put(key{"GET", "/a"}, 1)
	c.Put(key{"GET", "/a"}, 2)

	assert.Equal(t, 1, c.Len())
	v, ok := c.Get(key{"GET", "/a"})
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCacheFlushClearsEverything(t *testing.T) {
	c := New[key, int](4)
	c.Put(key{"GET", "/a"}, 1)
	c.Put(key{"GET", "/b"}, 2)

	c.Flush()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(key{"GET", "/a"})
	assert.False(t, ok)
}

func TestCacheZeroCapacityDisablesCaching(t *testing.T) {
	c := New[key, int](0)
	c.Put(key{"GET", "/a"}, 1)

	_, ok := c.Get(key{"GET", "/a"})
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheStats(t *testing.T) {
	c := New[key, int](4)
	c.Put(key{"GET", "/a"}, 1)

	_, _ = c.Get(key{"GET", "/a"})
	_, _ = c.Get(key{"GET", "/missing"})

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	c.ResetStats()
	hits, misses = c.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(0), misses)
}
