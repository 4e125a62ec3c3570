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

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStaticRoot(t *testing.T) {
	p, err := Parse("/")
	require.NoError(t, err)
	assert.Equal(t, "/", p.Raw)
	assert.True(t, p.IsStatic())
	assert.Empty(t, p.Segments)
}

func TestParseStaticPath(t *testing.T) {
	p, err := Parse("/users/profile")
	require.NoError(t, err)
	assert.Equal(t, "/users/profile", p.Raw)
	assert.True(t, p.IsStatic())
	require.Len(t, p.Segments, 2)
	assert.Equal(t, Segment{Kind: Static, Text: "users"}, p.Segments[0])
	assert.Equal(t, Segment{Kind: Static, Text: "profile"}, p.Segments[1])
}

func TestParseDropsDuplicateAndTrailingSlashes(t *testing.T) {
	p, err := Parse("/users//:id/")
	require.NoError(t, err)
	assert.Equal(t, "/users/:id", p.Raw)
	require.Len(t, p.Segments, 2)
	assert.Equal(t, Param, p.Segments[1].Kind)
	assert.Equal(t, "id", p.Segments[1].Text)
}

func TestParseParamWildcardCatchAll(t *testing.T) {
	p, err := Parse("/files/:bucket/*shard/**rest")
	require.NoError(t, err)
	require.Len(t, p.Segments, 4)
	assert.Equal(t, Static, p.Segments[0].Kind)
	assert.Equal(t, Param, p.Segments[1].Kind)
	assert.Equal(t, "bucket", p.Segments[1].Text)
	assert.Equal(t, Wildcard, p.Segments[2].Kind)
	assert.Equal(t, "shard", p.Segments[2].Text)
	assert.Equal(t, CatchAll, p.Segments[3].Kind)
	assert.Equal(t, "rest", p.Segments[3].Text)
	assert.False(t, p.IsStatic())
}

func TestParseBareWildcardAndCatchAllDefaultNames(t *testing.T) {
	p, err := Parse("/static/*")
	require.NoError(t, err)
	assert.Equal(t, defaultWildcardName, p.Segments[1].Text)

	p, err = Parse("/files/**")
	require.NoError(t, err)
	assert.Equal(t, defaultCatchAllName, p.Segments[1].Text)
}

func TestParseRejectsEmptyParamName(t *testing.T) {
	_, err := Parse("/users/:")
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseRejectsDuplicateParamName(t *testing.T) {
	_, err := Parse("/users/:id/posts/:id")
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseRejectsNonTerminalCatchAll(t *testing.T) {
	_, err := Parse("/files/**rest/meta")
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseRejectsControlBytes(t *testing.T) {
	_, err := Parse("/users/\x01bad")
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseAcceptsValidUTF8StaticSegments(t *testing.T) {
	for _, raw := range []string{"/café", "/日本語/menu", "/users/café/profile"} {
		_, err := Parse(raw)
		require.NoError(t, err, "expected %q to be accepted", raw)
	}
}

func TestParseRejectsMalformedUTF8(t *testing.T) {
	_, err := Parse("/users/\xff\xfebad")
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseDeterministic(t *testing.T) {
	const raw = "/users/:id/posts/:postId"
	first, err := Parse(raw)
	require.NoError(t, err)
	second, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCanonicalizePathIdempotent(t *testing.T) {
	cases := []string{"/", "/a", "/a/", "/a//b", "//a/b//"}
	for _, c := range cases {
		once, err := CanonicalizePath(c)
		require.NoError(t, err)
		twice, err := CanonicalizePath(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "canonicalization not idempotent for %q", c)
	}
}

func TestCanonicalizePathRequiresLeadingSlash(t *testing.T) {
	_, err := CanonicalizePath("users")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestCanonicalizePathCollapsesEmptySegment(t *testing.T) {
	// "/users//x" collapses the empty segment between the slashes.
	got, err := CanonicalizePath("/users//x")
	require.NoError(t, err)
	assert.Equal(t, "/users/x", got)
}

// FuzzParse ensures the parser never panics on arbitrary input.
func FuzzParse(f *testing.F) {
	f.Add("/")
	f.Add("/users")
	f.Add("/users/:id")
	f.Add("/users/:id/posts/:postId")
	f.Add("/static/*")
	f.Add("/files/**rest")
	f.Add("")
	f.Add("//")
	f.Add("/users//posts")
	f.Add("invalid-path-without-leading-slash")

	f.Fuzz(func(t *testing.T, raw string) {
		_, _ = Parse(raw)
		_, _ = CanonicalizePath(raw)
	})
}
