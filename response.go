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
	"strconv"
	"strings"
)

// Cookie is one Set-Cookie directive. Only Name and Value are
// required; the rest are emitted only when set.
type Cookie struct {
	Name      string
	Value     string
	MaxAge    int // meaningful only when HasMaxAge is true
	HasMaxAge bool
	Domain    string
	Path      string
	Secure    bool
	HTTPOnly  bool
	SameSite  string // "", "Strict", "Lax", "None"
}

// String renders the cookie as a Set-Cookie directive value.
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.HasMaxAge {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if c.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(c.SameSite)
	}
	return b.String()
}

// Response is the core's view of an outgoing response. Content-Length
// is recomputed on every call that changes Body, so callers never need
// to maintain it by hand.
type Response struct {
	Status     int
	Headers    map[string][]string
	Body       []byte
	SetCookies []Cookie
}

// NewResponse creates a Response with status and an empty body; its
// Content-Length header is set to "0".
func NewResponse(status int) *Response {
	r := &Response{Status: status, Headers: make(map[string][]string)}
	r.SetBody(nil)
	return r
}

// SetHeader replaces every value for name with value.
func (r *Response) SetHeader(name, value string) {
	key := strings.ToLower(name)
	if r.Headers == nil {
		r.Headers = make(map[string][]string)
	}
	r.Headers[key] = []string{value}
}

// AddHeader appends a value for name.
func (r *Response) AddHeader(name, value string) {
	key := strings.ToLower(name)
	if r.Headers == nil {
		r.Headers = make(map[string][]string)
	}
	r.Headers[key] = append(r.Headers[key], value)
}

// Header returns the first value for name, or "" if absent.
func (r *Response) Header(name string) string {
	values := r.Headers[strings.ToLower(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// SetBody replaces the body and updates Content-Length to match.
func (r *Response) SetBody(body []byte) {
	r.Body = body
	r.SetHeader("content-length", strconv.Itoa(len(body)))
}

// AddCookie appends a Set-Cookie directive. Cookies are emitted in the
// order added.
func (r *Response) AddCookie(c Cookie) {
	r.SetCookies = append(r.SetCookies, c)
}

// JSONError overwrites status and body with the error-response shape
// every dispatched failure uses unless a middleware or handler
// overrides it: {"error": "<kind>"}, content-type application/json.
func (r *Response) JSONError(status int, kind string) {
	r.Status = status
	r.SetHeader("content-type", "application/json")
	r.SetBody([]byte(fmt.Sprintf(`{"error":%q}`, kind)))
}
