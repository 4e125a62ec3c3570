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
	"io"
	"log/slog"

	promclientmetrics "github.com/orbit-framework/orbit/metrics"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Option configures a Router at construction time. Every Option runs
// during New/MustNew, before the Router accepts any registration, so
// configuration errors surface immediately rather than on first use.
type Option func(*Router) error

// WithMaxChainDepth overrides the default middleware chain depth bound
// (DefaultMaxChainDepth).
func WithMaxChainDepth(n int) Option {
	return func(r *Router) error {
		if n <= 0 {
			return ErrMaxChainDepthInvalid
		}
		r.maxChainDepth = n
		return nil
	}
}

// WithCacheCapacity overrides the default LookupCache capacity
// (DefaultCacheCapacity). 0 disables caching entirely.
func WithCacheCapacity(n int) Option {
	return func(r *Router) error {
		if n < 0 {
			return ErrCacheCapacityInvalid
		}
		r.cacheCapacity = n
		return nil
	}
}

// WithSmallChildThreshold overrides the Patricia matcher's small-array-
// to-hashmap migration threshold (DefaultSmallChildThreshold).
func WithSmallChildThreshold(n int) Option {
	return func(r *Router) error {
		if n <= 0 {
			return ErrSmallChildThresholdInvalid
		}
		r.smallChildThreshold = n
		return nil
	}
}

// WithAllowedMethods overrides the default recognized method set
// (StandardMethods). RegisterAll installs under exactly these methods.
func WithAllowedMethods(methods ...string) Option {
	return func(r *Router) error {
		r.allowedMethods = append([]string(nil), methods...)
		return nil
	}
}

// WithLogger sets the structured logger stored on the Router and
// returned by Router.Logger; the Dispatcher does not log. Without this
// option (or WithRotatingLog) the Router holds a no-op logger that
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		r.logger = logger
		return nil
	}
}

// WithRotatingLog wires a size/age-rotated log file as the destination
// for a JSON slog handler, installed as the Router's logger. maxSizeMB,
// maxAgeDays, and maxBackups follow lumberjack's own semantics: a zero
// maxSizeMB uses lumberjack's 100 MB default, and a zero maxBackups or
// maxAgeDays keeps old files without a count or age limit. Rotated
// files are gzip-compressed.
func WithRotatingLog(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(r *Router) error {
		sink := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		r.logger = slog.New(slog.NewJSONHandler(sink, nil))
		return nil
	}
}

// WithExecutor overrides the default GoroutineExecutor.
func WithExecutor(executor Executor) Option {
	return func(r *Router) error {
		r.executor = executor
		return nil
	}
}

// WithMetrics installs a shared Metrics instance instead of a
// privately-owned one, letting a caller register it with its own
// Prometheus registry or scrape it from multiple routers' viewpoint.
func WithMetrics(m *promclientmetrics.Metrics) Option {
	return func(r *Router) error {
		r.metrics = m
		return nil
	}
}

// WithCancellationStatus overrides the status code the Dispatcher
// emits when the ambient context is cancelled before a response is
// produced (DefaultCancellationStatus, 499).
func WithCancellationStatus(status int) Option {
	return func(r *Router) error {
		r.cancellationStatus = status
		return nil
	}
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
