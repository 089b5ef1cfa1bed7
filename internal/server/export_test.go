// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"net/http"
	"time"
)

// TestLimiter exposes ipLimiter with a controllable clock.
type TestLimiter struct {
	l *ipLimiter
}

func NewTestLimiter(cfg RateLimitConfig, now func() time.Time) *TestLimiter {
	return &TestLimiter{l: newIPLimiter(cfg, now)}
}

func (t *TestLimiter) Allow(ip string) bool { return t.l.allow(ip) }

func (t *TestLimiter) Size() int { return t.l.size() }

func (t *TestLimiter) Middleware(next http.Handler) http.Handler { return t.l.middleware(next) }
