// Package rlog provides a small rate-limited logging helper for
// conditions that would otherwise spam the console every frame (spec
// §7: "logged every 60 frames" for compile-failure degradation and
// similar steady-state warnings), generalizing the teacher's single
// "[FFmpeg]"-tag log.Printf style (arcana/arcana_linux.go) into a
// reusable per-site throttle.
package rlog

import (
	"log"
	"sync"
)

// Throttle rate-limits a log site to firing at most once per Every
// calls to Printf. The zero value fires every call (Every==0 disables
// throttling).
type Throttle struct {
	Every int

	mu    sync.Mutex
	count int64
}

// Printf logs, but only every t.Every calls (the first call always logs).
func (t *Throttle) Printf(format string, args ...any) {
	t.mu.Lock()
	fire := t.Every <= 0 || t.count%int64(t.Every) == 0
	t.count++
	t.mu.Unlock()

	if fire {
		log.Printf(format, args...)
	}
}

// New returns a Throttle that logs at most once every n calls.
func New(n int) *Throttle { return &Throttle{Every: n} }
