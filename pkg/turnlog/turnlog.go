// Package turnlog collects the ordered narrative of a simulation turn. Every
// pipeline stage appends human-readable lines here; the collected lines are
// returned in the turn result and mirrored to the structured logger.
package turnlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
)

// Log is an append-only ordered collector of turn narration. It is safe for
// concurrent use.
type Log struct {
	mu    sync.Mutex
	log   *logger.Logger
	lines []string
}

// New returns an empty Log. The structured logger is optional; when nil the
// lines are only collected.
func New(log *logger.Logger) *Log {
	return &Log{log: log}
}

// Addf formats and appends a line, mirroring it to the structured logger at
// debug level.
func (l *Log) Addf(ctx context.Context, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
	if l.log != nil {
		l.log.Debug(ctx, line)
	}
}

// Lines returns a copy of the collected lines in append order.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of collected lines.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}
