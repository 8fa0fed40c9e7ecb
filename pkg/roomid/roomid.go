// Package roomid generates process-unique room identifiers.
//
// An identifier is a fixed prefix followed by a number combining a
// millisecond timestamp with a per-millisecond sequence. The wall clock
// alone can repeat under rapid calls; the sequence bits keep identifiers
// collision-free for the lifetime of the generator.
package roomid

import (
	"strconv"
	"sync"
	"time"
)

const (
	sequenceBits = 12
	maxSequence  = (1 << sequenceBits) - 1
)

// Generator issues monotonically increasing identifiers. Safe for
// concurrent use.
type Generator struct {
	mu            sync.Mutex
	prefix        string
	lastTimestamp int64
	sequence      int64
}

func NewGenerator(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

// Next returns the next identifier. If the clock moves backwards the
// generator stays on the last observed millisecond and keeps counting,
// so identifiers never repeat.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := currentMilliseconds()
	if ts <= g.lastTimestamp {
		ts = g.lastTimestamp
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted within one millisecond; move on.
			ts = g.lastTimestamp + 1
		}
	} else {
		g.sequence = 0
	}
	g.lastTimestamp = ts

	return g.prefix + strconv.FormatInt(ts<<sequenceBits|g.sequence, 10)
}

func currentMilliseconds() int64 {
	return time.Now().UnixMilli()
}
