package testutil

import (
	"fmt"
	"sync"
)

// SequenceTokens hands out session tokens "session-1", "session-2", ...
//
// It satisfies session.TokenGenerator so golden transcripts and debug logs
// stay byte-identical between runs.
//
// Thread-safety: SequenceTokens is safe for concurrent use via internal mutex.
type SequenceTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokens creates a generator. An empty prefix means "session".
func NewSequenceTokens(prefix string) *SequenceTokens {
	if prefix == "" {
		prefix = "session"
	}
	return &SequenceTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *SequenceTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
