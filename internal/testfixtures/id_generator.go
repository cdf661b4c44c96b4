package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator yields deterministic identifiers such as "meeting-001".
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

// NewIDGenerator constructs a generator for prefix, "id" when empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%03d", g.prefix, g.counter)
}

// NextFunc exposes Next for injection into services.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many identifiers have been handed out.
func (g *IDGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}
