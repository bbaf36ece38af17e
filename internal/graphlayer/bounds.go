// Package graphlayer implements GraphLayer, the optional typed adjacency
// store backing relationship traversal.
package graphlayer

import "time"

// Bounds caps a traversal's hop count, node count, edge count, and wall
// time, matching the storage layer's GraphBounds contract in the teacher.
type Bounds struct {
	MaxHops  int
	MaxNodes int
	MaxEdges int
	Timeout  time.Duration
}

// Normalize applies documented defaults and caps.
func (b *Bounds) Normalize() {
	if b.MaxHops <= 0 {
		b.MaxHops = 3
	}
	if b.MaxHops > 10 {
		b.MaxHops = 10
	}
	if b.MaxNodes <= 0 {
		b.MaxNodes = 100
	}
	if b.MaxNodes > 1000 {
		b.MaxNodes = 1000
	}
	if b.MaxEdges <= 0 {
		b.MaxEdges = 500
	}
	if b.MaxEdges > 5000 {
		b.MaxEdges = 5000
	}
	if b.Timeout <= 0 {
		b.Timeout = 30 * time.Second
	}
	if b.Timeout > 5*time.Minute {
		b.Timeout = 5 * time.Minute
	}
}

// boundsChecker enforces Bounds during a single traversal call.
type boundsChecker struct {
	bounds    Bounds
	deadline  time.Time
	nodeCount int
	edgeCount int
}

func newBoundsChecker(b Bounds) *boundsChecker {
	b.Normalize()
	return &boundsChecker{bounds: b, deadline: time.Now().Add(b.Timeout)}
}

func (c *boundsChecker) allowNode() bool {
	if time.Now().After(c.deadline) {
		return false
	}
	if c.nodeCount >= c.bounds.MaxNodes {
		return false
	}
	c.nodeCount++
	return true
}

func (c *boundsChecker) allowEdge() bool {
	if c.edgeCount >= c.bounds.MaxEdges {
		return false
	}
	c.edgeCount++
	return true
}
