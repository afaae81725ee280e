// Package cache keeps recently built graphs in an LRU keyed by a digest of
// the findings they were built from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zero-day-ai/huntgraph/finding"
	"github.com/zero-day-ai/huntgraph/graph"
)

// Digest returns the hex SHA-256 of the findings' JSON encoding. Details
// maps encode with sorted keys, so equal inputs give equal digests.
func Digest(findings []finding.Finding) (string, error) {
	if findings == nil {
		findings = []finding.Finding{}
	}
	data, err := json.Marshal(findings)
	if err != nil {
		return "", fmt.Errorf("failed to encode findings: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// GraphCache is a fixed-size LRU of built graphs. It is safe for concurrent
// use. A nil or zero-size cache stores nothing.
//
// Cached graphs are shared between callers and must be treated as read-only.
type GraphCache struct {
	lru *lru.Cache[string, graph.Graph]
}

// New creates a cache holding up to size graphs. size <= 0 disables caching.
func New(size int) (*GraphCache, error) {
	if size <= 0 {
		return &GraphCache{}, nil
	}
	c, err := lru.New[string, graph.Graph](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph cache: %w", err)
	}
	return &GraphCache{lru: c}, nil
}

// Enabled reports whether the cache stores anything.
func (c *GraphCache) Enabled() bool {
	return c != nil && c.lru != nil
}

// Get returns the graph stored under digest.
func (c *GraphCache) Get(digest string) (graph.Graph, bool) {
	if !c.Enabled() {
		return graph.Graph{}, false
	}
	return c.lru.Get(digest)
}

// Add stores g under digest, evicting the least recently used entry when full.
func (c *GraphCache) Add(digest string, g graph.Graph) {
	if !c.Enabled() {
		return
	}
	c.lru.Add(digest, g)
}

// Len returns the number of cached graphs.
func (c *GraphCache) Len() int {
	if !c.Enabled() {
		return 0
	}
	return c.lru.Len()
}

// Purge empties the cache.
func (c *GraphCache) Purge() {
	if c.Enabled() {
		c.lru.Purge()
	}
}

// GetOrBuild returns the cached graph for findings, or calls build and
// caches its result. hit reports whether the cache answered. Findings that
// cannot be digested are built without caching.
func (c *GraphCache) GetOrBuild(findings []finding.Finding, build func([]finding.Finding) graph.Graph) (g graph.Graph, hit bool) {
	if !c.Enabled() {
		return build(findings), false
	}

	digest, err := Digest(findings)
	if err != nil {
		return build(findings), false
	}

	if cached, ok := c.lru.Get(digest); ok {
		return cached, true
	}

	g = build(findings)
	c.lru.Add(digest, g)
	return g, false
}
