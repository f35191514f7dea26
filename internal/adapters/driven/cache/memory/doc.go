// Package memory provides an in-memory implementation of
// driven.ResourceCache with TTL-based freshness and
// stale-while-revalidate retention.
//
// The key space is partitioned across a fixed number of shards, each
// with its own lock, so concurrent operations on unrelated keys never
// contend on a single global lock.
package memory
