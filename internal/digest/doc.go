// Package digest holds the synchronous stages that turn collected items into
// a delivered message: cleaning, junk filtering, deduplication, ranking and
// size-bounded rendering.
//
// Every stage is a pure transformation over values; none of them performs I/O
// or keeps state between runs, so callers may reuse a configured stage across
// runs and goroutines.
package digest
