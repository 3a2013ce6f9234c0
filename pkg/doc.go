// Package pkg provides the core libraries for bingo card generation.
//
// # Overview
//
// The pkg directory holds the reusable building blocks behind the CLI:
//
//  1. [card] - Card structure, validation, fingerprinting, and the
//     randomized generator
//  2. [registry] - Fingerprint registries (in-memory and Redis) that
//     enforce uniqueness across a batch or a whole event
//  3. [session] - Concurrent batch preparation: workers, progress,
//     duplicate tracking, exhaustion detection
//  4. [errors] - Structured error codes and input validation
//  5. [observability] - Pluggable hooks for generation and registry events
//  6. [retry] - Bounded retries with backoff for transient failures
//  7. [buildinfo] - Version metadata injected at build time
//
// # Architecture
//
// The typical data flow through a generation run:
//
//	EventConfig (TOML / flags)
//	         ↓
//	    [session] package (workers, one generator each)
//	         ↓
//	    [card] package (generate + validate a candidate)
//	         ↓
//	    [registry] package (insert-if-absent on the fingerprint)
//	         ↓
//	    accepted card sequence → JSON output
//
// # Quick Start
//
//	sess := session.New(session.Options{Registry: registry.NewMemory()})
//	defer sess.Close()
//
//	cards, err := sess.Prepare(ctx, 9000)
//	if err != nil {
//		// EXHAUSTED_SPACE, registry failure, or cancellation
//	}
package pkg
