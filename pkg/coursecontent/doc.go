// Package coursecontent manages the learning-content documents that live
// under a course task (course -> unit -> task -> content).
//
// Each content document holds an ordered list of items of a single kind
// (arithmetic exercises, cards, flashcards). Items are addressed by their
// Position, a caller-facing key that is independent of the item's index in
// storage. The Service keeps positions unique, keeps the document's declared
// type and sequence number stable, and stamps edit timestamps, on top of a
// DocumentStore that only offers per-document get/update/create/delete.
//
// # Concurrency
//
// Every mutation is a single read-modify-write performed through one helper.
// By default the write is unconditional (last writer wins). When the store
// implements RevisionStore the service can be configured with
// ConcurrencyOptimistic, in which case a write based on a stale snapshot fails
// with ErrConflict instead of silently discarding the other writer's change.
//
// Store backends (memory, filesystem, S3, Postgres, Redis) live under the
// store subpackages.
package coursecontent
