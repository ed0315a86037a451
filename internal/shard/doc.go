// Package shard implements the per-owner vector index store.
//
// Each owner gets one flat inner-product index: an ordered sequence of
// vectors with a parallel ordered key list. The pairing invariant is
// positional — keys[i] identifies vectors[i] — and both sequences are
// persisted together as two companion artifacts per owner.
//
// The index supports append and nearest-neighbor search natively. It does
// not support in-place mutation or deletion by key, so vector replacement is
// implemented as a full reconstruct-and-rebuild followed by an atomic
// persist-and-swap. This is O(shard size) and deliberately explicit; callers
// needing frequent updates should batch them.
//
// The store is a best-effort memory cache, not a system of record: corrupt
// or unreadable artifacts load as an empty shard rather than failing.
package shard
