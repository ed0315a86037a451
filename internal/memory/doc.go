// Package memory ties the embedding provider, the per-owner vector shard
// store and the durable record store together into the retrieval subsystem:
// write-through storage with consolidation of fact-like content, similarity
// search over an owner's memories, and assembly of bounded conversation
// context for a downstream generation step.
//
// Every operation is scoped to one owner. Failures here are advisory by
// design: callers on a primary write path (message creation, onboarding)
// must treat memory errors as non-fatal and continue.
package memory
