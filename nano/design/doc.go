// Package design is the topology model: grids, helices, strands and
// cross-overs, and the invariants tying them together.
//
// Entities live in generation-tagged arenas owned by a Design. Other entities
// and outside callers refer to them through small handle values (GridID,
// HelixID, StrandID, CrossOverID); a handle to a removed entity fails with
// ErrInvalidReference instead of aliasing whatever reused its slot.
//
// A Strand is one contiguous run of bases on one helix. Cross-overs link the
// 3' end of one strand to the 5' end of a strand on another helix; following
// them yields the logical DNA strand (see Chain).
//
// Design is not safe for concurrent use. The session package serializes
// access and hands clones to readers.
package design
