// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package bigstripe implements memory-placement and parallel-execution
	primitives for programs whose memory is logically partitioned into
	regions: locality domains analogous to NUMA nodes or shards. An
	object may live in one region, be replicated with one physical copy
	per region, or be striped element-wise across all regions. Bigstripe
	provides the wrapper types that express these placements, together
	with the parallel traversal machinery used to operate on them.

	Placement is expressed by wrapper types with three distinct
	replication semantics:

	1. Repl replicates plain, pointer-free values: every region's copy is
	the same bytes, and assignment broadcasts to all copies.

	2. Shallow constructs one instance and propagates shallow copies of
	it to the remaining regions. Exactly one copy is ever destructed;
	types that own per-copy resources should not be replicated this way.

	3. Deep constructs and destructs every region's instance
	independently, so copies may diverge after construction.

	Array stores a sequence of 8-byte elements striped round-robin
	across regions. Reducer implements reduction variables that may be
	forked into per-task branches and folded back into a shared
	accumulator through a commutative monoid.

	Work is fanned out across regions with ForEach, which recursively
	halves the region range, spawning the upper half with an affinity
	hint toward its first region and continuing with the lower half, so
	that spawn depth is logarithmic in the region count. Element-wise
	algorithms (Fill, Transform, Transform2) traverse one, two, or three
	sequences in lockstep by zipping their cursors, and distribute index
	ranges so that each region's elements are visited by a task local to
	that region.

	The region topology is provided by package region; replicated and
	striped storage is provided by package arena. Neither allocates
	speculatively: an unsatisfiable allocation is a fatal error, and
	precondition violations (out-of-range region indices, traversing
	storage that is not replicated) panic.
*/
package bigstripe
