/*
NAME
  sync.go

DESCRIPTION
  sync.go holds the immutable training-sequence bit patterns used for burst
  synchronization, per spec.md §4.3 and §9's "global/singleton
  configuration" redesign note: these are owned value tables, not mutable
  process-wide state.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package burst

// continuousSync and discontinuousSync are the two 22-bit downlink
// training-sequence patterns correlated against the bit stream during sync
// search, per spec.md §4.3. These mirror the source's heuristic
// approximations (§9) rather than claiming full ETSI conformance.
var continuousSync = []byte{
	1, 1, 0, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 1, 0, 0, 0, 1, 1, 1, 0, 1,
}

var discontinuousSync = []byte{
	0, 1, 1, 1, 0, 0, 1, 1, 0, 1, 0, 1, 1, 1, 0, 0, 1, 1, 0, 1, 0, 1,
}

// syncBurstTraining is the longer training region used to identify
// Synchronization bursts, per spec.md §4.3's "use [108..130) as the longer
// training region" rule.
var syncBurstTraining = []byte{
	1, 1, 0, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 1, 0, 0, 0, 1, 1, 1, 0, 1,
}
