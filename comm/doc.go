/*
Package comm implements the network communication capabilities among the
replicas of a replicated sequence. A sender broadcasts locally generated
operation records to all configured peers, a receiver accepts records from
peers and hands them to the replica for application.

Deliveries are unordered. The sender makes up to three attempts per peer and
record; a record whose every attempt to a peer fails is logged and not
delivered to that peer. The layer guarantees that records
are not mutated in flight and that a replica never applies its own or an
already seen transmission: every message carries a unique delivery tag that is
deduplicated at the receiver. Records arriving before the operations they
depend on are handled by the sequence engine's causal buffer, not here.
*/
package comm
