package crdt

import (
	"github.com/pkg/errors"
)

// Structs

// RGA is one replica of a replicated growable array. It owns the
// node store and the causal buffer and is the single entry point
// for local mutations and remote operation records.
type RGA struct {
	ssn      uint64
	sid      uint64
	localSeq uint64
	head     *S4Vector
	store    *NodeStore
	buffer   *CausalBuffer
}

// Snapshot captures everything needed to restore a replica:
// the identifier state, the head reference, every node and the
// operations still held back in the causal buffer.
type Snapshot struct {
	Ssn      uint64
	Sid      uint64
	LocalSeq uint64
	Head     *S4Vector
	Nodes    []Node
	Pending  []Operation
}

// Functions

// InitRGA returns an empty initialized new replica for the given
// collaboration session and site.
func InitRGA(ssn uint64, sid uint64) *RGA {

	return &RGA{
		ssn:    ssn,
		sid:    sid,
		store:  InitNodeStore(),
		buffer: InitCausalBuffer(),
	}
}

// InitRGAFromSnapshot restores a replica from a snapshot taken
// earlier. Nodes carry their neighbor references verbatim, so
// the restored chain satisfies the same link invariants as the
// one that was saved. Held back operations re-enter the causal
// buffer through the regular remote path.
func InitRGAFromSnapshot(snap Snapshot) (*RGA, error) {

	rga := InitRGA(snap.Ssn, snap.Sid)
	rga.localSeq = snap.LocalSeq

	if snap.Head != nil {
		head := *snap.Head
		rga.head = &head
	}

	for i := range snap.Nodes {

		node := snap.Nodes[i]
		if err := rga.store.InsertNode(&node); err != nil {
			return nil, errors.Wrap(err, "restoring node from snapshot failed")
		}
	}

	for _, op := range snap.Pending {

		if _, err := rga.ApplyRemote(op); err != nil {
			return nil, errors.Wrap(err, "restoring buffered operation from snapshot failed")
		}
	}

	return rga, nil
}

// LocalInsert inserts a new value between the two anchor
// identifiers, either of which may be nil, and returns the
// operation record to broadcast. The anchors are resolved before
// an identifier is allocated, so a failed call leaves the
// replica's state untouched.
func (rga *RGA) LocalInsert(value string, left *S4Vector, right *S4Vector) (Operation, error) {

	if (left != nil) && !rga.store.Contains(*left) {
		return Operation{}, errors.Wrap(ErrUnknownReference, "left anchor")
	}

	if (right != nil) && !rga.store.Contains(*right) {
		return Operation{}, errors.Wrap(ErrUnknownReference, "right anchor")
	}

	s4 := GenerateS4Vector(left, right, rga.ssn, rga.sid, &rga.localSeq)

	node := &Node{
		Value: value,
		S4:    s4,
		Left:  copyAnchor(left),
		Right: copyAnchor(right),
	}

	if err := rga.insertIntoList(node); err != nil {
		return Operation{}, err
	}

	if err := rga.drainAfterInsert(s4); err != nil {
		return Operation{}, err
	}

	return Operation{
		Kind:  OpInsert,
		S4:    s4,
		Value: value,
		Left:  copyAnchor(left),
		Right: copyAnchor(right),
	}, nil
}

// LocalDelete tombstones the node stored under s4 and returns
// the operation record to broadcast. Deleting an already
// tombstoned node still returns a record: convergence requires
// delete to be idempotent across replicas.
func (rga *RGA) LocalDelete(s4 S4Vector) (Operation, error) {

	if err := rga.store.MarkTombstone(s4); err != nil {
		return Operation{}, err
	}

	return Operation{
		Kind: OpDelete,
		S4:   s4,
	}, nil
}

// LocalUpdate replaces the value of the node stored under s4 and
// returns the operation record to broadcast. An update of a
// tombstoned node fails and broadcasts nothing, so the deletion
// wins deterministically at every replica.
func (rga *RGA) LocalUpdate(s4 S4Vector, value string) (Operation, error) {

	if err := rga.store.SetValue(s4, value); err != nil {
		return Operation{}, err
	}

	return Operation{
		Kind:  OpUpdate,
		S4:    s4,
		Value: value,
	}, nil
}

// ApplyRemote is the sole entry point for operations that
// originated at other replicas. Operations whose dependencies
// have not all arrived yet are held back in the causal buffer
// and applied on arrival of the missing identifiers.
func (rga *RGA) ApplyRemote(op Operation) (Outcome, error) {

	// A re-delivered insert is recognized by its identifier.
	if (op.Kind == OpInsert) && rga.store.Contains(op.S4) {
		return OutcomeDropped, nil
	}

	outcome := rga.buffer.Submit(op, rga.store.Contains)
	if outcome != OutcomeApplied {
		return outcome, nil
	}

	if err := rga.applyRemoteOp(op); err != nil {
		return outcome, err
	}

	return OutcomeApplied, nil
}

// Read walks the chain from head and returns the value of every
// live node, in sequence order. The returned slice is owned by
// the caller.
func (rga *RGA) Read() []string {

	result := make([]string, 0, rga.store.Len())

	current := rga.head
	for current != nil {

		node, err := rga.store.Get(*current)
		if err != nil {
			break
		}

		if !node.Tombstone {
			result = append(result, node.Value)
		}

		current = node.Right
	}

	return result
}

// Snapshot returns an owned copy of the complete replica state.
func (rga *RGA) Snapshot() Snapshot {

	snap := Snapshot{
		Ssn:      rga.ssn,
		Sid:      rga.sid,
		LocalSeq: rga.localSeq,
		Nodes:    rga.store.Nodes(),
		Pending:  rga.buffer.Pending(),
	}

	if rga.head != nil {
		head := *rga.head
		snap.Head = &head
	}

	return snap
}

// Head returns the identifier of the leftmost node, or nil for
// an empty replica.
func (rga *RGA) Head() *S4Vector {
	return copyAnchor(rga.head)
}

// Buffered returns the number of remote operations currently
// held back in the causal buffer.
func (rga *RGA) Buffered() int {
	return rga.buffer.Len()
}

// applyRemoteOp performs a remote operation whose dependencies
// are met. Re-deliveries degrade to no-ops here so that applying
// the same record twice leaves the state unchanged.
func (rga *RGA) applyRemoteOp(op Operation) error {

	switch op.Kind {

	case OpInsert:

		node := &Node{
			Value: op.Value,
			S4:    op.S4,
			Left:  copyAnchor(op.Left),
			Right: copyAnchor(op.Right),
		}

		err := rga.insertIntoList(node)
		if errors.Cause(err) == ErrDuplicateIdentifier {
			// The operation is already applied.
			return nil
		}
		if err != nil {
			return err
		}

		return rga.drainAfterInsert(op.S4)

	case OpDelete:

		// Tombstone transitions are idempotent.
		return rga.store.MarkTombstone(op.S4)

	case OpUpdate:

		err := rga.store.SetValue(op.S4, op.Value)
		if errors.Cause(err) == ErrTombstonedTarget {
			// Update-after-delete loses deterministically.
			return nil
		}

		return err
	}

	return nil
}

// drainAfterInsert releases every buffered operation that became
// satisfiable through the arrival of s4 and applies it. Applied
// inserts re-enter the drain, so one arrival can cascade through
// a whole chain of held back operations.
func (rga *RGA) drainAfterInsert(s4 S4Vector) error {

	for _, op := range rga.buffer.NotifyInserted(s4) {

		if err := rga.applyRemoteOp(op); err != nil {
			return err
		}
	}

	return nil
}

// insertIntoList places a new node relative to its anchors and
// splices it into the chain. Between the anchors other replicas'
// concurrent inserts may already have been placed; the scan
// skips past every such sibling that outranks the new node under
// the total order, which yields the same placement for any set
// of concurrent inserts at every replica.
func (rga *RGA) insertIntoList(node *Node) error {

	if rga.store.Contains(node.S4) {
		return errors.Wrap(ErrDuplicateIdentifier, node.S4.String())
	}

	// prev and next converge on the final splice position,
	// starting at the left anchor or the head of the chain.
	var prev *S4Vector
	var next *S4Vector

	if node.Left != nil {

		anchor, err := rga.store.Get(*node.Left)
		if err != nil {
			return err
		}

		prev = copyAnchor(&anchor.S4)
		next = copyAnchor(anchor.Right)
	} else {
		next = copyAnchor(rga.head)
	}

	for next != nil {

		// The right anchor bounds the concurrent-insert zone.
		if (node.Right != nil) && (*next == *node.Right) {
			break
		}

		sibling, err := rga.store.Get(*next)
		if err != nil {
			return err
		}

		// Stop once the new node outranks the sibling; the
		// greater identifier places closer to the left anchor.
		if sibling.S4.Precedes(node.S4) {
			break
		}

		prev = copyAnchor(&sibling.S4)
		next = copyAnchor(sibling.Right)
	}

	// Splice the node between prev and next, replacing its
	// generation-time anchors with the placement neighbors.
	node.Left = prev
	node.Right = next

	if err := rga.store.InsertNode(node); err != nil {
		return err
	}

	if prev != nil {

		if err := rga.store.SetRight(*prev, copyAnchor(&node.S4)); err != nil {
			return err
		}
	} else {
		rga.head = copyAnchor(&node.S4)
	}

	if next != nil {

		if err := rga.store.SetLeft(*next, copyAnchor(&node.S4)); err != nil {
			return err
		}
	}

	return nil
}

// copyAnchor returns an owned copy of an optional identifier
// reference.
func copyAnchor(s4 *S4Vector) *S4Vector {

	if s4 == nil {
		return nil
	}

	copied := *s4

	return &copied
}
