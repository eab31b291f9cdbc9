package crdt

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Structs

// Outcome describes what happened to a remote operation record
// handed to the replica.
type Outcome int

const (
	// OutcomeApplied means all dependencies were met and the
	// operation took effect immediately.
	OutcomeApplied Outcome = iota

	// OutcomeBuffered means the operation waits in the causal
	// buffer until every identifier it references has arrived.
	OutcomeBuffered

	// OutcomeDropped means the operation was recognized as a
	// duplicate delivery and discarded.
	OutcomeDropped
)

// String returns the textual outcome name for log output.
func (o Outcome) String() string {

	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeBuffered:
		return "buffered"
	default:
		return "dropped"
	}
}

// pendingKey distinguishes buffered operations. The identifier
// alone is not enough: a delete waiting for its target shares
// the identifier with the insert that creates it.
type pendingKey struct {
	kind Kind
	s4   S4Vector
}

// pendingOp pairs a buffered operation with the set of
// identifiers it still waits for.
type pendingOp struct {
	op    Operation
	unmet mapset.Set[S4Vector]
}

// CausalBuffer holds remote operations whose dependencies have
// not yet been observed locally and releases them as soon as
// they become satisfiable. Operations may wait indefinitely;
// no timeout is imposed here.
type CausalBuffer struct {
	pending map[pendingKey]*pendingOp
	waiters map[S4Vector]mapset.Set[pendingKey]
}

// Functions

// InitCausalBuffer returns an empty initialized new causal buffer.
func InitCausalBuffer() *CausalBuffer {

	return &CausalBuffer{
		pending: make(map[pendingKey]*pendingOp),
		waiters: make(map[S4Vector]mapset.Set[pendingKey]),
	}
}

// Submit checks the dependencies of a remote operation against
// the present function, usually the node store's Contains. It
// returns OutcomeApplied if all of them are met, in which case
// the caller applies the operation right away. Otherwise the
// operation is stored and OutcomeBuffered is returned. An
// operation already waiting under the same key is dropped.
func (buf *CausalBuffer) Submit(op Operation, present func(S4Vector) bool) Outcome {

	key := pendingKey{kind: op.Kind, s4: op.S4}

	if _, exists := buf.pending[key]; exists {
		return OutcomeDropped
	}

	// Collect the referenced identifiers not yet observed.
	unmet := mapset.NewSet[S4Vector]()
	for _, dep := range op.dependencies() {

		if !present(dep) {
			unmet.Add(dep)
		}
	}

	if unmet.Cardinality() == 0 {
		return OutcomeApplied
	}

	buf.pending[key] = &pendingOp{
		op:    op,
		unmet: unmet,
	}

	// Index the operation under each missing identifier for
	// efficient wake-up on arrival.
	for _, dep := range unmet.ToSlice() {

		waiting, exists := buf.waiters[dep]
		if !exists {
			waiting = mapset.NewSet[pendingKey]()
			buf.waiters[dep] = waiting
		}

		waiting.Add(key)
	}

	return OutcomeBuffered
}

// NotifyInserted is called after every successful insert of s4.
// Every operation whose unmet set thereby becomes empty is
// removed from the buffer and returned, ordered by the total
// order on its identifier. The caller applies the returned
// operations and re-enters NotifyInserted after each insert
// among them, so cascading releases are possible.
func (buf *CausalBuffer) NotifyInserted(s4 S4Vector) []Operation {

	waiting, exists := buf.waiters[s4]
	if !exists {
		return nil
	}

	delete(buf.waiters, s4)

	ready := make([]Operation, 0, waiting.Cardinality())

	for _, key := range waiting.ToSlice() {

		waiter := buf.pending[key]
		waiter.unmet.Remove(s4)

		if waiter.unmet.Cardinality() == 0 {
			delete(buf.pending, key)
			ready = append(ready, waiter.op)
		}
	}

	sort.Slice(ready, func(i int, j int) bool {
		return ready[i].S4.Precedes(ready[j].S4)
	})

	return ready
}

// Len returns the number of operations currently held back.
func (buf *CausalBuffer) Len() int {
	return len(buf.pending)
}

// Pending returns a copy of all held back operations, e.g. for
// a snapshot of the replica.
func (buf *CausalBuffer) Pending() []Operation {

	pending := make([]Operation, 0, len(buf.pending))

	for _, waiter := range buf.pending {
		pending = append(pending, waiter.op)
	}

	sort.Slice(pending, func(i int, j int) bool {
		return pending[i].S4.Precedes(pending[j].S4)
	})

	return pending
}
