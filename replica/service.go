package replica

import (
	"sync"

	"github.com/hayley-d/crdt/crdt"
)

// Structs

type service struct {
	lock *sync.Mutex
	rga  *crdt.RGA
	send SendFunc
}

// SendFunc forwards a freshly generated operation record to the
// broadcast layer.
type SendFunc func(crdt.Operation)

// Interfaces

// Service defines what one replica of a replicated sequence
// offers to its callers. The node store, sequence engine and
// causal buffer form one critical section; every method holds
// the replica lock for its whole duration.
type Service interface {

	// Insert places a new value between the two anchor
	// identifiers, either of which may be nil, and broadcasts
	// the resulting operation record.
	Insert(value string, left *crdt.S4Vector, right *crdt.S4Vector) (crdt.Operation, error)

	// Delete tombstones the node stored under s4 and
	// broadcasts the resulting operation record.
	Delete(s4 crdt.S4Vector) (crdt.Operation, error)

	// Update replaces the value of the node stored under s4
	// and broadcasts the resulting operation record.
	Update(s4 crdt.S4Vector, value string) (crdt.Operation, error)

	// ApplyRemote hands an operation record received from a
	// peer replica to the sequence engine.
	ApplyRemote(op crdt.Operation) (crdt.Outcome, error)

	// Read returns the value of every live node in sequence
	// order.
	Read() []string

	// Snapshot returns an owned copy of the complete replica
	// state for persistence or inspection.
	Snapshot() crdt.Snapshot
}

// Functions

// NewService wraps a sequence engine into the replica service.
// Records produced by local mutations are passed to send, which
// may be nil for replicas without peers.
func NewService(rga *crdt.RGA, send SendFunc) Service {

	return &service{
		lock: new(sync.Mutex),
		rga:  rga,
		send: send,
	}
}

// Insert performs a local insert and forwards the returned
// record to the broadcast layer.
func (s *service) Insert(value string, left *crdt.S4Vector, right *crdt.S4Vector) (crdt.Operation, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	op, err := s.rga.LocalInsert(value, left, right)
	if err != nil {
		return crdt.Operation{}, err
	}

	if s.send != nil {
		s.send(op)
	}

	return op, nil
}

// Delete performs a local delete and forwards the returned
// record to the broadcast layer.
func (s *service) Delete(s4 crdt.S4Vector) (crdt.Operation, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	op, err := s.rga.LocalDelete(s4)
	if err != nil {
		return crdt.Operation{}, err
	}

	if s.send != nil {
		s.send(op)
	}

	return op, nil
}

// Update performs a local update and forwards the returned
// record to the broadcast layer. Updates of tombstoned nodes
// fail and broadcast nothing.
func (s *service) Update(s4 crdt.S4Vector, value string) (crdt.Operation, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	op, err := s.rga.LocalUpdate(s4, value)
	if err != nil {
		return crdt.Operation{}, err
	}

	if s.send != nil {
		s.send(op)
	}

	return op, nil
}

// ApplyRemote hands a received operation record to the engine.
func (s *service) ApplyRemote(op crdt.Operation) (crdt.Outcome, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.rga.ApplyRemote(op)
}

// Read returns the current sequence contents.
func (s *service) Read() []string {

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.rga.Read()
}

// Snapshot returns the complete replica state.
func (s *service) Snapshot() crdt.Snapshot {

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.rga.Snapshot()
}
