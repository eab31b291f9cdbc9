package crdt

import (
	"github.com/pkg/errors"
)

// Structs

// Node is one element of the replicated sequence. Left and Right
// are identifier references into the node store, not owning
// pointers, so the ownership graph stays cycle-free.
type Node struct {
	Value     string
	S4        S4Vector
	Tombstone bool
	Left      *S4Vector
	Right     *S4Vector
}

// NodeStore owns every node a replica has ever observed, keyed
// by identifier. Tombstoned nodes are kept for the lifetime of
// the replica; the store never deletes.
type NodeStore struct {
	nodes map[S4Vector]*Node
}

// Functions

// InitNodeStore returns an empty initialized new node store.
func InitNodeStore() *NodeStore {

	return &NodeStore{
		nodes: make(map[S4Vector]*Node),
	}
}

// InsertNode stores a node under its identifier. Identifiers are
// never reused, so an already present identifier is rejected.
func (store *NodeStore) InsertNode(node *Node) error {

	if _, exists := store.nodes[node.S4]; exists {
		return errors.Wrap(ErrDuplicateIdentifier, node.S4.String())
	}

	store.nodes[node.S4] = node

	return nil
}

// Get returns the node stored under s4.
func (store *NodeStore) Get(s4 S4Vector) (*Node, error) {

	node, exists := store.nodes[s4]
	if !exists {
		return nil, errors.Wrap(ErrUnknownReference, s4.String())
	}

	return node, nil
}

// Contains reports whether an identifier is present in the store.
func (store *NodeStore) Contains(s4 S4Vector) bool {

	_, exists := store.nodes[s4]

	return exists
}

// SetLeft updates the left neighbor reference of the node stored
// under s4.
func (store *NodeStore) SetLeft(s4 S4Vector, target *S4Vector) error {

	node, err := store.Get(s4)
	if err != nil {
		return err
	}

	node.Left = target

	return nil
}

// SetRight updates the right neighbor reference of the node
// stored under s4.
func (store *NodeStore) SetRight(s4 S4Vector, target *S4Vector) error {

	node, err := store.Get(s4)
	if err != nil {
		return err
	}

	node.Right = target

	return nil
}

// MarkTombstone sets the tombstone flag of the node stored under
// s4. The transition is one-way and the call is idempotent.
func (store *NodeStore) MarkTombstone(s4 S4Vector) error {

	node, err := store.Get(s4)
	if err != nil {
		return err
	}

	node.Tombstone = true

	return nil
}

// SetValue replaces the value of the node stored under s4.
// Tombstoned nodes do not accept updates anymore.
func (store *NodeStore) SetValue(s4 S4Vector, value string) error {

	node, err := store.Get(s4)
	if err != nil {
		return err
	}

	if node.Tombstone {
		return errors.Wrap(ErrTombstonedTarget, s4.String())
	}

	node.Value = value

	return nil
}

// Len returns the number of nodes in the store, tombstoned
// nodes included.
func (store *NodeStore) Len() int {
	return len(store.nodes)
}

// Nodes returns an owned copy of every node in the store. No
// reference into the store survives a subsequent mutation.
func (store *NodeStore) Nodes() []Node {

	nodes := make([]Node, 0, len(store.nodes))

	for _, node := range store.nodes {

		copied := *node
		if node.Left != nil {
			left := *node.Left
			copied.Left = &left
		}
		if node.Right != nil {
			right := *node.Right
			copied.Right = &right
		}

		nodes = append(nodes, copied)
	}

	return nodes
}
