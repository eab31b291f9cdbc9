package crdt

import (
	"testing"

	"github.com/pkg/errors"
)

// Functions

// TestNodeStoreInsertNode executes a white-box unit test on
// implemented InsertNode() function.
func TestNodeStoreInsertNode(t *testing.T) {

	store := InitNodeStore()

	s4 := S4Vector{Ssn: 1, Sum: 1, Sid: 1, Seq: 1}

	if err := store.InsertNode(&Node{Value: "A", S4: s4}); err != nil {
		t.Fatalf("[crdt.TestNodeStoreInsertNode] Expected success while inserting fresh node but received: '%s'\n", err.Error())
	}

	if store.Len() != 1 {
		t.Fatalf("[crdt.TestNodeStoreInsertNode] Expected store to contain 1 node but len() returned %d\n", store.Len())
	}

	// Identifiers are never reused.
	err := store.InsertNode(&Node{Value: "B", S4: s4})
	if errors.Cause(err) != ErrDuplicateIdentifier {
		t.Fatalf("[crdt.TestNodeStoreInsertNode] Expected ErrDuplicateIdentifier while re-inserting identifier but received: '%v'\n", err)
	}
}

// TestNodeStoreGet executes a white-box unit test on implemented
// Get() and Contains() functions.
func TestNodeStoreGet(t *testing.T) {

	store := InitNodeStore()

	s4 := S4Vector{Ssn: 1, Sum: 1, Sid: 1, Seq: 1}

	if store.Contains(s4) {
		t.Fatalf("[crdt.TestNodeStoreGet] Expected empty store not to contain identifier.\n")
	}

	if _, err := store.Get(s4); errors.Cause(err) != ErrUnknownReference {
		t.Fatalf("[crdt.TestNodeStoreGet] Expected ErrUnknownReference for absent identifier but received: '%v'\n", err)
	}

	if err := store.InsertNode(&Node{Value: "A", S4: s4}); err != nil {
		t.Fatalf("[crdt.TestNodeStoreGet] Expected success while inserting node but received: '%s'\n", err.Error())
	}

	node, err := store.Get(s4)
	if err != nil {
		t.Fatalf("[crdt.TestNodeStoreGet] Expected success while looking up node but received: '%s'\n", err.Error())
	}

	if node.Value != "A" {
		t.Fatalf("[crdt.TestNodeStoreGet] Expected value 'A' but received '%s'\n", node.Value)
	}
}

// TestNodeStoreMarkTombstone executes a white-box unit test on
// implemented MarkTombstone() and SetValue() functions.
func TestNodeStoreMarkTombstone(t *testing.T) {

	store := InitNodeStore()

	s4 := S4Vector{Ssn: 1, Sum: 1, Sid: 1, Seq: 1}

	if err := store.MarkTombstone(s4); errors.Cause(err) != ErrUnknownReference {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected ErrUnknownReference for absent identifier but received: '%v'\n", err)
	}

	if err := store.InsertNode(&Node{Value: "A", S4: s4}); err != nil {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected success while inserting node but received: '%s'\n", err.Error())
	}

	if err := store.SetValue(s4, "A2"); err != nil {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected success while updating live node but received: '%s'\n", err.Error())
	}

	if err := store.MarkTombstone(s4); err != nil {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected success while tombstoning node but received: '%s'\n", err.Error())
	}

	// Tombstoning is idempotent.
	if err := store.MarkTombstone(s4); err != nil {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected idempotent tombstoning but received: '%s'\n", err.Error())
	}

	// Tombstoned nodes do not accept updates anymore.
	if err := store.SetValue(s4, "A3"); errors.Cause(err) != ErrTombstonedTarget {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected ErrTombstonedTarget for update of tombstoned node but received: '%v'\n", err)
	}

	node, err := store.Get(s4)
	if err != nil {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected success while looking up node but received: '%s'\n", err.Error())
	}

	if node.Value != "A2" {
		t.Fatalf("[crdt.TestNodeStoreMarkTombstone] Expected value 'A2' to survive rejected update but received '%s'\n", node.Value)
	}
}

// TestNodeStoreNodes executes a white-box unit test verifying
// that Nodes() hands out owned copies.
func TestNodeStoreNodes(t *testing.T) {

	store := InitNodeStore()

	s4 := S4Vector{Ssn: 1, Sum: 1, Sid: 1, Seq: 1}
	left := S4Vector{Ssn: 1, Sum: 1, Sid: 1, Seq: 2}

	if err := store.InsertNode(&Node{Value: "A", S4: s4, Left: &left}); err != nil {
		t.Fatalf("[crdt.TestNodeStoreNodes] Expected success while inserting node but received: '%s'\n", err.Error())
	}

	nodes := store.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("[crdt.TestNodeStoreNodes] Expected 1 copied node but received %d\n", len(nodes))
	}

	// Mutating the copy must not reach the store.
	nodes[0].Value = "changed"
	nodes[0].Left.Seq = 99

	node, err := store.Get(s4)
	if err != nil {
		t.Fatalf("[crdt.TestNodeStoreNodes] Expected success while looking up node but received: '%s'\n", err.Error())
	}

	if (node.Value != "A") || (node.Left.Seq != 2) {
		t.Fatalf("[crdt.TestNodeStoreNodes] Expected copies handed out by Nodes() to be detached from the store.\n")
	}
}
