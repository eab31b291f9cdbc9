package crdt

import (
	"fmt"
	"strings"

	"encoding/base64"
)

// Structs

// Kind enumerates the closed set of mutations a replica
// broadcasts to its peers.
type Kind string

const (
	OpInsert Kind = "insert"
	OpDelete Kind = "delete"
	OpUpdate Kind = "update"
)

// Operation represents the broadcast update message to all
// replicas of a replicated sequence. For an insert, Left and
// Right carry the neighbor identifiers intended at the
// originating replica at generation time. For delete and update
// only the target identifier (and the new value) is meaningful.
type Operation struct {
	Kind  Kind
	S4    S4Vector
	Value string
	Left  *S4Vector
	Right *S4Vector
}

// Functions

// dependencies returns the identifiers that have to be present
// in the node store before op may be applied.
func (op Operation) dependencies() []S4Vector {

	if op.Kind == OpInsert {

		deps := make([]S4Vector, 0, 2)
		if op.Left != nil {
			deps = append(deps, *op.Left)
		}
		if op.Right != nil {
			deps = append(deps, *op.Right)
		}

		return deps
	}

	// Deletes and updates depend on their target's insert.
	return []S4Vector{op.S4}
}

// anchorString marshals an optional anchor identifier, using a
// fixed marker for the absent case.
func anchorString(anchor *S4Vector) string {

	if anchor == nil {
		return "none"
	}

	return anchor.String()
}

// parseAnchor is the inverse of anchorString.
func parseAnchor(raw string) (*S4Vector, error) {

	if raw == "none" {
		return nil, nil
	}

	s4, err := ParseS4Vector(raw)
	if err != nil {
		return nil, err
	}

	return &s4, nil
}

// String takes in a struct of type Operation and turns it into
// its marshalled version, ready to be sent via broadcast. The
// value part is base64-encoded so it may contain the delimiter.
func (op *Operation) String() string {

	value := base64.StdEncoding.EncodeToString([]byte(op.Value))

	return fmt.Sprintf("%s|%s|%s|%s|%s", op.Kind, op.S4.String(), value, anchorString(op.Left), anchorString(op.Right))
}

// ParseOperation takes in a marshalled (string) version of an
// Operation taken from network communication and turns it back
// into the defined struct representation.
func ParseOperation(raw string) (Operation, error) {

	// Split message at pipe delimiters.
	parts := strings.Split(raw, "|")

	// Every operation message consists of exactly five parts:
	// kind|id|value|left|right.
	if len(parts) != 5 {
		return Operation{}, fmt.Errorf("invalid update message found during parsing")
	}

	// We only accept the three defined update operations.
	kind := Kind(parts[0])
	if (kind != OpInsert) && (kind != OpDelete) && (kind != OpUpdate) {
		return Operation{}, fmt.Errorf("unsupported update operation specified in message")
	}

	s4, err := ParseS4Vector(parts[1])
	if err != nil {
		return Operation{}, err
	}

	// Decode value part of message encoded in base64.
	value, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return Operation{}, fmt.Errorf("decoding base64 value of update message failed: %v", err)
	}

	left, err := parseAnchor(parts[3])
	if err != nil {
		return Operation{}, err
	}

	right, err := parseAnchor(parts[4])
	if err != nil {
		return Operation{}, err
	}

	return Operation{
		Kind:  kind,
		S4:    s4,
		Value: string(value),
		Left:  left,
		Right: right,
	}, nil
}
