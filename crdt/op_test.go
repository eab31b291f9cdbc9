package crdt

import (
	"strings"
	"testing"
)

// Functions

// TestOperationString executes a white-box unit test on the wire
// representation of operation records.
func TestOperationString(t *testing.T) {

	idA := S4Vector{Ssn: 1, Sum: 1, Sid: 1, Seq: 1}
	idB := S4Vector{Ssn: 1, Sum: 2, Sid: 1, Seq: 2}

	op := Operation{
		Kind:  OpInsert,
		S4:    idB,
		Value: "pipes | and ; semicola are fine",
		Left:  &idA,
	}

	marshalled := op.String()

	// The value must not leak delimiters into the message.
	if strings.Count(marshalled, "|") != 4 {
		t.Fatalf("[crdt.TestOperationString] Expected exactly 4 delimiters but message was '%s'\n", marshalled)
	}

	parsed, err := ParseOperation(marshalled)
	if err != nil {
		t.Fatalf("[crdt.TestOperationString] Expected success while parsing '%s' but received: '%s'\n", marshalled, err.Error())
	}

	if (parsed.Kind != op.Kind) || (parsed.S4 != op.S4) || (parsed.Value != op.Value) {
		t.Fatalf("[crdt.TestOperationString] Expected '%v' but received '%v'\n", op, parsed)
	}

	if (parsed.Left == nil) || (*parsed.Left != idA) {
		t.Fatalf("[crdt.TestOperationString] Expected left anchor '%s' but received '%v'\n", idA, parsed.Left)
	}

	if parsed.Right != nil {
		t.Fatalf("[crdt.TestOperationString] Expected absent right anchor but received '%v'\n", parsed.Right)
	}
}

// TestParseOperation executes a white-box unit test on rejection
// of malformed update messages.
func TestParseOperation(t *testing.T) {

	// Too few parts.
	if _, err := ParseOperation("insert|1-1-1-1|QQ==|none"); err == nil {
		t.Fatalf("[crdt.TestParseOperation] Expected fail while parsing message with too few parts but received 'nil' error.\n")
	}

	// Unsupported operation.
	if _, err := ParseOperation("move|1-1-1-1|QQ==|none|none"); err == nil {
		t.Fatalf("[crdt.TestParseOperation] Expected fail while parsing unsupported operation but received 'nil' error.\n")
	}

	// Broken identifier.
	if _, err := ParseOperation("insert|1-1-1|QQ==|none|none"); err == nil {
		t.Fatalf("[crdt.TestParseOperation] Expected fail while parsing broken identifier but received 'nil' error.\n")
	}

	// Broken base64 value.
	if _, err := ParseOperation("insert|1-1-1-1|%%%|none|none"); err == nil {
		t.Fatalf("[crdt.TestParseOperation] Expected fail while parsing broken value but received 'nil' error.\n")
	}

	// Broken anchor.
	if _, err := ParseOperation("insert|1-1-1-1|QQ==|nope|none"); err == nil {
		t.Fatalf("[crdt.TestParseOperation] Expected fail while parsing broken anchor but received 'nil' error.\n")
	}

	// A delete record roundtrips without anchors.
	op := Operation{Kind: OpDelete, S4: S4Vector{Ssn: 1, Sum: 1, Sid: 1, Seq: 1}}
	parsed, err := ParseOperation(op.String())
	if err != nil {
		t.Fatalf("[crdt.TestParseOperation] Expected success while parsing delete record but received: '%s'\n", err.Error())
	}
	if (parsed.Kind != OpDelete) || (parsed.Left != nil) || (parsed.Right != nil) {
		t.Fatalf("[crdt.TestParseOperation] Expected bare delete record but received '%v'\n", parsed)
	}
}
