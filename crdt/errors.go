package crdt

import (
	"github.com/pkg/errors"
)

// Error kinds surfaced by the sequence engine. Callers that need
// to distinguish them match with errors.Cause after any wrapping
// that added context on the way up.
var (
	// ErrUnknownReference indicates a local operation that
	// names an identifier not present in the node store.
	ErrUnknownReference = errors.New("referenced identifier is not present in node store")

	// ErrDuplicateIdentifier indicates an insert of an
	// identifier that is already present in the node store.
	ErrDuplicateIdentifier = errors.New("identifier is already present in node store")

	// ErrTombstonedTarget indicates a local update whose
	// target node has already been tombstoned.
	ErrTombstonedTarget = errors.New("target node is tombstoned")
)
