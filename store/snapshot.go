package store

import (
	"time"

	"database/sql"

	"github.com/hayley-d/crdt/crdt"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// Structs

// Store persists replica snapshots to SQLite with WAL mode so a
// replica can be restored with its complete node chain and the
// operations still held back in its causal buffer.
type Store struct {
	db *sql.DB
}

// Functions

// New opens (or creates) the SQLite database and initializes the
// schema.
func New(path string) (*Store, error) {

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening snapshot database failed")
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrating snapshot schema failed")
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {

	schema := `
	CREATE TABLE IF NOT EXISTS replica (
		id    INTEGER PRIMARY KEY CHECK (id = 1),
		ssn   INTEGER NOT NULL,
		sid   INTEGER NOT NULL,
		seq   INTEGER NOT NULL,
		head  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nodes (
		s4        TEXT PRIMARY KEY,
		value     TEXT NOT NULL,
		tombstone INTEGER NOT NULL,
		left      TEXT NOT NULL,
		right     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pending (
		pos INTEGER PRIMARY KEY AUTOINCREMENT,
		op  TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)

	return err
}

// anchorText marshals an optional identifier reference into its
// column representation.
func anchorText(s4 *crdt.S4Vector) string {

	if s4 == nil {
		return "none"
	}

	return s4.String()
}

// parseAnchorText is the inverse of anchorText.
func parseAnchorText(raw string) (*crdt.S4Vector, error) {

	if raw == "none" {
		return nil, nil
	}

	s4, err := crdt.ParseS4Vector(raw)
	if err != nil {
		return nil, err
	}

	return &s4, nil
}

// Save replaces the persisted snapshot with the supplied one.
// The three tables are rewritten in one transaction so a crash
// never leaves a torn snapshot behind.
func (s *Store) Save(snap crdt.Snapshot) error {

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "starting snapshot transaction failed")
	}
	defer tx.Rollback()

	for _, table := range []string{"replica", "nodes", "pending"} {

		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return errors.Wrap(err, "clearing previous snapshot failed")
		}
	}

	_, err = tx.Exec(
		`INSERT INTO replica (id, ssn, sid, seq, head) VALUES (1, ?, ?, ?, ?)`,
		int64(snap.Ssn), int64(snap.Sid), int64(snap.LocalSeq), anchorText(snap.Head),
	)
	if err != nil {
		return errors.Wrap(err, "writing replica row failed")
	}

	for _, node := range snap.Nodes {

		tombstone := 0
		if node.Tombstone {
			tombstone = 1
		}

		_, err = tx.Exec(
			`INSERT INTO nodes (s4, value, tombstone, left, right) VALUES (?, ?, ?, ?, ?)`,
			node.S4.String(), node.Value, tombstone, anchorText(node.Left), anchorText(node.Right),
		)
		if err != nil {
			return errors.Wrap(err, "writing node row failed")
		}
	}

	for _, op := range snap.Pending {

		if _, err := tx.Exec(`INSERT INTO pending (op) VALUES (?)`, op.String()); err != nil {
			return errors.Wrap(err, "writing pending operation row failed")
		}
	}

	return errors.Wrap(tx.Commit(), "committing snapshot failed")
}

// Load reads the persisted snapshot back. The second return
// value reports whether a snapshot was present at all.
func (s *Store) Load() (*crdt.Snapshot, bool, error) {

	snap := new(crdt.Snapshot)

	var ssn, sid, seq int64
	var head string

	row := s.db.QueryRow(`SELECT ssn, sid, seq, head FROM replica WHERE id = 1`)
	if err := row.Scan(&ssn, &sid, &seq, &head); err != nil {

		if err == sql.ErrNoRows {
			return nil, false, nil
		}

		return nil, false, errors.Wrap(err, "reading replica row failed")
	}

	snap.Ssn = uint64(ssn)
	snap.Sid = uint64(sid)
	snap.LocalSeq = uint64(seq)

	headRef, err := parseAnchorText(head)
	if err != nil {
		return nil, false, errors.Wrap(err, "parsing head reference failed")
	}
	snap.Head = headRef

	rows, err := s.db.Query(`SELECT s4, value, tombstone, left, right FROM nodes`)
	if err != nil {
		return nil, false, errors.Wrap(err, "reading node rows failed")
	}
	defer rows.Close()

	for rows.Next() {

		var rawS4, value, left, right string
		var tombstone int

		if err := rows.Scan(&rawS4, &value, &tombstone, &left, &right); err != nil {
			return nil, false, errors.Wrap(err, "scanning node row failed")
		}

		s4, err := crdt.ParseS4Vector(rawS4)
		if err != nil {
			return nil, false, errors.Wrap(err, "parsing node identifier failed")
		}

		leftRef, err := parseAnchorText(left)
		if err != nil {
			return nil, false, errors.Wrap(err, "parsing left reference failed")
		}

		rightRef, err := parseAnchorText(right)
		if err != nil {
			return nil, false, errors.Wrap(err, "parsing right reference failed")
		}

		snap.Nodes = append(snap.Nodes, crdt.Node{
			Value:     value,
			S4:        s4,
			Tombstone: tombstone != 0,
			Left:      leftRef,
			Right:     rightRef,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, false, errors.Wrap(err, "iterating node rows failed")
	}

	opRows, err := s.db.Query(`SELECT op FROM pending ORDER BY pos`)
	if err != nil {
		return nil, false, errors.Wrap(err, "reading pending operation rows failed")
	}
	defer opRows.Close()

	for opRows.Next() {

		var raw string
		if err := opRows.Scan(&raw); err != nil {
			return nil, false, errors.Wrap(err, "scanning pending operation row failed")
		}

		op, err := crdt.ParseOperation(raw)
		if err != nil {
			return nil, false, errors.Wrap(err, "parsing pending operation failed")
		}

		snap.Pending = append(snap.Pending, op)
	}

	if err := opRows.Err(); err != nil {
		return nil, false, errors.Wrap(err, "iterating pending operation rows failed")
	}

	return snap, true, nil
}
