package comm

import (
	"bufio"
	"io"
	"net"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/hayley-d/crdt/crdt"
)

// Structs

// ApplyFunc hands a received operation record to the replica for
// application, usually the replica service's ApplyRemote.
type ApplyFunc func(op crdt.Operation) (crdt.Outcome, error)

// Receiver bundles all information needed to accept and process
// incoming sync messages from peer replicas.
type Receiver struct {
	lock     *sync.Mutex
	logger   log.Logger
	name     string
	socket   net.Listener
	apply    ApplyFunc
	seenTags map[string]struct{}
}

// Functions

// InitReceiver initializes above struct and starts accepting
// incoming sync messages in background.
func InitReceiver(logger log.Logger, name string, socket net.Listener, apply ApplyFunc) *Receiver {

	recv := &Receiver{
		lock:     new(sync.Mutex),
		logger:   logger,
		name:     name,
		socket:   socket,
		apply:    apply,
		seenTags: make(map[string]struct{}),
	}

	// Accept incoming messages in background.
	go recv.AcceptIncMsgs()

	return recv
}

// AcceptIncMsgs runs in background and waits for incoming sync
// connections. As soon as one is accepted, it dispatches into
// the next routine.
func (recv *Receiver) AcceptIncMsgs() {

	for {

		conn, err := recv.socket.Accept()
		if err != nil {
			level.Debug(recv.logger).Log(
				"msg", "stopped accepting sync messages",
				"err", err,
			)
			return
		}

		go recv.HandleConn(conn)
	}
}

// HandleConn reads sync messages line by line off an accepted
// connection and processes each one.
func (recv *Receiver) HandleConn(conn net.Conn) {

	defer conn.Close()

	r := bufio.NewReader(conn)

	for {

		// Read string until newline character is received.
		raw, err := r.ReadString('\n')
		if err != nil {

			if err != io.EOF {
				level.Debug(recv.logger).Log(
					"msg", "error while reading sync message",
					"err", err,
				)
			}

			return
		}

		msg, err := Parse(raw)
		if err != nil {
			level.Error(recv.logger).Log(
				"msg", "error while parsing sync message",
				"err", err,
			)
			continue
		}

		recv.ProcessMsg(msg)
	}
}

// ProcessMsg deduplicates one received sync message and hands
// its operation record to the replica. A replica's own records
// and re-deliveries of an already seen tag are discarded.
func (recv *Receiver) ProcessMsg(msg *Message) {

	if msg.Sender == recv.name {
		return
	}

	recv.lock.Lock()

	if _, seen := recv.seenTags[msg.Tag]; seen {
		recv.lock.Unlock()
		return
	}
	recv.seenTags[msg.Tag] = struct{}{}

	recv.lock.Unlock()

	op, err := crdt.ParseOperation(msg.Payload)
	if err != nil {
		level.Error(recv.logger).Log(
			"msg", "error while parsing operation record in sync message",
			"sender", msg.Sender,
			"err", err,
		)
		return
	}

	outcome, err := recv.apply(op)
	if err != nil {
		level.Error(recv.logger).Log(
			"msg", "failed to apply received operation record",
			"sender", msg.Sender,
			"id", op.S4.String(),
			"err", err,
		)
		return
	}

	level.Debug(recv.logger).Log(
		"msg", "processed sync message",
		"sender", msg.Sender,
		"kind", string(op.Kind),
		"id", op.S4.String(),
		"outcome", outcome.String(),
	)
}
