package comm

import (
	"fmt"
	"net"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/hayley-d/crdt/crdt"
	"github.com/pkg/errors"
)

// Structs

// Sender bundles all information needed for sending out locally
// generated operation records to all downstream replicas.
type Sender struct {
	logger   log.Logger
	name     string
	inc      chan crdt.Operation
	nodes    map[string]string
	attempts int
}

// Functions

// InitSender initializes above struct and sets default values.
// It returns a channel local processes can put operation records
// into, so that those records will be communicated to all
// connected replicas.
func InitSender(logger log.Logger, name string, nodes map[string]string) chan<- crdt.Operation {

	sender := &Sender{
		logger:   logger,
		name:     name,
		inc:      make(chan crdt.Operation, 16),
		nodes:    nodes,
		attempts: 3,
	}

	// Start brokering routine in background.
	go sender.BrokerMsgs()

	// Return this channel to pass to processes.
	return sender.inc
}

// BrokerMsgs awaits an operation record to send to downstream
// replicas from one of the local processes on channel inc,
// wraps it into a tagged sync message and delivers it to every
// configured peer.
func (sender *Sender) BrokerMsgs() {

	for {

		op, ok := <-sender.inc
		if !ok {
			return
		}

		// Wrap the marshalled record into a sync message
		// carrying this replica's name and a delivery tag.
		msg := NewMessage(sender.name, op.String())

		for node, addr := range sender.nodes {

			if err := sender.sendToNode(addr, msg); err != nil {
				level.Error(sender.logger).Log(
					"msg", "failed to send sync message to downstream replica",
					"node", node,
					"err", err,
				)
			}
		}
	}
}

// sendToNode delivers one marshalled sync message to a single
// downstream replica, retrying a bounded number of times so that
// short connection failures do not lose the record.
func (sender *Sender) sendToNode(addr string, msg *Message) error {

	var lastErr error

	for attempt := 0; attempt < sender.attempts; attempt++ {

		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}

		conn, err := net.Dial("tcp", addr)
		if err != nil {
			lastErr = errors.Wrap(err, "dialing downstream replica failed")
			continue
		}

		_, err = fmt.Fprintf(conn, "%s\n", msg.String())
		conn.Close()
		if err != nil {
			lastErr = errors.Wrap(err, "writing sync message failed")
			continue
		}

		return nil
	}

	return lastErr
}
