package comm_test

import (
	"net"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/hayley-d/crdt/comm"
	"github.com/hayley-d/crdt/crdt"
	"github.com/hayley-d/crdt/replica"
	"github.com/stretchr/testify/require"
)

// Functions

// awaitRead polls a replica until it reads the expected sequence
// or the deadline passes.
func awaitRead(t *testing.T, svc replica.Service, expected []string) {

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {

		read := svc.Read()
		if len(read) == len(expected) {

			match := true
			for i := range expected {
				if read[i] != expected[i] {
					match = false
					break
				}
			}

			if match {
				return
			}
		}

		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, expected, svc.Read(), "replica should have converged before the deadline")
}

// TestSenderReceiver executes an integration test of two
// replicas synchronizing over the loopback interface.
func TestSenderReceiver(t *testing.T) {

	// Bind both sockets first so each sender knows its peer.
	socket1, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err, "listening on loopback interface should not fail")
	t.Cleanup(func() { socket1.Close() })

	socket2, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err, "listening on loopback interface should not fail")
	t.Cleanup(func() { socket2.Close() })

	logger := log.NewNopLogger()

	send1 := comm.InitSender(logger, "replica-1", map[string]string{"replica-2": socket2.Addr().String()})
	svc1 := replica.NewService(crdt.InitRGA(1, 1), func(op crdt.Operation) { send1 <- op })
	comm.InitReceiver(logger, "replica-1", socket1, svc1.ApplyRemote)

	send2 := comm.InitSender(logger, "replica-2", map[string]string{"replica-1": socket1.Addr().String()})
	svc2 := replica.NewService(crdt.InitRGA(1, 2), func(op crdt.Operation) { send2 <- op })
	comm.InitReceiver(logger, "replica-2", socket2, svc2.ApplyRemote)

	// Replica 1 builds a small sequence.
	opA, err := svc1.Insert("A", nil, nil)
	require.Nil(t, err, "insert of 'A' should not fail")

	_, err = svc1.Insert("B", &opA.S4, nil)
	require.Nil(t, err, "insert of 'B' should not fail")

	awaitRead(t, svc2, []string{"A", "B"})

	// Replica 2 deletes the first element; the record flows back.
	_, err = svc2.Delete(opA.S4)
	require.Nil(t, err, "delete of 'A' should not fail")

	awaitRead(t, svc1, []string{"B"})
	awaitRead(t, svc2, []string{"B"})
}
