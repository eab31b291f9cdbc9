package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/hayley-d/crdt/comm"
	"github.com/hayley-d/crdt/config"
	"github.com/hayley-d/crdt/crdt"
	"github.com/hayley-d/crdt/replica"
	"github.com/hayley-d/crdt/store"
	"github.com/sanity-io/litter"
)

// Functions

// initLogger initializes a JSON gokit-logger set
// to the according log level supplied via cli flag.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

// parseAnchorArg turns an optional identifier argument of the
// shell into a reference the replica service accepts.
func parseAnchorArg(arg string) (*crdt.S4Vector, error) {

	if (arg == "") || (arg == "none") {
		return nil, nil
	}

	s4, err := crdt.ParseS4Vector(arg)
	if err != nil {
		return nil, err
	}

	return &s4, nil
}

// runShell reads commands from stdin and drives the replica
// service until EOF or quit. It returns so that main can save a
// final snapshot.
func runShell(svc replica.Service, st *store.Store) {

	fmt.Println("commands: insert <value> [left] [right] | delete <id> | update <id> <value> | read | dump | save | quit")

	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {

		case "insert":

			if len(parts) < 2 {
				fmt.Println("usage: insert <value> [left] [right]")
				continue
			}

			var left, right *crdt.S4Vector
			var err error

			if len(parts) > 2 {
				if left, err = parseAnchorArg(parts[2]); err != nil {
					fmt.Printf("invalid left anchor: %v\n", err)
					continue
				}
			}
			if len(parts) > 3 {
				if right, err = parseAnchorArg(parts[3]); err != nil {
					fmt.Printf("invalid right anchor: %v\n", err)
					continue
				}
			}

			op, err := svc.Insert(parts[1], left, right)
			if err != nil {
				fmt.Printf("insert failed: %v\n", err)
				continue
			}

			fmt.Printf("inserted %s\n", op.S4)

		case "delete":

			if len(parts) != 2 {
				fmt.Println("usage: delete <id>")
				continue
			}

			s4, err := crdt.ParseS4Vector(parts[1])
			if err != nil {
				fmt.Printf("invalid identifier: %v\n", err)
				continue
			}

			if _, err := svc.Delete(s4); err != nil {
				fmt.Printf("delete failed: %v\n", err)
				continue
			}

			fmt.Printf("deleted %s\n", s4)

		case "update":

			if len(parts) != 3 {
				fmt.Println("usage: update <id> <value>")
				continue
			}

			s4, err := crdt.ParseS4Vector(parts[1])
			if err != nil {
				fmt.Printf("invalid identifier: %v\n", err)
				continue
			}

			if _, err := svc.Update(s4, parts[2]); err != nil {
				fmt.Printf("update failed: %v\n", err)
				continue
			}

			fmt.Printf("updated %s\n", s4)

		case "read":
			fmt.Printf("%v\n", svc.Read())

		case "dump":
			fmt.Println(litter.Sdump(svc.Snapshot()))

		case "save":

			if err := st.Save(svc.Snapshot()); err != nil {
				fmt.Printf("save failed: %v\n", err)
				continue
			}

			fmt.Println("snapshot saved")

		case "quit":
			return

		default:
			fmt.Printf("unknown command '%s'\n", parts[0])
		}
	}
}

func main() {

	// Set CPUs usable by this replica to all available.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Parse command-line flag that defines a config path.
	configFlag := flag.String("config", "config.toml", "Provide path to configuration file in TOML syntax.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	flag.Parse()

	logger := initLogger(*loglevelFlag)

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the config",
			"err", err,
		)
		os.Exit(1)
	}

	// Host-specific overrides from the environment.
	snapshotLoc := conf.Replica.SnapshotLoc
	env, err := config.LoadEnv()
	if err != nil {
		level.Debug(logger).Log(
			"msg", "no environment overrides found",
			"err", err,
		)
	} else if env.SnapshotLoc != "" {
		snapshotLoc = env.SnapshotLoc
	}

	rgaMetrics := NewRGAMetrics(conf.Replica.PrometheusAddr)

	// Open the snapshot store and restore previous state if
	// one was saved.
	st, err := store.New(snapshotLoc)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to open the snapshot store",
			"err", err,
		)
		os.Exit(2)
	}
	defer st.Close()

	snap, found, err := st.Load()
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the snapshot",
			"err", err,
		)
		os.Exit(3)
	}

	var rga *crdt.RGA
	if found {

		rga, err = crdt.InitRGAFromSnapshot(*snap)
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to restore replica from snapshot",
				"err", err,
			)
			os.Exit(4)
		}

		level.Info(logger).Log(
			"msg", "restored replica from snapshot",
			"nodes", len(snap.Nodes),
			"pending", len(snap.Pending),
		)
	} else {
		rga = crdt.InitRGA(conf.Session.SSN, conf.Replica.SID)
	}

	// Start the broadcast layer and stack the replica service.
	sendChan := comm.InitSender(log.With(logger, "comm", "sender"), conf.Replica.Name, conf.Replica.Peers)

	svc := replica.NewService(rga, func(op crdt.Operation) {
		sendChan <- op
	})
	svc = replica.NewLoggingService(svc, log.With(logger, "service", "replica"))
	svc = replica.NewMetricsService(svc,
		rgaMetrics.Replica.Inserts,
		rgaMetrics.Replica.Deletes,
		rgaMetrics.Replica.Updates,
		rgaMetrics.Replica.Applied,
		rgaMetrics.Replica.Buffered,
	)

	// Listen for sync messages of peer replicas.
	socket, err := net.Listen("tcp", conf.Replica.ListenSyncAddr)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to listen for sync messages",
			"addr", conf.Replica.ListenSyncAddr,
			"err", err,
		)
		os.Exit(5)
	}
	defer socket.Close()

	comm.InitReceiver(log.With(logger, "comm", "receiver"), conf.Replica.Name, socket, svc.ApplyRemote)

	go runPromHTTP(logger, conf.Replica.PrometheusAddr)

	level.Info(logger).Log(
		"msg", "replica running",
		"name", conf.Replica.Name,
		"ssn", conf.Session.SSN,
		"sid", conf.Replica.SID,
		"sync_addr", conf.Replica.ListenSyncAddr,
	)

	// Drive the replica from stdin until quit or EOF.
	runShell(svc, st)

	// Save a final snapshot before exiting.
	if err := st.Save(svc.Snapshot()); err != nil {
		level.Error(logger).Log(
			"msg", "failed to save final snapshot",
			"err", err,
		)
		os.Exit(6)
	}

	level.Info(logger).Log("msg", "final snapshot saved, shutting down")
}
