package config_test

import (
	"os"
	"testing"

	"path/filepath"

	"github.com/hayley-d/crdt/config"
)

// Functions

// writeConfig places a config file with supplied contents in a
// temporary directory and returns its path.
func writeConfig(t *testing.T, contents string) string {

	path := filepath.Join(t.TempDir(), "config.toml")

	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("[config.writeConfig] Could not write temporary config file: %s\n", err.Error())
	}

	return path
}

// TestLoadConfig executes a black-box test on the implemented
// functionalities to load a TOML config file.
func TestLoadConfig(t *testing.T) {

	// Try to load a missing config file. This should fail.
	if _, err := config.LoadConfig("does-not-exist.toml"); err == nil {
		t.Fatal("[config.TestLoadConfig] Expected fail while loading missing config file but received 'nil' error.")
	}

	// Now load a valid config.
	path := writeConfig(t, `
[Session]
SSN = 1

[Replica]
Name = "replica-1"
SID = 1
ListenSyncAddr = "127.0.0.1:4001"
PrometheusAddr = "127.0.0.1:9100"
SnapshotLoc = "/tmp/replica-1.db"

[Replica.Peers]
replica-2 = "127.0.0.1:4002"
`)

	conf, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("[config.TestLoadConfig] Expected success while loading config but received: '%s'\n", err.Error())
	}

	// Check for test success.
	if conf.Session.SSN != 1 {
		t.Fatalf("[config.TestLoadConfig] Expected SSN '%d' but received '%d'\n", 1, conf.Session.SSN)
	}

	if conf.Replica.Name != "replica-1" {
		t.Fatalf("[config.TestLoadConfig] Expected '%s' but received '%s'\n", "replica-1", conf.Replica.Name)
	}

	if conf.Replica.Peers["replica-2"] != "127.0.0.1:4002" {
		t.Fatalf("[config.TestLoadConfig] Expected '%s' but received '%s'\n", "127.0.0.1:4002", conf.Replica.Peers["replica-2"])
	}
}

// TestLoadConfigValidation executes a black-box test on the
// validation of required config values.
func TestLoadConfigValidation(t *testing.T) {

	// A missing SSN is rejected.
	path := writeConfig(t, `
[Replica]
Name = "replica-1"
SID = 1
`)
	if _, err := config.LoadConfig(path); err == nil {
		t.Fatal("[config.TestLoadConfigValidation] Expected fail for missing SSN but received 'nil' error.")
	}

	// A missing replica name is rejected.
	path = writeConfig(t, `
[Session]
SSN = 1

[Replica]
SID = 1
`)
	if _, err := config.LoadConfig(path); err == nil {
		t.Fatal("[config.TestLoadConfigValidation] Expected fail for missing replica name but received 'nil' error.")
	}
}
