package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Structs

// Config holds all information parsed from supplied config file.
type Config struct {
	Session Session
	Replica Replica
}

// Session is the collaboration session related part of the TOML
// config file. Every replica of one session agrees on the SSN.
type Session struct {
	SSN uint64
}

// Replica describes the configuration of this replica: its
// identity within the session, the addresses it serves on and
// the peers it synchronizes with.
type Replica struct {
	Name           string
	SID            uint64
	ListenSyncAddr string
	PrometheusAddr string
	SnapshotLoc    string
	Peers          map[string]string
}

// Functions

// LoadConfig takes in the path to the TOML config file of this
// system and fills above structs.
func LoadConfig(path string) (*Config, error) {

	conf := new(Config)

	// Parse values from TOML file into struct.
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, errors.Wrap(err, "failed to read in TOML config file")
	}

	if conf.Session.SSN == 0 {
		return nil, errors.New("session SSN has to be a positive number")
	}

	if conf.Replica.SID == 0 {
		return nil, errors.New("replica SID has to be a positive number")
	}

	if conf.Replica.Name == "" {
		return nil, errors.New("replica name must not be empty")
	}

	return conf, nil
}
