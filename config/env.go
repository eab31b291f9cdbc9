package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Structs

// Env holds information specific to the system where this
// replica is deployed. This enables host adaptions without
// needing to maintain two different config files.
type Env struct {
	SnapshotLoc string
}

// Functions

// LoadEnv looks for an .env file in the directory of the replica
// and reads in all defined values. Values from the environment
// itself take part as well, so containerized deployments work
// without any file.
func LoadEnv() (*Env, error) {

	// Load environment file.
	if err := godotenv.Load(".env"); err != nil {

		// A missing .env file is fine as long as the
		// environment itself carries the overrides.
		if os.Getenv("SNAPSHOT_LOC") == "" {
			return nil, errors.Wrap(err, "failed to read in .env file")
		}
	}

	env := new(Env)

	// Fill variables from environment into struct.
	env.SnapshotLoc = os.Getenv("SNAPSHOT_LOC")

	return env, nil
}
