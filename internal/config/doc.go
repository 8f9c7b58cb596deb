// Package config loads runtime configuration for the journal tool.
//
// Sources & precedence
//
//  1. Built-in defaults (see Default).
//  2. Optional YAML file (see Load). A missing file is not an error.
//  3. Command-line flags, applied by the caller for flags the user set.
//
// # YAML schema
//
//	data_path: ~/.journal/journal.json
//	backend: json        # json | sqlite
//	flavor: events       # events | checkpoints
//	log_level: info      # debug | info | warn | error
//	addr: ":8080"
//
// A leading "~/" in data_path is expanded to the user's home directory.
package config
