// Package cmd provides CLI commands for the scrutin binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/scrutin-io/scrutin/cli/config"
)

// ConfigFlag selects the YAML configuration file. Shared by every command
// that talks to the backend.
var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to scrutin.yaml",
	Value:   "scrutin.yaml",
}

// loadConfig reads and validates the config file named by --config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
