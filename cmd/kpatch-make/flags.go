package main

import "github.com/urfave/cli/v3"

// makeFlags holds flag destinations for one command instance.
type makeFlags struct {
	buildID    string
	output     string
	debug      bool
	version    string
	s          string
	configPath string
	logLevel   string
	logFormat  string
}

func (f *makeFlags) list() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "buildid",
			Aliases:     []string{"b"},
			Usage:       "target buildid for patch (required)",
			Sources:     cli.EnvVars("KPATCH_BUILDID"),
			Destination: &f.buildID,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output path (default: stdout)",
			Destination: &f.output,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Aliases:     []string{"d"},
			Usage:       "debug (verbose): log debug messages to stderr; the container is unchanged",
			Destination: &f.debug,
		},
		&cli.StringFlag{
			Name:        "v",
			Usage:       "patch version (accepted, unused)",
			Destination: &f.version,
		},
		&cli.StringFlag{
			Name:        "s",
			Usage:       "accepted, unused",
			Destination: &f.s,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       defaultConfigPath(),
			Sources:     cli.EnvVars("KPATCH_CONFIG"),
			Destination: &f.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &f.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &f.logFormat,
		},
	}
}
