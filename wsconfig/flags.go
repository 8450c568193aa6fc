package wsconfig

import "github.com/urfave/cli/v3"

// Flags defines the CLI overrides for Config: -p|--port, -h|--host,
// -d|--document-root. Each flag's zero value (empty string, 0) means
// "not set on the command line", so ApplyOverrides can tell an
// override apart from a config value the user simply left at its ini
// default. The -h alias requires the caller to replace cli's default
// help flag shorthand (see cmd/wsserver).
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "listener port, overrides server.config's [server] port",
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"h"},
			Usage:   "listener host, overrides server.config's [server] host",
		},
		&cli.StringFlag{
			Name:    "document-root",
			Aliases: []string{"d"},
			Usage:   "service document root, overrides server.config's [server] document-root",
		},
	}
}

// FromCommand reads the override values Flags declared off a parsed
// cli.Command.
func FromCommand(cmd *cli.Command) (host string, port int, documentRoot string) {
	return cmd.String("host"), cmd.Int("port"), cmd.String("document-root")
}
