// Command wsserver is the runnable entrypoint: it loads configuration,
// registers the static service-loader registry, and runs the
// listener/Manager lifecycle until an OS signal or context
// cancellation requests shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/coregx/wsbus/directory"
	"github.com/coregx/wsbus/handshake"
	"github.com/coregx/wsbus/manager"
	"github.com/coregx/wsbus/services/chatroom"
	"github.com/coregx/wsbus/txn"
	"github.com/coregx/wsbus/wsconfig"
	"github.com/coregx/wsbus/wsserver"
)

func main() {
	// -h belongs to --host here, so the default help shorthand has to
	// give it up.
	cli.HelpFlag = &cli.BoolFlag{
		Name:  "help",
		Usage: "show help",
	}

	cmd := &cli.Command{
		Name:  "wsserver",
		Usage: "multi-service WebSocket switchboard",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: wsconfig.DefaultPath,
				Usage: "path to the server.config ini file",
			},
		}, wsconfig.Flags()...),
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := wsconfig.Load(cmd.String("config"))
	if err != nil {
		if errors.Is(err, wsconfig.ErrConfigNotFound) {
			return cli.Exit("ERROR: server.config not found", 1)
		}
		return err
	}

	host, port, docRoot := wsconfig.FromCommand(cmd)
	cfg = cfg.ApplyOverrides(host, port, docRoot)

	// cfg.DocumentRoot is parsed and override-able for config-file
	// compatibility, but the static loader registry below has no
	// filesystem component to point it at; nothing reads it yet.

	dir := directory.New(loaders(log), log)
	mgr := manager.New(dir, log)
	srv := wsserver.New(cfg.Host, cfg.Port, dir, mgr, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}

// loaders builds the static service-loader registry, keyed by the
// first path segment and resolved once at startup. The first segment
// carries the service extension when it is also the terminal one (a
// bare "/chatroom" request arrives as ["chatroom.ws"]), so the key is
// matched with the extension stripped.
//
// Only the "chatroom" top-level segment is registered; any other path
// that reaches this loader has no known service and Lookup reports
// ErrNotFound, which the handshake turns into a 404.
func loaders(log zerolog.Logger) directory.Loader {
	byFirstSegment := map[string]directory.Loader{
		"chatroom": chatroom.Loader(log),
	}

	return func(path []string) (directory.Worker, *txn.Queue, *txn.Queue, error) {
		if len(path) == 0 {
			return nil, nil, nil, directory.ErrEmptyPath
		}
		load, ok := byFirstSegment[strings.TrimSuffix(path[0], handshake.ServiceExtension)]
		if !ok {
			return nil, nil, nil, directory.ErrNotFound
		}
		return load(path)
	}
}
