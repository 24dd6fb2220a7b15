// Command wsecho dials a WebSocket endpoint, sends one text message per
// line of stdin, and prints every message it receives until the
// connection closes.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/deanveloper/weebsocket/frame"
	"github.com/deanveloper/weebsocket/internal/logging"
	"github.com/deanveloper/weebsocket/wsconn"
	"github.com/deanveloper/weebsocket/wsio"
)

func main() {
	bi, _ := debug.ReadBuildInfo()

	cmd := &cli.Command{
		Name:    "wsecho",
		Usage:   "interactively exchange text messages with a WebSocket server",
		Version: bi.Main.Version,
		Flags:   flags(),
		Action:  run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	configPath := altsrc.StringSourcer(os.Getenv("WSECHO_CONFIG"))

	return []cli.Flag{
		&cli.StringFlag{
			Name:     "addr",
			Usage:    "host:port of the WebSocket server",
			Required: true,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSECHO_ADDR"),
				toml.TOML("wsecho.addr", configPath),
			),
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "request path for the opening handshake",
			Value: "/",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSECHO_PATH"),
				toml.TOML("wsecho.path", configPath),
			),
		},
		&cli.BoolFlag{
			Name:  "pretty-log",
			Usage: "human-readable console logging, instead of JSON",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSECHO_PRETTY_LOG"),
				toml.TOML("wsecho.pretty_log", configPath),
			),
		},
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log := logging.New(cmd.Bool("pretty-log"))

	conn, err := wsconn.Dial(cmd.String("addr"), cmd.String("path"), log)
	if err != nil {
		return fmt.Errorf("wsecho: %w", err)
	}
	defer conn.Close(frame.CloseNormal, "client exiting")

	errs := make(chan error, 2)
	go readLoop(conn, errs)
	go writeLoop(conn, errs)

	select {
	case err := <-errs:
		if errors.Is(err, wsio.ErrReceivedClose) {
			return nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readLoop prints every message received until the connection ends.
func readLoop(conn *wsconn.Conn, errs chan<- error) {
	for {
		opcode, data, err := conn.ReadMessage()
		if err != nil {
			errs <- err
			return
		}
		fmt.Printf("[%s] %s\n", opcode, data)
	}
}

// writeLoop sends one text message per line of stdin.
func writeLoop(conn *wsconn.Conn, errs chan<- error) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := conn.SendText(scanner.Text()); err != nil {
			errs <- err
			return
		}
	}
	errs <- scanner.Err()
}
