package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/victornm/standings/internal/config"
	"github.com/victornm/standings/internal/errors"
	"github.com/victornm/standings/internal/score"
	"github.com/victornm/standings/internal/server"
	"github.com/victornm/standings/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Load .env failed: %v", err)
	}

	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "contest rankings service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve rankings over HTTP and gRPC",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Usage:   "path to the config file",
						Sources: cli.EnvVars("CONFIG_PATH"),
					},
				},
				Action: serve,
			},
			{
				Name:      "decode",
				Usage:     "print stored scores in a readable form",
				ArgsUsage: "<score>...",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return decode(out, cmd.Args().Slice())
				},
			},
		},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	c := server.DefaultConfig()
	if err := config.Load(cmd.String("config"), &c); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := telemetry.SetupLogger(os.Stderr, c.Log); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	s, err := server.Init(c)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		s.Shutdown()
		return nil
	case err := <-errc:
		s.Shutdown()
		return err
	}
}

func decode(out io.Writer, reprs []string) error {
	if len(reprs) == 0 {
		return cli.Exit("decode: at least one score is required", 2)
	}

	var failed bool
	for _, repr := range reprs {
		v, err := score.Decode(repr)
		if stderrors.Is(err, errors.ErrDecode) {
			fmt.Fprintf(out, "%s\terror: %s\n", repr, errors.Convert(err).Message)
			failed = true
			continue
		}
		if err != nil {
			return err
		}
		if v == nil {
			fmt.Fprintf(out, "%s\t(none)\n", repr)
			continue
		}

		line := fmt.Sprintf("%s\t%s\t%s", repr, v.Kind(), v.String())
		if acm, ok := v.(score.ACM); ok {
			line += "\t" + acm.TotalTimeString()
		}
		fmt.Fprintln(out, line)
	}

	if failed {
		return cli.Exit("", 1)
	}
	return nil
}
