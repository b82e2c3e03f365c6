// Command storectl manages the storefront catalog from a terminal through the record store gRPC API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/records"
	pb "github.com/abgdnv/storefront/pkg/api/recordstore/v1"
	"github.com/abgdnv/storefront/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(dialRecordStore, os.Stdin, os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		os.Exit(code)
	}
}

// clientFactory opens the record store client for one command.
type clientFactory func(c *cli.Context) (records.Client, func() error, error)

func dialRecordStore(c *cli.Context) (records.Client, func() error, error) {
	conn, err := records.Dial(
		config.GrpcClientConfig{Addr: c.String("addr"), Timeout: c.Duration("timeout")},
		config.ResilienceConfig{
			Retry: config.RetryConfig{MaxAttempts: 3, InitialBackoff: 100 * time.Millisecond},
			CircuitBreaker: config.CircuitBreakerConfig{
				Name:                "storectl",
				ConsecutiveFailures: 5,
				ErrorRatePercent:    50,
				OpenTimeout:         5 * time.Second,
			},
		},
	)
	if err != nil {
		return nil, nil, err
	}
	return records.NewGRPCClient(pb.NewRecordStoreClient(conn)), conn.Close, nil
}

func newApp(open clientFactory, in io.Reader, out, errOut io.Writer) *cli.App {
	cmd := &commands{open: open, in: in}
	return &cli.App{
		Name:      "storectl",
		Usage:     "browse and manage storefront products",
		Writer:    out,
		ErrWriter: errOut,
		// exit codes are applied by main so that commands can run in tests
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "record store gRPC address",
				Value:   "localhost:50051",
				EnvVars: []string{"STORECTL_ADDR"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-call timeout",
				Value: 5 * time.Second,
			},
			&cli.StringFlag{
				Name:  "currency",
				Usage: "currency symbol for price labels",
				Value: "₹",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log requests to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelWarn
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			cmd.logger = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list products, optionally filtered by name or description",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "case-insensitive search text"},
				},
				Action: cmd.list,
			},
			{
				Name:      "show",
				Usage:     "show one product",
				ArgsUsage: "ID",
				Action:    cmd.show,
			},
			{
				Name:  "add",
				Usage: "add a product",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "product id, generated when empty"},
				}, draftFlags(true)...),
				Action: cmd.add,
			},
			{
				Name:      "edit",
				Usage:     "change the given fields of a product, an empty value clears one",
				ArgsUsage: "ID",
				Flags:     draftFlags(false),
				Action:    cmd.edit,
			},
			{
				Name:      "delete",
				Usage:     "delete a product",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
				},
				Action: cmd.remove,
			},
		},
	}
}

func draftFlags(nameRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "product name", Required: nameRequired},
		&cli.Float64Flag{Name: "price", Usage: "price, without currency"},
		&cli.StringFlag{Name: "description", Usage: "free text description"},
		&cli.StringFlag{Name: "sku", Usage: "stock keeping unit"},
		&cli.StringFlag{Name: "image", Usage: "main image URL"},
		&cli.StringFlag{Name: "link", Usage: "external product page"},
	}
}
