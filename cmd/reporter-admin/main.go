// Command reporter-admin performs operator tasks against the account
// database, such as bootstrapping the first admin:
//
//	reporter-admin -config config.yaml create-user -email root@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/MrEthical07/reporterAuth/internal/app"
	"github.com/MrEthical07/reporterAuth/internal/cli"
	"github.com/MrEthical07/reporterAuth/internal/config"
)

func main() {
	cfg := config.MustLoad(config.Path())
	if err := run(context.Background(), cfg, flag.Args()); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: reporter-admin [-config path] create-user [-username name] [-email addr] [-role admin|user]")
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("reporter-admin needs a database; set postgres.dsn or DATABASE_DSN")
	}

	// Mail and audit output would only clutter the terminal.
	cfg.SMTP.Host = ""
	cfg.AuditEvents = false
	a, err := app.New(ctx, cfg, io.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	switch args[0] {
	case "create-user":
		pr := cli.NewPrompter(os.Stdin, os.Stdout, int(os.Stdin.Fd()))
		return cli.CreateUser(ctx, a.Engine(), pr, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
