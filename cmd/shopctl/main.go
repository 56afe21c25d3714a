// Command shopctl drives the shop console from a terminal. The session
// token is persisted, so repeated runs share one cart.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jogardn/shop-console/internal/config"
	"github.com/jogardn/shop-console/internal/console"
	"github.com/jogardn/shop-console/internal/session"
	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := config.NewLogger(cfg.Logging)
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := session.Open(ctx, session.Options{
		Backend:     cfg.Session.Store,
		File:        cfg.Session.File,
		RedisURL:    cfg.Session.RedisURL,
		DatabaseURL: cfg.Session.DatabaseURL,
		ClientName:  cfg.Session.ClientName,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open session store")
	}
	defer closeStore()

	client := shopapi.NewClient(cfg.Console.ShopAPIURL, logger)
	app := &app{
		api:    client,
		store:  store,
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	if err := app.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type app struct {
	api    console.API
	store  session.Store
	logger *logrus.Logger
	stdout io.Writer
	stderr io.Writer
}

// run executes one subcommand against a console bound to the persisted
// session, then prints the alerts it raised.
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n", args[0])
		a.usage()
		return errUsage
	}

	sessionID, err := session.NewManager(a.store, a.logger).ID(ctx)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to resolve session: %v\n", err)
		return err
	}

	c := console.New(a.api, sessionID, a.logger)
	defer c.Close()

	err = cmd.run(ctx, a, c, args[1:])
	a.printAlerts(c)
	return err
}

func (a *app) printAlerts(c *console.Console) {
	alerts := c.Alerts().Active()
	// Oldest first reads naturally on a terminal
	for i := len(alerts) - 1; i >= 0; i-- {
		alert := alerts[i]
		if alert.Type == console.AlertDanger {
			fmt.Fprintln(a.stderr, "error: "+alert.Message)
			continue
		}
		fmt.Fprintln(a.stdout, alert.Message)
	}
}

func (a *app) usage() {
	fmt.Fprintln(a.stderr, "usage: shopctl <command> [flags]")
	fmt.Fprintln(a.stderr, "\ncommands:")
	for _, name := range commandNames() {
		fmt.Fprintf(a.stderr, "  %-15s %s\n", name, commands[name].summary)
	}
}
