package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/petsalud/vet-cli/internal/cli"
	"github.com/petsalud/vet-cli/internal/clinic"
	"github.com/petsalud/vet-cli/internal/screens"
	"github.com/petsalud/vet-cli/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Printf("%sError: %s%s\n", cli.Red, err, cli.Reset)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cmd := "tui"
	if len(args) > 0 {
		cmd = args[0]
	}

	// Help, version and setup don't need config
	switch cmd {
	case "help", "-h", "--help":
		cli.PrintUsage(os.Stdout)
		return nil
	case "version", "-v", "--version":
		fmt.Printf("Veterinaria CLI v%s\n", tui.Version)
		fmt.Printf("Created by %s in %s\n", tui.Author, tui.Year)
		return nil
	case "setup":
		_, err := tui.RunSetupTUI(clinic.ConfigFile)
		return err
	}

	// First run of the TUI walks through the setup wizard
	if cmd == "tui" && clinic.FindConfig() == "" && os.Getenv("VET_API_URL") == "" {
		saved, err := tui.RunSetupTUI(clinic.ConfigFile)
		if err != nil || !saved {
			return err
		}
	}

	config, err := clinic.LoadConfig()
	if err != nil {
		return err
	}

	logger, closer, err := clinic.NewLogger(config)
	if err != nil {
		return err
	}
	defer closer.Close()

	client := clinic.NewClient(config, logger)
	session := clinic.NewSession(config.SessionFile)
	if err := session.Load(); err != nil {
		logger.Warn("discarding saved session", "err", err)
	}
	env := screens.Env{
		API:     clinic.NewAPI(client, session),
		Config:  config,
		Session: session,
		Now:     time.Now,
	}

	if cmd == "tui" {
		return tui.RunTUI(ctx, env, client, logger)
	}

	// Detect connection mode (except for ping/config which do it themselves)
	if cmd != "ping" && cmd != "config" {
		client.DetectConnection(ctx)
	}
	return cli.New(ctx, env, client, os.Stdout, os.Stdin).Run(args)
}
