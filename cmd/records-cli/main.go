package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/app"
	"github.com/noah-isme/academic-records-api/internal/cli"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return cli.ExitCommandError
	}
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return cli.ExitCommandError
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (*cli.Services, func(), error) {
		container, err := app.New(ctx, cfg, logr)
		if err != nil {
			return nil, nil, err
		}
		return &cli.Services{
			Sync:         container.Sync,
			Enrollments:  container.Enrollments,
			Reservations: container.Reservations,
		}, container.Close, nil
	}
	tokens := func() (cli.TokenIssuer, error) {
		return app.NewTokenService(cfg, logr), nil
	}

	cmd := cli.NewRootCommand(open, tokens)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logr.Debug("command failed", zap.Error(err))
		if code := cli.GetExitCode(err); code != cli.ExitRejected {
			fmt.Fprintln(os.Stderr, err)
		}
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
