package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jaskaranSM/pdrive/config"
	"github.com/jaskaranSM/pdrive/logging"
	"github.com/jaskaranSM/pdrive/manager"
	"github.com/jaskaranSM/pdrive/service/pdrive"
)

const (
	exitOK          = 0
	exitError       = 1
	exitProtocol    = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	flags := pflag.NewFlagSet(config.AppName, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "settings file (default: per-user config dir)")
	quiet := flags.BoolP("quiet", "q", false, "do not print progress lines")
	flags.IntP("concurrency", "c", 0, "parallel part uploads, overrides concurrent_requests")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <file>\n", config.AppName)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return exitError
	}

	cfg, err := config.Load(config.LoadOpts{Path: *configPath, Flags: flags})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := manager.NewUploadManager(cfg, stdout)
	url, err := m.Upload(ctx, &manager.UploadOpts{
		Path:  flags.Arg(0),
		Quiet: *quiet,
	})
	if err != nil {
		logging.GetLogger().Debug("Upload failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	fmt.Fprintln(stdout, url)
	return exitOK
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, pdrive.ErrUnexpectedStatus):
		return exitProtocol
	default:
		return exitError
	}
}
