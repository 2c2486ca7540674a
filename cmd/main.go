package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ALEYI17/InfraSight_flops/internal/collector"
	"github.com/ALEYI17/InfraSight_flops/internal/config"
	"github.com/ALEYI17/InfraSight_flops/internal/report"
	"github.com/ALEYI17/InfraSight_flops/pkg/logutil"
	"github.com/ALEYI17/InfraSight_flops/pkg/types"
	"github.com/fatih/color"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
)

func usage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage:\n  %s [<sde_mix_out> <sde_dyn_mask_profile>]\n\n", prog)
	fmt.Fprintf(os.Stderr, "  <sde_mix_out>:          %s\n", types.DefaultMixFile)
	fmt.Fprintf(os.Stderr, "  <sde_dyn_mask_profile>: %s\n\n", types.DefaultMaskFile)
	fmt.Fprintln(os.Stderr, "The files are created by Intel SDE's '-mix -iform' and '-dyn_mask_profile' options, e.g.")
	fmt.Fprintln(os.Stderr, "  sde64 -iform -mix -dyn_mask_profile -- ./app")
	fmt.Fprintf(os.Stderr, "\nEnvironment: %s, %s, %s, %s, %s\n",
		config.EnvRules, config.EnvStrictMasking, config.EnvLogLevel, config.EnvDumpRules, config.EnvBuffer)
}

func fail(err error, showUsage bool) {
	color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, err)
	if showUsage {
		fmt.Fprintln(os.Stderr)
		usage()
	}
	atexit.Exit(1)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fail(err, errors.Is(err, config.ErrUsage))
	}

	if err := logutil.InitLogger(cfg.LogLevel, zap.String("run", xid.New().String())); err != nil {
		fail(fmt.Errorf("bad log level %q: %w", cfg.LogLevel, err), false)
	}
	logger := logutil.GetLogger()
	atexit.Register(func() {
		logger.Sync()
	})

	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigch
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("Aggregating SDE traces", zap.String("mix", cfg.MixPath), zap.String("mask", cfg.MaskPath))

	r, err := collector.Run(ctx, cfg)
	if err != nil {
		logger.Error("Aggregation failed", zap.Error(err))
		fail(err, false)
	}

	if err := report.Write(os.Stdout, r); err != nil {
		logger.Error("Error writing report", zap.Error(err))
		fail(err, false)
	}

	logger.Info("Report written", zap.Int("threads", len(r.Threads)))
	atexit.Exit(0)
}
