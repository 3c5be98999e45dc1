// Package main starts the OrthoGuide API process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	orthoguidecmd "github.com/orthoguide/orthoguide/internal/cmd/orthoguide"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := orthoguidecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logrus.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orthoguidecmd.Run(ctx, cfg); err != nil {
		logrus.Fatalf("failed to serve: %v", err)
	}
}
