// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/hslam/writev"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bench implements subcommands.Command for the "bench" command.
type Bench struct {
	goroutines int
	messages   int
	size       int
}

// Name implements subcommands.Command.Name.
func (*Bench) Name() string {
	return "bench"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Bench) Synopsis() string {
	return "measure batched writev throughput into a pipe"
}

// Usage implements subcommands.Command.Usage.
func (*Bench) Usage() string {
	return "bench [flags]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (b *Bench) SetFlags(f *flag.FlagSet) {
	f.IntVar(&b.goroutines, "goroutines", 64, "number of concurrent writers")
	f.IntVar(&b.messages, "messages", 10000, "messages per writer")
	f.IntVar(&b.size, "size", 512, "message size in bytes")
}

// Execute implements subcommands.Command.Execute.
func (b *Bench) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	conf := args[0].(*writev.Config)
	logger := conf.Logger
	r, w, err := os.Pipe()
	if err != nil {
		logger.Error("pipe", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer r.Close()
	writer, err := writev.NewWriter(w, conf)
	if err != nil {
		w.Close()
		logger.Error("new writer", zap.Error(err))
		return subcommands.ExitFailure
	}

	var read int64
	drain := errgroup.Group{}
	drain.Go(func() error {
		n, err := io.Copy(io.Discard, r)
		read = n
		return err
	})

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	msg := make([]byte, b.size)
	for i := 0; i < b.goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < b.messages; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := writer.Write(msg); err != nil {
					return err
				}
			}
			return nil
		})
	}
	werr := g.Wait()
	if err := writer.Close(); werr == nil {
		werr = err
	}
	elapsed := time.Since(start)
	w.Close()
	if err := drain.Wait(); werr == nil {
		werr = err
	}
	if werr != nil {
		logger.Error("bench", zap.Error(werr))
		return subcommands.ExitFailure
	}

	want := int64(b.goroutines) * int64(b.messages) * int64(b.size)
	if read != want {
		logger.Error("short read", zap.Int64("read", read), zap.Int64("want", want))
		return subcommands.ExitFailure
	}
	mbps := float64(read) / elapsed.Seconds() / (1 << 20)
	logger.Info("bench done",
		zap.Int64("bytes", read),
		zap.Duration("elapsed", elapsed),
		zap.Float64("mib_per_sec", mbps))
	fmt.Printf("%d bytes in %v (%.1f MiB/s)\n", read, elapsed, mbps)
	return subcommands.ExitSuccess
}
