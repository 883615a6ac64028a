// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/hslam/writev"
	"go.uber.org/zap"
)

// Cat implements subcommands.Command for the "cat" command.
type Cat struct {
	chunk int
}

// Name implements subcommands.Command.Name.
func (*Cat) Name() string {
	return "cat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Cat) Synopsis() string {
	return "concatenate files to stdout with vectored writes"
}

// Usage implements subcommands.Command.Usage.
func (*Cat) Usage() string {
	return `cat [flags] [file...]

Without files, stdin is copied.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *Cat) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.chunk, "chunk", 0, "queue each file as chunks of this many bytes; 0 keeps files whole")
}

// Execute implements subcommands.Command.Execute.
func (c *Cat) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	conf := args[0].(*writev.Config)
	logger := conf.Logger
	w, err := writev.NewWriter(os.Stdout, conf)
	if err != nil {
		logger.Error("open stdout", zap.Error(err))
		return subcommands.ExitFailure
	}
	status := subcommands.ExitSuccess
	if f.NArg() == 0 {
		if _, err := io.Copy(w, os.Stdin); err != nil {
			logger.Error("copy stdin", zap.Error(err))
			status = subcommands.ExitFailure
		}
	}
	for _, name := range f.Args() {
		data, err := os.ReadFile(name)
		if err != nil {
			logger.Error("read file", zap.String("file", name), zap.Error(err))
			status = subcommands.ExitFailure
			continue
		}
		if err := c.queue(w, data); err != nil {
			logger.Error("write file", zap.String("file", name), zap.Error(err))
			status = subcommands.ExitFailure
			break
		}
	}
	if err := w.Close(); err != nil {
		logger.Error("flush", zap.Error(err))
		status = subcommands.ExitFailure
	}
	logger.Debug("cat done", zap.Int64("written", w.Written()))
	return status
}

func (c *Cat) queue(w *writev.Writer, data []byte) error {
	for c.chunk > 0 && len(data) > c.chunk {
		if err := w.WriteBuffer(writev.Heap(data[:c.chunk])); err != nil {
			return err
		}
		data = data[c.chunk:]
	}
	return w.WriteBuffer(writev.Heap(data))
}
