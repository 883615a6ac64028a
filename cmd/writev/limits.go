// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/hslam/writev"
)

// Limits implements subcommands.Command for the "limits" command.
type Limits struct{}

// Name implements subcommands.Command.Name.
func (*Limits) Name() string {
	return "limits"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Limits) Synopsis() string {
	return "print the resolved writev limits and capabilities"
}

// Usage implements subcommands.Command.Usage.
func (*Limits) Usage() string {
	return "limits\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Limits) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Limits) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	conf := args[0].(*writev.Config)
	l, err := conf.Limits()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	budget := l.MaxBytes
	if conf.MaxBytes > 0 {
		budget = min(conf.MaxBytes, l.MaxBytes)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "max_iovecs\t%d\n", l.MaxIovecs)
	fmt.Fprintf(tw, "max_bytes\t%d\n", l.MaxBytes)
	fmt.Fprintf(tw, "byte_budget\t%d\n", budget)
	fmt.Fprintf(tw, "address_size\t%d\n", l.AddressSize)
	fmt.Fprintf(tw, "unsafe\t%t\n", conf.Capabilities().Unsafe)
	tw.Flush()
	return subcommands.ExitSuccess
}
