// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

// Binary writev writes files and synthetic load through batched vectored writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/hslam/writev"
)

var (
	configPath = flag.String("config", "", "path to a YAML or TOML config file")
	logMode    = flag.String("log", "", "logger: prod, dev or nop; overrides the config file")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(Limits), "")
	subcommands.Register(new(Cat), "")
	subcommands.Register(new(Bench), "")
	flag.Parse()

	conf := writev.DefaultConfig()
	if *configPath != "" {
		var err error
		if conf, err = writev.LoadConfig(*configPath); err != nil {
			fatalf("%v", err)
		}
	}
	if *logMode != "" {
		conf.Log = *logMode
	}
	logger, err := conf.GetLogger()
	if err != nil {
		fatalf("building logger: %v", err)
	}
	conf.Logger = logger

	status := subcommands.Execute(context.Background(), conf)
	logger.Sync()
	os.Exit(int(status))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "writev: "+format+"\n", args...)
	os.Exit(int(subcommands.ExitFailure))
}
