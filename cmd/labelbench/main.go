// cmd/labelbench/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file (defaults to the built-in benchmark)")
	flag.StringVar(&opts.levels, "levels", "", "comma separated load levels, e.g. 10,50,100")
	flag.StringVar(&opts.outDir, "out", "", "output directory for results")
	flag.StringVar(&opts.cpuCSV, "cpu-csv", "", "load-testing CPU CSV to merge with the averages")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "labelbench: %v\n", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
