// Command toroid builds tokamak reactor geometry from a reactor source file
// and writes tagged meshes ready for neutronics.
//
// Usage:
//
//	toroid [-config file] [-env file] <command> [flags] <source>
//
// Commands:
//
//	check   evaluate and validate a source
//	names   print the part names of every reactor
//	build   write a 3MF mesh (and optionally a plan) per reactor
//	sweep   write one 3MF mesh per frame of a parameter sweep
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"go.uber.org/zap"

	"github.com/chazu/toroid/pkg/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: toroid [-config file] [-env file] <check|names|build|sweep> [flags] <source>")
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("toroid", flag.ContinueOnError)
	global.SetOutput(stderr)
	cfgPath := global.String("config", "", "YAML config file")
	envPath := global.String("env", ".env", "dotenv file, ignored when missing")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() < 1 {
		usage(stderr)
		return 2
	}

	cfg, err := config.Load(*cfgPath, *envPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "check", "names", "build", "sweep":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return 2
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", cfg.OutputDir, "output directory")
	plan := fs.Bool("plan", false, "write a neutronics plan per reactor (build)")
	facility := fs.Bool("facility", false, "surround each reactor with a facility in its plan (build)")
	point := fs.Bool("point", false, "add a point source to each plan (build)")
	name := fs.String("reactor", "", "reactor to sweep, default the first (sweep)")
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		usage(stderr)
		return 2
	}
	cfg.OutputDir = *out

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	app := NewApp(cfg, logger)
	var result any
	switch cmd {
	case "check":
		var names map[string][]string
		var warnings []EvalErrorData
		names, warnings, err = app.Names(string(source))
		if err == nil {
			reactors := make([]string, 0, len(names))
			for n := range names {
				reactors = append(reactors, n)
			}
			sort.Strings(reactors)
			result = map[string]any{"reactors": reactors, "warnings": warnings}
		}
	case "names":
		result, _, err = app.Names(string(source))
	case "build":
		result, err = app.Build(ctx, string(source), BuildOptions{Plan: *plan, Facility: *facility, Point: *point})
	case "sweep":
		result, err = app.Sweep(ctx, string(source), *name)
	}
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			for _, e := range se.Errors {
				fmt.Fprintf(stderr, "%s:%d: %s\n", fs.Arg(0), e.Line, e.Message)
			}
		} else {
			logger.Error(cmd+" failed", zap.Error(err))
			fmt.Fprintln(stderr, err)
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
