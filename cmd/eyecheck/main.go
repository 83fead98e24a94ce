// Command eyecheck validates pipeline manifests: every pipeline's shaders are reflected and
// checked against its vertex buffers and the resources the host binds.
//
// Usage:
//
//	eyecheck [-manifest path] [-log-level info] [-verify] [-spirv dir] [-watch]
//
// -spirv only compiles WGSL shaders. GLSL shaders are listed as skipped.
//
// Without -manifest the embedded sandbox manifest is checked.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/eyengine/assets"
	"github.com/Carmen-Shannon/eyengine/common"
	"github.com/Carmen-Shannon/eyengine/engine/loader"
	"github.com/muesli/termenv"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// options holds the parsed command line.
type options struct {
	manifestPath string
	logLevel     string
	watch        bool
	spirvDir     string
	verify       bool
	workers      int
}

// spirvUsage is the -spirv help text. naga has no GLSL front end, so GLSL stages are skipped.
const spirvUsage = "write a SPIR-V module for every WGSL shader into this directory (WGSL only; GLSL shaders are skipped)"

func newFlagSet() (*flag.FlagSet, *options) {
	o := &options{}
	fset := flag.NewFlagSet("eyecheck", flag.ContinueOnError)
	fset.StringVar(&o.manifestPath, "manifest", "", "pipeline manifest (.toml, .yaml); the embedded sandbox manifest if empty")
	fset.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fset.BoolVar(&o.watch, "watch", false, "re-validate whenever the manifest or a shader changes")
	fset.StringVar(&o.spirvDir, "spirv", "", spirvUsage)
	fset.BoolVar(&o.verify, "verify", false, "cross-check WGSL reflection against the naga front end")
	fset.IntVar(&o.workers, "workers", 4, "pipelines validated at once")
	return fset, o
}

func run(args []string) int {
	fset, o := newFlagSet()
	if err := fset.Parse(args); err != nil {
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "eyecheck: %v\n", err)
		return 2
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	l := loader.NewLoader(loader.WithWorkers(o.workers))
	defer l.Close()

	var m *loader.Manifest
	var err error
	if o.manifestPath == "" {
		m, err = l.LoadFS(assets.FS, assets.SandboxManifest)
	} else {
		m, err = l.Load(o.manifestPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "eyecheck: %v\n", err)
		return 1
	}

	out := termenv.NewOutput(os.Stdout)
	rep := newReporter(out, m)

	results := l.Validate(m)
	if o.verify {
		verifyResults(results)
	}
	failed := rep.report(results)

	if o.spirvDir != "" {
		written, skipped, err := writeSPIRV(m, o.spirvDir, loader.DefaultIncludes())
		for _, f := range written {
			fmt.Fprintf(out, "wrote %s\n", f)
		}
		for _, f := range skipped {
			fmt.Fprintf(out, "skipped %s (no SPIR-V output for GLSL)\n", f)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "eyecheck: %v\n", err)
			return 1
		}
	}

	if o.watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := loader.Watch(ctx, l, m, func(next *loader.Manifest, results []loader.Result, err error) {
			if err != nil {
				fmt.Fprintln(out, rep.fail(err.Error()))
				return
			}
			if o.verify {
				verifyResults(results)
			}
			rep.manifest = next
			rep.report(results)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "eyecheck: %v\n", err)
			return 1
		}
		return 0
	}

	if failed > 0 {
		return 1
	}
	return 0
}
