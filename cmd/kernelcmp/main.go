// Command kernelcmp builds the embedded numeric kernel with the host C
// compiler, measures the result across optimization levels, and checks that
// the foreign-boundary backend is bit-for-bit equivalent to the native one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinyrange/kernelcmp/internal/conformance"
	"github.com/tinyrange/kernelcmp/internal/disasm"
	"github.com/tinyrange/kernelcmp/internal/kernel"
	"github.com/tinyrange/kernelcmp/internal/kernel/ffi"
	"github.com/tinyrange/kernelcmp/internal/report"
	"github.com/tinyrange/kernelcmp/internal/suite"
	"github.com/tinyrange/kernelcmp/internal/toolchain"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: kernelcmp <command> [flags]

commands:
  init     write a default %s
  build    compile the kernel and emit per-level listings
  compare  build, measure, and print the instruction-count table
  conform  check the foreign-boundary backend against the native one
  report   re-render the table from a previous build directory
`, suite.DefaultFilename)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "build":
		err = runBuild(os.Args[2:])
	case "compare":
		err = runCompare(os.Args[2:])
	case "conform":
		err = runConform(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "kernelcmp: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "kernelcmp: %v\n", err)
		os.Exit(1)
	}
}

// loadSuite reads the suite at path, or the default file if present, or
// falls back to the built-in defaults.
func loadSuite(path string) (suite.Config, error) {
	if path != "" {
		return suite.Load(path)
	}
	if _, err := os.Stat(suite.DefaultFilename); err == nil {
		return suite.Load(suite.DefaultFilename)
	}
	return suite.Default(), nil
}

func parseLevels(cfg suite.Config) ([]toolchain.OptLevel, error) {
	levels := make([]toolchain.OptLevel, 0, len(cfg.OptLevels))
	for _, s := range cfg.OptLevels {
		opt, err := toolchain.ParseOptLevel(s)
		if err != nil {
			return nil, err
		}
		levels = append(levels, opt)
	}
	return levels, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("f", false, "overwrite an existing suite file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(suite.DefaultFilename); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -f to overwrite)", suite.DefaultFilename)
	}
	if err := suite.Default().Save(suite.DefaultFilename); err != nil {
		return err
	}
	slog.Info("wrote suite file", "path", suite.DefaultFilename)
	return nil
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	suitePath := fs.String("suite", "", "suite file to use")
	outDir := fs.String("out", "", "artifact directory (overrides the suite)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	cfg, err := loadSuite(*suitePath)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}

	result, err := sweep(ctx, cfg)
	if err != nil {
		return err
	}

	slog.Info("built kernel", "sharedObject", result.SharedObject, "compiler", result.Compiler.Version)
	for _, artifact := range result.Artifacts {
		slog.Info("emitted listings", "opt", string(artifact.Opt), "asm", artifact.AsmPath, "ir", artifact.IRPath)
	}
	return nil
}

func sweep(ctx context.Context, cfg suite.Config) (*toolchain.SweepResult, error) {
	comp, err := toolchain.Probe(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := parseLevels(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return toolchain.Sweep(ctx, comp, cfg.OutputDir, toolchain.SweepOptions{
		Levels:   levels,
		Progress: report.IsTerminal(os.Stderr),
	})
}

func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	suitePath := fs.String("suite", "", "suite file to use")
	outDir := fs.String("out", "", "artifact directory (overrides the suite)")
	dump := fs.Bool("dump", false, "print matching function bodies side by side")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	cfg, err := loadSuite(*suitePath)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}

	result, err := sweep(ctx, cfg)
	if err != nil {
		return err
	}

	var table report.Table
	asmSource := result.Compiler.Flavor.String() + " -S"
	listings := make(map[toolchain.OptLevel]*disasm.Listing, len(result.Artifacts))

	for _, artifact := range result.Artifacts {
		listing, err := disasm.ParseAsmFile(artifact.AsmPath)
		if err != nil {
			return err
		}
		listings[artifact.Opt] = listing
		for _, fn := range cfg.Functions {
			if name := listing.Resolve(fn); name != "" {
				table.Add(report.Row{Function: fn, Source: asmSource, Opt: string(artifact.Opt), Count: listing.Count(name)})
			}
		}
	}

	objListing, err := disasm.Disassemble(ctx, result.SharedObject)
	switch {
	case errors.Is(err, disasm.ErrNoObjdump):
		slog.Warn("objdump not found, skipping shared object measurements")
		objListing = nil
	case err != nil:
		return err
	default:
		// The shared object is always built at O2.
		for _, fn := range cfg.Functions {
			if name := objListing.Resolve(fn); name != "" {
				table.Add(report.Row{Function: fn, Source: "objdump", Opt: "O2", Count: objListing.Count(name)})
			}
		}
		if size, padded, err := disasm.TextSize(result.SharedObject); err == nil {
			slog.Info("shared object text section", "bytes", size, "paddedBytes", padded)
		}
	}

	if table.Len() == 0 {
		return fmt.Errorf("no function bodies found for %s", strings.Join(cfg.Functions, ", "))
	}

	color := report.IsTerminal(os.Stdout)
	table.Render(os.Stdout, color)

	if *dump {
		lowest := result.Artifacts[0].Opt
		sideBySideDump(os.Stdout, cfg, asmSource, lowest, listings[lowest], objListing, color)
	}
	return nil
}

// sideBySideDump prints matching function bodies from the objdump listing
// next to the lowest-level asm listing.
func sideBySideDump(w io.Writer, cfg suite.Config, asmSource string, opt toolchain.OptLevel, asmListing, objListing *disasm.Listing, color bool) {
	if objListing == nil || asmListing == nil {
		slog.Warn("skipping side-by-side dump, objdump output unavailable")
		return
	}
	for _, fn := range cfg.Functions {
		asmName, objName := asmListing.Resolve(fn), objListing.Resolve(fn)
		if asmName == "" || objName == "" {
			continue
		}
		fmt.Fprintln(w)
		report.SideBySide(w, fn, "objdump (O2)", asmSource+" ("+string(opt)+")",
			objListing.Lines(objName), asmListing.Lines(asmName), color)
	}
}

func runConform(args []string) error {
	fs := flag.NewFlagSet("conform", flag.ExitOnError)
	suitePath := fs.String("suite", "", "suite file to use")
	libPath := fs.String("lib", "", "kernel shared object (default: build one in a temp dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadSuite(*suitePath)
	if err != nil {
		return err
	}
	if !cfg.WantsBackend(suite.BackendFFI) {
		slog.Info("suite lists no foreign backend, nothing to check", "backends", cfg.Backends)
		return nil
	}

	ctx := context.Background()
	path := *libPath
	if path == "" {
		comp, err := toolchain.Probe(ctx)
		if err != nil {
			return err
		}
		dir, err := os.MkdirTemp("", "kernelcmp-")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(dir)

		result, err := toolchain.Sweep(ctx, comp, dir, toolchain.SweepOptions{Levels: []toolchain.OptLevel{toolchain.O2}})
		if err != nil {
			return err
		}
		path = result.SharedObject
	}

	k, err := ffi.Open(path)
	if err != nil {
		return err
	}
	defer k.Close()

	cases := conformance.DefaultCases()
	mismatches := conformance.Run(kernel.Native{}, k, cases)
	for _, m := range mismatches {
		fmt.Fprintf(os.Stderr, "  %s\n", m)
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("backends diverge on %d of %d comparisons", len(mismatches), cases.Total())
	}
	slog.Info("backends are bit-for-bit equivalent", "comparisons", cases.Total(), "lib", path)
	return nil
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dir := fs.String("dir", "out", "artifact directory from a previous build")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(*dir, "kernel_*.s"))
	if err != nil {
		return fmt.Errorf("glob artifacts: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no assembly listings under %s (run build first)", *dir)
	}

	cfg := suite.Default()
	var table report.Table
	for _, path := range paths {
		base := filepath.Base(path)
		opt := strings.TrimSuffix(strings.TrimPrefix(base, "kernel_"), ".s")
		listing, err := disasm.ParseAsmFile(path)
		if err != nil {
			return err
		}
		for _, fn := range cfg.Functions {
			if name := listing.Resolve(fn); name != "" {
				table.Add(report.Row{Function: fn, Source: "asm", Opt: opt, Count: listing.Count(name)})
			}
		}
	}

	table.Render(os.Stdout, report.IsTerminal(os.Stdout))
	return nil
}
