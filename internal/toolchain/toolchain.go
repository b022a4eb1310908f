// Package toolchain drives the host C compiler: it builds the embedded
// kernel source into a shared object for the foreign-boundary backend and
// emits assembly and IR listings per optimization level for comparison.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	// ErrNoCompiler is returned by Probe when no usable C compiler is on PATH.
	ErrNoCompiler = errors.New("toolchain: no C compiler found")

	// ErrIRUnsupported is returned by EmitIR when the probed compiler has no
	// textual IR dump.
	ErrIRUnsupported = errors.New("toolchain: compiler cannot emit textual IR")
)

type Flavor int

const (
	FlavorUnknown Flavor = iota
	FlavorClang
	FlavorGCC
)

func (f Flavor) String() string {
	switch f {
	case FlavorClang:
		return "clang"
	case FlavorGCC:
		return "gcc"
	default:
		return "unknown"
	}
}

// OptLevel is a compiler optimization level, O0 through O3.
type OptLevel string

const (
	O0 OptLevel = "O0"
	O1 OptLevel = "O1"
	O2 OptLevel = "O2"
	O3 OptLevel = "O3"
)

// AllOptLevels returns the sweep default, lowest to highest.
func AllOptLevels() []OptLevel {
	return []OptLevel{O0, O1, O2, O3}
}

func ParseOptLevel(s string) (OptLevel, error) {
	switch OptLevel(strings.ToUpper(s)) {
	case O0, O1, O2, O3:
		return OptLevel(strings.ToUpper(s)), nil
	default:
		return "", fmt.Errorf("toolchain: invalid optimization level %q", s)
	}
}

func (o OptLevel) flag() string {
	return "-" + string(o)
}

// Compiler is a probed host C compiler.
type Compiler struct {
	Path    string
	Flavor  Flavor
	Version string
}

// baseFlags apply to every compile. -fwrapv is load-bearing: the factorial
// contract requires two's-complement wraparound, which C signed overflow
// does not otherwise guarantee.
var baseFlags = []string{"-fwrapv", "-fno-asynchronous-unwind-tables"}

// Probe locates a C compiler, trying $CC first and then the conventional
// names. The flavor is detected from --version output so EmitIR knows which
// dump mechanism to use.
func Probe(ctx context.Context) (Compiler, error) {
	candidates := []string{os.Getenv("CC"), "cc", "clang", "gcc"}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
		if err != nil {
			continue
		}
		version := firstLine(string(out))
		c := Compiler{Path: path, Flavor: classify(string(out)), Version: version}
		slog.Debug("probed C compiler", "path", path, "flavor", c.Flavor.String(), "version", version)
		return c, nil
	}
	return Compiler{}, ErrNoCompiler
}

func classify(versionOutput string) Flavor {
	lower := strings.ToLower(versionOutput)
	switch {
	case strings.Contains(lower, "clang"):
		return FlavorClang
	case strings.Contains(lower, "free software foundation"), strings.Contains(lower, "gcc"):
		return FlavorGCC
	default:
		return FlavorUnknown
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

// SharedObjectName returns the platform's name for the kernel library.
func SharedObjectName() string {
	if runtime.GOOS == "darwin" {
		return "libkernel.dylib"
	}
	return "libkernel.so"
}

// BuildShared compiles srcPath into a shared object at outPath. The kernel
// functions keep external linkage so their boundaries stay visible to the
// disassembler and the dynamic loader.
func (c Compiler) BuildShared(ctx context.Context, srcPath, outPath string) error {
	args := []string{"-shared", "-fPIC", "-O2"}
	args = append(args, baseFlags...)
	args = append(args, "-o", outPath, srcPath)
	return c.run(ctx, args)
}

// EmitAsm writes the compiler's -S listing for srcPath at the given
// optimization level.
func (c Compiler) EmitAsm(ctx context.Context, srcPath, outPath string, opt OptLevel) error {
	args := []string{"-S", opt.flag()}
	args = append(args, baseFlags...)
	args = append(args, "-o", outPath, srcPath)
	return c.run(ctx, args)
}

// EmitIR writes a textual IR listing: LLVM IR for clang, the GIMPLE dump for
// gcc. Unknown flavors get ErrIRUnsupported.
func (c Compiler) EmitIR(ctx context.Context, srcPath, outPath string, opt OptLevel) error {
	switch c.Flavor {
	case FlavorClang:
		args := []string{"-S", "-emit-llvm", opt.flag()}
		args = append(args, baseFlags...)
		args = append(args, "-o", outPath, srcPath)
		return c.run(ctx, args)
	case FlavorGCC:
		args := []string{"-S", opt.flag(), "-fdump-tree-gimple=stdout"}
		args = append(args, baseFlags...)
		args = append(args, "-o", os.DevNull, srcPath)
		out, err := c.output(ctx, args)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("toolchain: write IR dump: %w", err)
		}
		return nil
	default:
		return ErrIRUnsupported
	}
}

func (c Compiler) run(ctx context.Context, args []string) error {
	slog.Debug("running compiler", "path", c.Path, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, c.Path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("toolchain: %s %s: %w\n%s", c.Path, strings.Join(args, " "), err, out)
	}
	return nil
}

func (c Compiler) output(ctx context.Context, args []string) ([]byte, error) {
	slog.Debug("running compiler", "path", c.Path, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("toolchain: %s %s: %w\n%s", c.Path, strings.Join(args, " "), err, stderr.String())
	}
	return out, nil
}
