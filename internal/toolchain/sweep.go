package toolchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/tinyrange/kernelcmp/internal/kernel/csrc"
)

// Artifact is the pair of listings produced for one optimization level. An
// empty IRPath means the compiler could not emit textual IR.
type Artifact struct {
	Opt     OptLevel
	AsmPath string
	IRPath  string
}

// SweepResult records everything a sweep produced inside its directory.
type SweepResult struct {
	Compiler     Compiler
	SourcePath   string
	SharedObject string
	Artifacts    []Artifact
}

// SweepOptions control Sweep. Zero value means all optimization levels and
// no progress bar.
type SweepOptions struct {
	Levels   []OptLevel
	Progress bool
}

// Sweep stages the embedded kernel source into dir, builds the shared object
// for the foreign-boundary backend, and emits assembly and IR listings for
// each optimization level.
func Sweep(ctx context.Context, c Compiler, dir string, opts SweepOptions) (*SweepResult, error) {
	levels := opts.Levels
	if len(levels) == 0 {
		levels = AllOptLevels()
	}

	srcPath, err := csrc.WriteTo(dir)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{
		Compiler:     c,
		SourcePath:   srcPath,
		SharedObject: filepath.Join(dir, SharedObjectName()),
	}

	slog.Info("building kernel shared object", "compiler", c.Flavor.String(), "out", result.SharedObject)
	if err := c.BuildShared(ctx, srcPath, result.SharedObject); err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(len(levels)), "emitting listings")
	}

	for _, opt := range levels {
		artifact := Artifact{
			Opt:     opt,
			AsmPath: filepath.Join(dir, fmt.Sprintf("kernel_%s.s", opt)),
		}
		if err := c.EmitAsm(ctx, srcPath, artifact.AsmPath, opt); err != nil {
			return nil, err
		}

		irPath := filepath.Join(dir, fmt.Sprintf("kernel_%s.ir", opt))
		switch err := c.EmitIR(ctx, srcPath, irPath, opt); {
		case err == nil:
			artifact.IRPath = irPath
		case errors.Is(err, ErrIRUnsupported):
			slog.Warn("skipping IR dump", "compiler", c.Flavor.String(), "opt", string(opt))
		default:
			return nil, err
		}

		result.Artifacts = append(result.Artifacts, artifact)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	return result, nil
}
