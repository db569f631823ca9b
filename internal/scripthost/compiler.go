package scripthost

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ariel-frischer/draftspec/internal/cache"
	draftspecerrors "github.com/ariel-frischer/draftspec/internal/errors"
)

// Compiler turns a combined, preprocessed script source into a loadable
// artefact. The default implementation shells out to the real Go toolchain
// (spec.md §4.2: "the host-provided compiler" is realised as `go build
// -buildmode=plugin`, following the exec.Command pattern used throughout
// this codebase for git subprocesses).
type Compiler interface {
	Compile(ctx context.Context, source string, frameworkVersion string) (artefactPath string, err error)
}

// goCompiler is the default Compiler: it writes source to a throwaway build
// directory and invokes `go build -buildmode=plugin`.
type goCompiler struct {
	buildDir string
}

// NewGoCompiler creates a Compiler that builds Go plugins under buildDir
// (typically a subdirectory of the cache directory so artefacts survive
// across runs once compiled).
func NewGoCompiler(buildDir string) Compiler {
	return &goCompiler{buildDir: buildDir}
}

func (g *goCompiler) Compile(ctx context.Context, source, frameworkVersion string) (string, error) {
	if err := os.MkdirAll(g.buildDir, 0o755); err != nil {
		return "", draftspecerrors.Wrap(draftspecerrors.ScriptCompilation, err)
	}

	tmpDir, err := os.MkdirTemp(g.buildDir, "build-*")
	if err != nil {
		return "", draftspecerrors.Wrap(draftspecerrors.ScriptCompilation, err)
	}
	defer os.RemoveAll(tmpDir)

	srcPath := filepath.Join(tmpDir, "spec.go")
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return "", draftspecerrors.Wrap(draftspecerrors.ScriptCompilation, err)
	}

	// One artefact per distinct version+source, so a later compile of another
	// script never overwrites an artefact a cache entry still points at.
	sourceHash := cache.HashContent(frameworkVersion + "\x00" + source)[:16]
	artefactName := fmt.Sprintf("spec-%s-%s.so", sourceHash, runtime.GOARCH)
	artefactPath := filepath.Join(g.buildDir, artefactName)

	// #nosec G204 -- args are fixed flags plus paths we generated ourselves.
	cmd := exec.CommandContext(ctx, "go", "build", "-buildmode=plugin", "-o", artefactPath, srcPath)
	cmd.Dir = tmpDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", draftspecerrors.New(draftspecerrors.ScriptCompilation,
			fmt.Sprintf("go build failed: %s", stderr.String())).WithCause(err)
	}

	return artefactPath, nil
}
