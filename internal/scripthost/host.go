// Package scripthost implements the Script Host (spec.md §4.2): it resolves
// a spec script's includes and references, compiles the combined source
// through the host-provided Go toolchain, and executes the result to produce
// a frozen spec tree.
package scripthost

import (
	"context"
	"fmt"
	"plugin"
	"sort"
	"strings"
	"time"

	"github.com/ariel-frischer/draftspec/internal/cache"
	"github.com/ariel-frischer/draftspec/internal/dsl"
	draftspecerrors "github.com/ariel-frischer/draftspec/internal/errors"
	"github.com/ariel-frischer/draftspec/internal/specctx"
)

// defineSymbol is the exported function name the generated plugin source
// always declares; the Host looks this symbol up after loading (spec.md
// §4.2 step 4).
const defineSymbol = "Define"

// Host loads spec scripts into frozen spec trees.
type Host struct {
	cache            *cache.Cache
	compiler         Compiler
	frameworkVersion string
}

// Options configures a Host.
type Options struct {
	Cache            *cache.Cache
	Compiler         Compiler
	FrameworkVersion string
}

// New creates a Host. A nil Cache disables caching entirely; a nil Compiler
// defaults to the Go-toolchain-backed compiler rooted at buildDir.
func New(opts Options, buildDir string) *Host {
	compiler := opts.Compiler
	if compiler == nil {
		compiler = NewGoCompiler(buildDir)
	}
	version := opts.FrameworkVersion
	if version == "" {
		version = "dev"
	}
	return &Host{cache: opts.Cache, compiler: compiler, frameworkVersion: version}
}

// Load preprocesses, compiles (or reuses a cached artefact for) and executes
// mainPath, returning the frozen spec tree it defines.
func (h *Host) Load(ctx context.Context, mainPath string) (*specctx.SpecContext, error) {
	pre, err := preprocess(mainPath)
	if err != nil {
		return nil, err
	}

	source := render(pre)

	var artefactPath string
	var cacheKey string

	if h.cache != nil {
		cacheKey = cache.ComputeKey(h.frameworkVersion, mainPath, pre.Files, source)
		if entry, ok := h.cache.Lookup(cacheKey); ok && entry.Matches(h.frameworkVersion, pre.Files) {
			artefactPath = entry.ArtefactPath
		}
	}

	if artefactPath == "" {
		artefactPath, err = h.compiler.Compile(ctx, source, h.frameworkVersion)
		if err != nil {
			return nil, err
		}

		if h.cache != nil {
			h.cache.Store(&cache.Entry{
				Key:              cacheKey,
				MainPath:         mainPath,
				Files:            pre.Files,
				FrameworkVersion: h.frameworkVersion,
				ArtefactPath:     artefactPath,
				CreatedAt:        time.Now(),
			})
		}
	}

	return h.execute(mainPath, artefactPath)
}

// execute loads the compiled plugin, invokes its Define function under the
// dsl package's ambient binding, and returns the frozen tree (spec.md §4.2
// step 4, §4.1 Freeze).
func (h *Host) execute(mainPath, artefactPath string) (*specctx.SpecContext, error) {
	p, err := plugin.Open(artefactPath)
	if err != nil {
		return nil, draftspecerrors.Wrap(draftspecerrors.ScriptCompilation, err)
	}

	sym, err := p.Lookup(defineSymbol)
	if err != nil {
		return nil, draftspecerrors.New(draftspecerrors.ScriptCompilation,
			fmt.Sprintf("script %s does not export a %s function", mainPath, defineSymbol)).WithCause(err)
	}

	define, ok := sym.(func())
	if !ok {
		return nil, draftspecerrors.New(draftspecerrors.ScriptCompilation,
			fmt.Sprintf("script %s: %s has an unexpected signature", mainPath, defineSymbol))
	}

	dsl.Lock()
	defer dsl.Unlock()
	dsl.Reset()

	if err := runDefine(mainPath, define); err != nil {
		return nil, err
	}

	root := dsl.Capture()
	specctx.Freeze(root)
	return root, nil
}

// runDefine invokes a script's Define function, converting a panic (e.g. a
// duplicate-hook registration, spec.md §4.1) into a ScriptCompilation error
// rather than crashing the host process.
func runDefine(mainPath string, define func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = draftspecerrors.New(draftspecerrors.ScriptCompilation,
				fmt.Sprintf("script %s panicked during definition: %v", mainPath, r))
		}
	}()
	define()
	return nil
}

// render synthesizes the single-file `package main` source compiled by the
// Go toolchain: the combined, directive-stripped statement body wrapped in a
// Define function, plus the dsl import and every reference-derived import
// (spec.md §4.2 step 1 output).
func render(pre *preprocessed) string {
	var sb strings.Builder
	sb.WriteString("package main\n\n")

	sb.WriteString("import (\n")
	sb.WriteString(fmt.Sprintf("\t%q\n", dslImportPath))
	imports := append([]string(nil), pre.Imports...)
	sort.Strings(imports)
	for _, imp := range imports {
		sb.WriteString(fmt.Sprintf("\t%q\n", imp))
	}
	sb.WriteString(")\n\n")

	sb.WriteString("func Define() {\n")
	sb.WriteString(pre.Body)
	sb.WriteString("\n}\n")

	return sb.String()
}
