package scripthost

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ariel-frischer/draftspec/internal/cache"
	draftspecerrors "github.com/ariel-frischer/draftspec/internal/errors"
)

var (
	includeRe   = regexp.MustCompile(`^\s*//draftspec:include\s+"([^"]+)"\s*$`)
	referenceRe = regexp.MustCompile(`^\s*//draftspec:reference\s+"([^"]+)"\s*$`)
)

// dslImportPath is always available to spec scripts and is never emitted as
// an explicit import even if referenced explicitly (spec.md §6: "package
// tokens matching the framework itself are elided").
const dslImportPath = "github.com/ariel-frischer/draftspec/internal/dsl"

// preprocessed is the result of depth-first include/reference resolution for
// one main script (spec.md §4.2 step 1).
type preprocessed struct {
	// Body is the combined sequence of Go statements from every transitively
	// included file, in depth-first order, followed by the main file's own
	// statements.
	Body string
	// Imports is the deduplicated set of import paths contributed by
	// `reference "package:..."` directives, framework self-references elided.
	Imports []string
	// Files is every transitively visited filesystem path (main file plus
	// includes plus filesystem references) with its content hash, used for
	// the cache key and for Entry.Files (spec.md §4.2, §3).
	Files []cache.FileHash
}

// preprocess resolves mainPath's includes and references, recursively,
// breaking cycles via a visited set keyed by canonical absolute path
// (spec.md §9: "a visited set keyed by canonical absolute path; duplicate
// visits are no-ops, not errors").
func preprocess(mainPath string) (*preprocessed, error) {
	p := &preprocessor{visited: make(map[string]bool), imports: make(map[string]bool)}

	body, err := p.process(mainPath, true)
	if err != nil {
		return nil, err
	}

	imports := make([]string, 0, len(p.imports))
	for i := range p.imports {
		imports = append(imports, i)
	}
	sort.Strings(imports)

	return &preprocessed{Body: body, Imports: imports, Files: p.files}, nil
}

type preprocessor struct {
	visited map[string]bool
	imports map[string]bool
	files   []cache.FileHash
}

// process reads path, recurses into its include/reference directives when
// recursive is true, and returns the resulting body fragment (directive
// lines stripped, everything else preserved in original order).
func (p *preprocessor) process(path string, recursive bool) (string, error) {
	canon, err := canonicalPath(path)
	if err != nil {
		return "", draftspecerrors.Wrap(draftspecerrors.ScriptCompilation, err)
	}

	if p.visited[canon] {
		return "", nil // cycle / duplicate: no-op, not an error.
	}
	p.visited[canon] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return "", draftspecerrors.Wrap(draftspecerrors.ScriptCompilation, err)
	}
	content := string(data)
	p.files = append(p.files, cache.FileHash{Path: canon, Hash: cache.HashContent(content)})

	if !recursive {
		return content, nil
	}

	dir := filepath.Dir(path)
	lines := strings.Split(content, "\n")
	var out strings.Builder

	for _, line := range lines {
		if m := includeRe.FindStringSubmatch(line); m != nil {
			incPath := resolveRelative(dir, m[1])
			incBody, err := p.process(incPath, true)
			if err != nil {
				return "", err
			}
			out.WriteString(incBody)
			out.WriteString("\n")
			continue
		}

		if m := referenceRe.FindStringSubmatch(line); m != nil {
			target := m[1]
			if strings.HasPrefix(target, "package:") {
				p.addPackageReference(strings.TrimPrefix(target, "package:"))
				continue
			}

			refPath := resolveRelative(dir, target)
			refBody, err := p.process(refPath, false) // references don't recurse into their own directives
			if err != nil {
				return "", err
			}
			out.WriteString(refBody)
			out.WriteString("\n")
			continue
		}

		out.WriteString(line)
		out.WriteString("\n")
	}

	return out.String(), nil
}

// addPackageReference records an import path from a `package:<path>[,
// <version>]` reference token, eliding references to the framework itself.
func (p *preprocessor) addPackageReference(token string) {
	importPath := strings.TrimSpace(strings.SplitN(token, ",", 2)[0])
	if importPath == "" {
		return
	}
	if importPath == dslImportPath || strings.HasPrefix(importPath, "github.com/ariel-frischer/draftspec") {
		return // "the framework is always available" — elided (spec.md §6).
	}
	p.imports[importPath] = true
}

func resolveRelative(dir, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(dir, rel)
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}
